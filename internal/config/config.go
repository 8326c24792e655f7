// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseDSN is the Postgres connection string. Empty selects the
	// in-memory store.
	DatabaseDSN string `koanf:"database_dsn"`

	// GameAPIBaseURL is the base URL of the snapshot source.
	GameAPIBaseURL string `koanf:"game_api_base_url"`

	// GameAPITimeoutSec bounds one snapshot fetch.
	GameAPITimeoutSec int `koanf:"game_api_timeout_sec"`

	// BatchIntervalMin sets the incremental run interval in minutes.
	BatchIntervalMin int `koanf:"batch_interval_min"`

	// DailyRunUTC is the daily snapshot run time as "HH:MM" in UTC.
	DailyRunUTC string `koanf:"daily_run_utc"`

	// WindowDays sets the rolling activity window length in days.
	WindowDays int `koanf:"window_days"`

	// LeaderboardEntryCap bounds the rows persisted per leaderboard run.
	LeaderboardEntryCap int `koanf:"leaderboard_entry_cap"`

	// SeasonLevelDivisor converts season points into levels.
	SeasonLevelDivisor int `koanf:"season_level_divisor"`

	// FlagPriority orders the prestige flags shown on leaderboard entries.
	FlagPriority []string `koanf:"flag_priority"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		DatabaseDSN:         "",
		GameAPIBaseURL:      "http://localhost:7070",
		GameAPITimeoutSec:   15,
		BatchIntervalMin:    15,
		DailyRunUTC:         "02:00",
		WindowDays:          180,
		LeaderboardEntryCap: 1000,
		SeasonLevelDivisor:  1000,
		FlagPriority: []string{
			"mythic_collector",
			"boss_slayer",
			"arena_champion",
			"garden_whale",
		},
	}
	return c
}
