package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if QUESTFORGE_CONFIG is set
//  3. env (prefix QUESTFORGE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("QUESTFORGE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: QUESTFORGE_ADDR, QUESTFORGE_DATABASE_DSN, ...
	// Map env keys like QUESTFORGE_WINDOW_DAYS -> window_days (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("QUESTFORGE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "questforge_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive, got %d", c.WindowDays)
	}
	if c.BatchIntervalMin <= 0 {
		return fmt.Errorf("batch_interval_min must be positive, got %d", c.BatchIntervalMin)
	}
	if c.SeasonLevelDivisor <= 0 {
		return fmt.Errorf("season_level_divisor must be positive, got %d", c.SeasonLevelDivisor)
	}
	if _, err := c.DailyRunOffset(); err != nil {
		return err
	}
	return nil
}

// DailyRunOffset parses DailyRunUTC into an offset from midnight UTC.
func (c *Config) DailyRunOffset() (time.Duration, error) {
	t, err := time.Parse("15:04", c.DailyRunUTC)
	if err != nil {
		return 0, fmt.Errorf("daily_run_utc must be HH:MM, got %q: %w", c.DailyRunUTC, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// BatchInterval returns the incremental run interval as a duration.
func (c *Config) BatchInterval() time.Duration {
	return time.Duration(c.BatchIntervalMin) * time.Minute
}

// GameAPITimeout returns the snapshot fetch timeout as a duration.
func (c *Config) GameAPITimeout() time.Duration {
	return time.Duration(c.GameAPITimeoutSec) * time.Second
}
