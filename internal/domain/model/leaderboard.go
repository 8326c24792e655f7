package model

import "time"

// TimeWindow classifies how a leaderboard derives its period.
type TimeWindow string

// Supported leaderboard time windows.
const (
	WindowDaily   TimeWindow = "DAILY"
	WindowWeekly  TimeWindow = "WEEKLY"
	WindowMonthly TimeWindow = "MONTHLY"
	WindowSeason  TimeWindow = "SEASON"
	WindowAllTime TimeWindow = "ALL_TIME"
)

// RunStatus is the lifecycle state of one leaderboard run.
type RunStatus string

// A run transitions PROCESSING -> (COMPLETE | FAILED) exactly once.
const (
	RunProcessing RunStatus = "PROCESSING"
	RunComplete   RunStatus = "COMPLETE"
	RunFailed     RunStatus = "FAILED"
)

// LeaderboardDefinition is static configuration for one leaderboard key.
type LeaderboardDefinition struct {
	Key               string
	Name              string
	Description       string
	MetricSource      string
	MetricKey         string
	FallbackMetricKey string
	TimeWindow        TimeWindow
	CategoryKey       string
	IsActive          bool
}

// LeaderboardRun is one versioned materialization of ranked entries. Run
// rows are append-only; readers consider only the latest COMPLETE run per
// key as current.
type LeaderboardRun struct {
	ID             string
	LeaderboardKey string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Status         RunStatus
	RowCount       int
	GeneratedAt    time.Time
}

// LeaderboardEntry is one ranked row tied to a specific run. Rank is a
// dense 1..N ordering by score descending.
type LeaderboardEntry struct {
	RunID      string
	ClusterKey string
	Rank       int
	Score      float64
	Tiebreaker string
}
