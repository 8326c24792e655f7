// Package repository defines the persistence contracts for the ETL
// pipeline and its leaderboard readers.
//
// Two implementations exist: a Postgres store backed by pgxpool for
// production, and an in-memory store used by tests and local runs without
// a database. All writers use upsert-by-natural-key semantics so reruns
// converge idempotently.
package repository

import (
	"context"
	"time"

	"github.com/okian/questforge/internal/domain/model"
)

// ChallengeCatalog reads the static challenge configuration.
type ChallengeCatalog interface {
	// ListActiveChallenges returns every active challenge definition with
	// its tiers, sorted by key.
	ListActiveChallenges(ctx context.Context) ([]model.ChallengeDefinition, error)
}

// ProgressSumQuery selects lifetime progress rows for leaderboard
// aggregation. FallbackMetricKey is tried for challenges whose primary key
// matched nothing.
type ProgressSumQuery struct {
	MetricSource      string
	MetricKey         string
	FallbackMetricKey string
	From              time.Time
	To                time.Time
}

// ProgressStore persists lifetime challenge progress.
type ProgressStore interface {
	// GetProgress returns the lifetime row for (playerID, challengeKey).
	// Returns ErrNotFound when the identity has never scored the challenge.
	GetProgress(ctx context.Context, playerID, challengeKey string) (model.ChallengeProgress, error)

	// UpsertProgress writes a lifetime row keyed by (playerID, challengeKey).
	UpsertProgress(ctx context.Context, p model.ChallengeProgress) error

	// ListProgressByCluster returns all lifetime rows attributed to a cluster.
	ListProgressByCluster(ctx context.Context, clusterKey string) ([]model.ChallengeProgress, error)

	// SetFoundersMark permanently flags (playerID, challengeKey). Setting an
	// already-set mark is a no-op.
	SetFoundersMark(ctx context.Context, playerID, challengeKey string, at time.Time) error

	// FoundersMarkKeys returns the challenge keys a cluster has ever earned
	// the Founder's Mark in.
	FoundersMarkKeys(ctx context.Context, clusterKey string) ([]string, error)

	// SumByMetricPerCluster sums matching progress values per cluster for
	// rows whose challenge metric matches the query and whose last update
	// falls inside [From, To].
	SumByMetricPerCluster(ctx context.Context, q ProgressSumQuery) (map[string]float64, error)
}

// WindowStore persists rolling-window progress.
type WindowStore interface {
	// UpsertWindowed writes a row keyed by (clusterKey, challengeKey, windowKey).
	UpsertWindowed(ctx context.Context, w model.WindowedProgress) error

	// GetWindowed returns the current windowed row, or ErrNotFound.
	GetWindowed(ctx context.Context, clusterKey, challengeKey, windowKey string) (model.WindowedProgress, error)
}

// EventStore reads the discrete event logs produced by the chain reader.
type EventStore interface {
	// HuntEventsInWindow returns hunt events with OccurredAt in [from, to].
	HuntEventsInWindow(ctx context.Context, clusterKey string, from, to time.Time) ([]model.HuntEvent, error)

	// PvPEventsInWindow returns PvP events with OccurredAt in [from, to],
	// ordered by occurrence time ascending.
	PvPEventsInWindow(ctx context.Context, clusterKey string, from, to time.Time) ([]model.PvPEvent, error)
}

// SnapshotStore persists point-in-time records written by full batch runs.
type SnapshotStore interface {
	// InsertPowerSnapshot writes an immutable power record. A duplicate
	// (clusterKey, day) insert returns ErrDuplicate.
	InsertPowerSnapshot(ctx context.Context, s model.PowerSnapshot) error

	// InsertBalanceSnapshot writes an immutable balance record. A duplicate
	// (walletAddress, day) insert returns ErrDuplicate.
	InsertBalanceSnapshot(ctx context.Context, s model.BalanceSnapshot) error

	// RecordWalletActivity upserts the activity row for (walletAddress, day).
	RecordWalletActivity(ctx context.Context, a model.WalletActivity) error

	// InsertTransferAggregate writes a transfer rollup. A duplicate
	// (clusterKey, day) insert returns ErrDuplicate.
	InsertTransferAggregate(ctx context.Context, t model.TransferAggregate) error

	// UpsertBehaviorRecord writes the latest behavior profile for a cluster.
	UpsertBehaviorRecord(ctx context.Context, b model.BehaviorRecord) error

	// LatestPowerSnapshot returns the most recent power record for a
	// cluster, or ErrNotFound.
	LatestPowerSnapshot(ctx context.Context, clusterKey string) (model.PowerSnapshot, error)

	// LatestBehaviorRecord returns the most recent behavior profile for a
	// cluster, or ErrNotFound.
	LatestBehaviorRecord(ctx context.Context, clusterKey string) (model.BehaviorRecord, error)

	// ClusterBalanceUSD sums the latest balance snapshot across the
	// cluster's wallets.
	ClusterBalanceUSD(ctx context.Context, clusterKey string) (float64, error)

	// ClusterActivity aggregates recorded wallet activity for a cluster
	// over [from, to].
	ClusterActivity(ctx context.Context, clusterKey string, from, to time.Time) (model.ClusterActivity, error)
}

// Linkage is one resolved wallet linkage row.
type Linkage struct {
	WalletAddress string
	UserID        string
	ClusterKey    string
	PlayerID      string
}

// LinkageStore reads the wallet/cluster linkage tables produced by the
// account-linking flows.
type LinkageStore interface {
	// ClusterForWallet looks up the direct wallet->cluster linkage table.
	// found is false when the wallet has no linkage row.
	ClusterForWallet(ctx context.Context, wallet string) (link Linkage, found bool, err error)

	// LegacySignup looks up the legacy signup table fallback.
	LegacySignup(ctx context.Context, wallet string) (link Linkage, found bool, err error)

	// WalletsForCluster returns every member wallet of a cluster.
	WalletsForCluster(ctx context.Context, clusterKey string) ([]string, error)

	// ListTrackedWallets returns every wallet known to either linkage
	// table, the roster batch runs iterate over.
	ListTrackedWallets(ctx context.Context) ([]string, error)
}

// SeasonStore persists season configuration and standings.
type SeasonStore interface {
	// ActiveSeason returns the currently active season, or ErrNotFound.
	ActiveSeason(ctx context.Context) (model.Season, error)

	// SeasonWeights returns the configured weights for a season. An empty
	// slice is a valid configuration, not an error.
	SeasonWeights(ctx context.Context, seasonID int64) ([]model.SeasonWeight, error)

	// UpsertSeasonProgress writes a standing keyed by (seasonID, clusterKey).
	UpsertSeasonProgress(ctx context.Context, p model.SeasonProgress) error

	// GetSeasonProgress returns a standing, or ErrNotFound.
	GetSeasonProgress(ctx context.Context, seasonID int64, clusterKey string) (model.SeasonProgress, error)
}

// LeaderboardStore persists leaderboard configuration, runs and entries.
type LeaderboardStore interface {
	// Definition returns the definition for key, or ErrNotFound.
	Definition(ctx context.Context, key string) (model.LeaderboardDefinition, error)

	// ListActiveDefinitions returns every active leaderboard definition.
	ListActiveDefinitions(ctx context.Context) ([]model.LeaderboardDefinition, error)

	// InsertRun creates a new run row, normally in PROCESSING state.
	InsertRun(ctx context.Context, run model.LeaderboardRun) error

	// FinalizeRun transitions a run to COMPLETE or FAILED with its row count.
	FinalizeRun(ctx context.Context, runID string, status model.RunStatus, rowCount int) error

	// InsertEntries bulk-inserts ranked entries for a run.
	InsertEntries(ctx context.Context, entries []model.LeaderboardEntry) error

	// LatestCompleteRun returns the most recent COMPLETE run for key, or
	// ErrNotFound when no run has ever completed.
	LatestCompleteRun(ctx context.Context, key string) (model.LeaderboardRun, error)

	// EntriesForRun returns a run's entries ordered by rank, capped at limit.
	EntriesForRun(ctx context.Context, runID string, limit int) ([]model.LeaderboardEntry, error)

	// EntryForCluster returns one cluster's entry in a run, or ErrNotFound.
	EntryForCluster(ctx context.Context, runID, clusterKey string) (model.LeaderboardEntry, error)
}

// Store bundles every persistence contract the pipeline needs.
type Store interface {
	ChallengeCatalog
	ProgressStore
	WindowStore
	EventStore
	SnapshotStore
	LinkageStore
	SeasonStore
	LeaderboardStore
}
