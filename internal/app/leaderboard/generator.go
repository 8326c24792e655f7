// Package leaderboard generates versioned leaderboard runs from persisted
// progress and serves their read side.
//
// Conventions:
// - A run row is created in PROCESSING state before any aggregation, and
//   is finalized to COMPLETE or FAILED exactly once. A caught failure never
//   leaves a run in PROCESSING.
// - Readers only consider the latest COMPLETE run per key.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/questforge/internal/adapters/repository"
	"github.com/okian/questforge/internal/domain/model"
	"github.com/okian/questforge/pkg/logger"
	"github.com/okian/questforge/pkg/metrics"
)

// DefaultMaxEntries caps a run's entry count unless overridden.
const DefaultMaxEntries = 1000

// Generator materializes ranked runs.
type Generator struct {
	defs       repository.LeaderboardStore
	progress   repository.ProgressStore
	logger     logger.Logger
	maxEntries int
	now        func() time.Time
	newRunID   func() string
}

// GeneratorOption applies a configuration option to the Generator.
type GeneratorOption func(*Generator)

// WithGeneratorLogger sets a custom logger.
func WithGeneratorLogger(l logger.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMaxEntries overrides the default entry cap.
func WithMaxEntries(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.maxEntries = n
		}
	}
}

// WithGeneratorClock sets the time source.
func WithGeneratorClock(c func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if c != nil {
			g.now = c
		}
	}
}

// NewGenerator creates a leaderboard generator.
func NewGenerator(defs repository.LeaderboardStore, progress repository.ProgressStore, opts ...GeneratorOption) *Generator {
	g := &Generator{
		defs:       defs,
		progress:   progress,
		maxEntries: DefaultMaxEntries,
		now:        func() time.Time { return time.Now().UTC() },
		newRunID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logger.Get().Named("leaderboard")
	} else {
		g.logger = g.logger.Named("leaderboard")
	}
	return g
}

// Options tunes one generation invocation. Zero period bounds derive the
// period from the definition's time-window class.
type Options struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	MaxEntries  int
}

// RunSummary reports a finished generation.
type RunSummary struct {
	RunID    string
	RowCount int
	Status   model.RunStatus
}

// Generate materializes one run for the leaderboard key.
func (g *Generator) Generate(ctx context.Context, key string, opts Options) (RunSummary, error) {
	def, err := g.defs.Definition(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return RunSummary{}, fmt.Errorf("%w: %s", ErrUnknownLeaderboard, key)
		}
		return RunSummary{}, fmt.Errorf("definition %s: %w", key, err)
	}
	if !def.IsActive {
		return RunSummary{}, fmt.Errorf("%w: %s", ErrInactiveLeaderboard, key)
	}

	now := g.now()
	start, end := opts.PeriodStart, opts.PeriodEnd
	if start.IsZero() || end.IsZero() {
		start, end = DerivePeriod(def.TimeWindow, now)
	}
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = g.maxEntries
	}

	run := model.LeaderboardRun{
		ID:             g.newRunID(),
		LeaderboardKey: key,
		PeriodStart:    start,
		PeriodEnd:      end,
		Status:         model.RunProcessing,
		GeneratedAt:    now,
	}
	if err := g.defs.InsertRun(ctx, run); err != nil {
		return RunSummary{}, fmt.Errorf("insert run: %w", err)
	}

	rowCount, err := g.aggregate(ctx, &def, run, maxEntries)
	if err != nil {
		// Finalize before propagating so the run never stays PROCESSING
		// past a caught failure.
		if finErr := g.defs.FinalizeRun(ctx, run.ID, model.RunFailed, 0); finErr != nil {
			g.logger.Error(ctx, "failed to finalize failed run",
				logger.String("run", run.ID),
				logger.Error(finErr),
			)
		}
		metrics.RecordLeaderboardRun(string(model.RunFailed))
		return RunSummary{RunID: run.ID, Status: model.RunFailed}, err
	}

	if err := g.defs.FinalizeRun(ctx, run.ID, model.RunComplete, rowCount); err != nil {
		return RunSummary{RunID: run.ID, Status: model.RunProcessing}, fmt.Errorf("finalize run: %w", err)
	}
	metrics.RecordLeaderboardRun(string(model.RunComplete))
	g.logger.Info(ctx, "leaderboard run complete",
		logger.String("key", key),
		logger.String("run", run.ID),
		logger.Int("rows", rowCount),
	)
	return RunSummary{RunID: run.ID, RowCount: rowCount, Status: model.RunComplete}, nil
}

func (g *Generator) aggregate(ctx context.Context, def *model.LeaderboardDefinition, run model.LeaderboardRun, maxEntries int) (int, error) {
	sums, err := g.progress.SumByMetricPerCluster(ctx, repository.ProgressSumQuery{
		MetricSource:      def.MetricSource,
		MetricKey:         def.MetricKey,
		FallbackMetricKey: def.FallbackMetricKey,
		From:              run.PeriodStart,
		To:                run.PeriodEnd,
	})
	if err != nil {
		return 0, fmt.Errorf("aggregate progress: %w", err)
	}

	type scored struct {
		cluster string
		score   float64
	}
	ranked := make([]scored, 0, len(sums))
	for cluster, sum := range sums {
		if sum > 0 {
			ranked = append(ranked, scored{cluster: cluster, score: sum})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].cluster < ranked[j].cluster
	})
	if len(ranked) > maxEntries {
		ranked = ranked[:maxEntries]
	}

	entries := make([]model.LeaderboardEntry, len(ranked))
	for i, r := range ranked {
		entries[i] = model.LeaderboardEntry{
			RunID:      run.ID,
			ClusterKey: r.cluster,
			Rank:       i + 1,
			Score:      r.score,
			Tiebreaker: r.cluster,
		}
	}
	if err := g.defs.InsertEntries(ctx, entries); err != nil {
		return 0, fmt.Errorf("insert entries: %w", err)
	}
	return len(entries), nil
}
