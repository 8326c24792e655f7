// Package app wires the ETL pipeline, classification services, and read
// surface into one service that implements the dependencies required by
// the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/questforge/internal/adapters/repository"
	"github.com/okian/questforge/internal/app/etl"
	"github.com/okian/questforge/internal/app/kpi"
	"github.com/okian/questforge/internal/app/leaderboard"
	"github.com/okian/questforge/internal/app/progress"
	"github.com/okian/questforge/internal/app/season"
	"github.com/okian/questforge/internal/domain/metric"
	"github.com/okian/questforge/pkg/logger"
	"github.com/okian/questforge/pkg/metrics"
)

// Service bundles the pipeline components behind one lifecycle.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	source    etl.SnapshotSource
	registry  *metric.Registry
	orch      *etl.Orchestrator
	generator *leaderboard.Generator
	reader    *leaderboard.Reader
	seasons   *season.Service
	kpi       *kpi.Service

	// Configuration
	windowLength time.Duration
	entryCap     int
	levelDivisor int
	flagPriority []string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the persistence backend. Defaults to the in-memory
// store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSnapshotSource sets the wallet snapshot source.
func WithSnapshotSource(source etl.SnapshotSource) Option {
	return func(s *Service) {
		if source != nil {
			s.source = source
		}
	}
}

// WithWindowLength sets the rolling-window length for windowed progress.
func WithWindowLength(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.windowLength = d
		}
	}
}

// WithEntryCap bounds rows per leaderboard run.
func WithEntryCap(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.entryCap = n
		}
	}
}

// WithLevelDivisor sets the season points-per-level divisor.
func WithLevelDivisor(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.levelDivisor = n
		}
	}
}

// WithFlagPriority sets the prestige flag priority list for leaderboard
// entries.
func WithFlagPriority(keys []string) Option {
	return func(s *Service) {
		if len(keys) > 0 {
			s.flagPriority = keys
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		windowLength: progress.DefaultWindow,
		entryCap:     leaderboard.DefaultMaxEntries,
		levelDivisor: 1000,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start validates the metric registry against the challenge catalog and
// assembles the pipeline. A catalog entry whose metric does not resolve
// fails startup.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.source == nil {
		return errors.New("snapshot source is required")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}

	s.logger.Info(ctx, "starting etl service...")

	s.registry = metric.NewRegistry()
	defs, err := s.store.ListActiveChallenges(ctx)
	if err != nil {
		return fmt.Errorf("load challenge catalog: %w", err)
	}
	if err := s.registry.Validate(defs); err != nil {
		return fmt.Errorf("challenge catalog validation: %w", err)
	}

	lifetime := progress.NewLifetimeLoader(s.store, s.store, s.registry,
		progress.WithLifetimeLogger(s.logger),
	)
	windowed := progress.NewWindowedLoader(s.store, s.store, s.store, s.store, s.registry,
		progress.WithWindowedLogger(s.logger),
		progress.WithWindowLength(s.windowLength),
	)
	snapshots := progress.NewSnapshotLoader(s.store,
		progress.WithSnapshotLogger(s.logger),
	)

	s.kpi = kpi.New(s.store, kpi.WithLogger(s.logger))
	s.seasons = season.New(s.store, s.store,
		season.WithLogger(s.logger),
		season.WithLevelDivisor(s.levelDivisor),
	)

	resolver := etl.NewResolver(s.store, s.logger)
	s.orch = etl.New(resolver, s.source, lifetime, windowed, snapshots, s.store,
		etl.WithLogger(s.logger),
		etl.WithTierNotifier(s),
	)

	s.generator = leaderboard.NewGenerator(s.store, s.store,
		leaderboard.WithGeneratorLogger(s.logger),
		leaderboard.WithMaxEntries(s.entryCap),
	)
	readerOpts := []leaderboard.ReaderOption{
		leaderboard.WithReaderMaxEntries(s.entryCap),
	}
	if len(s.flagPriority) > 0 {
		readerOpts = append(readerOpts, leaderboard.WithFlagPriority(s.flagPriority))
	}
	s.reader = leaderboard.NewReader(s.store, s.store, readerOpts...)

	s.started = true
	s.logger.Info(ctx, "etl service started",
		logger.Int("active_challenges", len(defs)),
		logger.Duration("window", s.windowLength),
	)
	return nil
}

// Stop releases the persistence backend.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping etl service...")
	if closer, ok := s.store.(interface{ Close() }); ok {
		closer.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "etl service stopped")
}

// Orchestrator exposes the pipeline driver for the scheduler.
func (s *Service) Orchestrator() *etl.Orchestrator {
	return s.orch
}

// NotifyTierRecompute reclassifies the cluster and refreshes its active
// season standing. Both are best-effort after a pipeline run.
func (s *Service) NotifyTierRecompute(ctx context.Context, clusterKey string) {
	s.kpi.NotifyTierRecompute(ctx, clusterKey)
	if _, err := s.seasons.ComputeActiveSeason(ctx, clusterKey); err != nil &&
		!errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn(ctx, "season recompute failed",
			logger.String("cluster", clusterKey),
			logger.Error(err),
		)
	}
}

// RunIncremental triggers an incremental batch run.
func (s *Service) RunIncremental(ctx context.Context) (etl.BatchResult, error) {
	return s.orch.RunIncremental(ctx)
}

// RunDailySnapshot triggers the full daily run and, when it actually ran,
// regenerates every active leaderboard.
func (s *Service) RunDailySnapshot(ctx context.Context) (etl.BatchResult, error) {
	res, err := s.orch.RunDailySnapshot(ctx)
	if err != nil || res.Skipped {
		return res, err
	}
	if err := s.GenerateLeaderboards(ctx); err != nil {
		s.logger.Error(ctx, "leaderboard regeneration failed", logger.Error(err))
	}
	return res, nil
}

// GenerateLeaderboards materializes one run per active definition. A
// failed key is reported but does not stop the rest.
func (s *Service) GenerateLeaderboards(ctx context.Context) error {
	defs, err := s.store.ListActiveDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("list definitions: %w", err)
	}
	var failed []string
	for _, def := range defs {
		if _, err := s.generator.Generate(ctx, def.Key, leaderboard.Options{}); err != nil {
			failed = append(failed, def.Key)
			s.logger.Error(ctx, "leaderboard generation failed",
				logger.String("key", def.Key),
				logger.Error(err),
			)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("generation failed for %d of %d leaderboards", len(failed), len(defs))
	}
	return nil
}

// View returns the latest complete leaderboard view for key.
func (s *Service) View(ctx context.Context, key string) (leaderboard.View, error) {
	return s.reader.View(ctx, key)
}

// MyRank returns one cluster's entry in the latest complete run for key.
func (s *Service) MyRank(ctx context.Context, key, clusterKey string) (leaderboard.Entry, error) {
	return s.reader.MyRank(ctx, key, clusterKey)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"window_days": int(s.windowLength.Hours() / 24),
		"entry_cap":   s.entryCap,
	}

	if s.started {
		stats["run_in_flight"] = s.orch.State().Running()
		if wallets, err := s.store.ListTrackedWallets(context.Background()); err == nil {
			stats["tracked_wallets"] = len(wallets)
			metrics.UpdateTrackedWallets(len(wallets))
		}
	}

	return stats
}
