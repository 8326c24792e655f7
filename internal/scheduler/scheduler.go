// Package scheduler drives the recurring ETL runs: an interval-based
// incremental pass and a once-a-day snapshot pass at a fixed UTC time.
// Both feed through the orchestrator's single-flight gate, so an
// overlapping trigger is skipped rather than queued.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/okian/questforge/internal/app/etl"
	"github.com/okian/questforge/pkg/logger"
)

const defaultIncrementalInterval = 15 * time.Minute

// Runner executes the two batch run modes. Satisfied by the app
// service and by the orchestrator itself.
type Runner interface {
	RunIncremental(ctx context.Context) (etl.BatchResult, error)
	RunDailySnapshot(ctx context.Context) (etl.BatchResult, error)
}

// Scheduler owns the background timers for batch ETL runs.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	dailyAt  time.Duration // offset from midnight UTC
	logger   logger.Logger
	now      func() time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
	once   sync.Once
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithInterval sets the incremental run interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithDailyAt sets the daily snapshot run time as an offset from
// midnight UTC.
func WithDailyAt(offset time.Duration) Option {
	return func(s *Scheduler) {
		if offset >= 0 && offset < 24*time.Hour {
			s.dailyAt = offset
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source.
func WithClock(c func() time.Time) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.now = c
		}
	}
}

// New creates a scheduler around the runner.
func New(runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:   runner,
		interval: defaultIncrementalInterval,
		dailyAt:  2 * time.Hour,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("scheduler")
	} else {
		s.logger = s.logger.Named("scheduler")
	}
	return s
}

// Start launches the background loops. Runs until the context is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.incrementalLoop(ctx)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dailyLoop(ctx)
	}()

	s.logger.Info(ctx, "scheduler started",
		logger.Duration("interval", s.interval),
		logger.Duration("daily_at", s.dailyAt),
	)
}

// Stop cancels the loops and waits for them to drain.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
	})
}

func (s *Scheduler) incrementalLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if res, err := s.runner.RunIncremental(ctx); err != nil {
				s.logger.Error(ctx, "incremental run failed", logger.Error(err))
			} else if !res.Skipped {
				s.logger.Info(ctx, "incremental run complete",
					logger.Int("processed", res.Processed),
					logger.Int("failed", res.Failed),
				)
			}
		}
	}
}

func (s *Scheduler) dailyLoop(ctx context.Context) {
	for {
		wait := s.untilNextDaily()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if res, err := s.runner.RunDailySnapshot(ctx); err != nil {
				s.logger.Error(ctx, "daily snapshot run failed", logger.Error(err))
			} else if !res.Skipped {
				s.logger.Info(ctx, "daily snapshot run complete",
					logger.Int("processed", res.Processed),
					logger.Int("failed", res.Failed),
				)
			}
		}
	}
}

// untilNextDaily returns the duration until the next daily run mark,
// always in the future.
func (s *Scheduler) untilNextDaily() time.Duration {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	next := midnight.Add(s.dailyAt)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
