// Package season weights lifetime challenge progress into season points
// and levels.
package season

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/questforge/internal/adapters/repository"
	"github.com/okian/questforge/internal/domain/model"
	"github.com/okian/questforge/pkg/logger"
	"github.com/okian/questforge/pkg/metrics"
)

// Service computes and persists per-cluster season standings.
type Service struct {
	seasons  repository.SeasonStore
	progress repository.ProgressStore
	logger   logger.Logger
	divisor  int
	now      func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLevelDivisor overrides the points-per-level divisor.
func WithLevelDivisor(d int) Option {
	return func(s *Service) {
		if d > 0 {
			s.divisor = d
		}
	}
}

// WithClock sets the time source.
func WithClock(c func() time.Time) Option {
	return func(s *Service) {
		if c != nil {
			s.now = c
		}
	}
}

// New creates a season points service.
func New(seasons repository.SeasonStore, progress repository.ProgressStore, opts ...Option) *Service {
	s := &Service{
		seasons:  seasons,
		progress: progress,
		divisor:  model.SeasonLevelDivisor,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("season")
	} else {
		s.logger = s.logger.Named("season")
	}
	return s
}

// ComputePoints sums weighted lifetime progress for the cluster, derives
// the level and upserts the standing. A season with no configured weights
// yields a zero standing, not an error.
func (s *Service) ComputePoints(ctx context.Context, clusterKey string, seasonID int64) (model.SeasonProgress, error) {
	weights, err := s.seasons.SeasonWeights(ctx, seasonID)
	if err != nil {
		return model.SeasonProgress{}, fmt.Errorf("season weights: %w", err)
	}

	points := 0.0
	if len(weights) > 0 {
		rows, err := s.progress.ListProgressByCluster(ctx, clusterKey)
		if err != nil {
			return model.SeasonProgress{}, fmt.Errorf("cluster progress: %w", err)
		}
		values := make(map[string]float64, len(rows))
		for _, r := range rows {
			values[r.ChallengeKey] = r.CurrentValue
		}
		for _, w := range weights {
			points += values[w.ChallengeCode] * w.Weight
		}
	}

	standing := model.SeasonProgress{
		SeasonID:   seasonID,
		ClusterKey: clusterKey,
		Points:     points,
		Level:      int(math.Floor(points / float64(s.divisor))),
		UpdatedAt:  s.now(),
	}
	if err := s.seasons.UpsertSeasonProgress(ctx, standing); err != nil {
		return model.SeasonProgress{}, fmt.Errorf("upsert standing: %w", err)
	}
	metrics.RecordSeasonComputation()
	return standing, nil
}

// ComputeActiveSeason resolves the active season and computes the
// cluster's standing in it.
func (s *Service) ComputeActiveSeason(ctx context.Context, clusterKey string) (model.SeasonProgress, error) {
	season, err := s.seasons.ActiveSeason(ctx)
	if err != nil {
		return model.SeasonProgress{}, fmt.Errorf("active season: %w", err)
	}
	return s.ComputePoints(ctx, clusterKey, season.ID)
}
