package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/questforge/internal/adapters/repository"
	"github.com/okian/questforge/internal/domain/behavior"
	"github.com/okian/questforge/internal/domain/metric"
	"github.com/okian/questforge/internal/domain/model"
	"github.com/okian/questforge/pkg/logger"
	"github.com/okian/questforge/pkg/metrics"
)

// LifetimeLoader writes lifetime challenge progress with a monotonic
// highest-tier marker.
type LifetimeLoader struct {
	catalog  repository.ChallengeCatalog
	store    repository.ProgressStore
	registry *metric.Registry
	logger   logger.Logger
	now      clock
}

// LifetimeOption applies a configuration option to the LifetimeLoader.
type LifetimeOption func(*LifetimeLoader)

// WithLifetimeLogger sets a custom logger.
func WithLifetimeLogger(l logger.Logger) LifetimeOption {
	return func(ld *LifetimeLoader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithLifetimeClock sets the time source.
func WithLifetimeClock(c func() time.Time) LifetimeOption {
	return func(ld *LifetimeLoader) {
		if c != nil {
			ld.now = c
		}
	}
}

// NewLifetimeLoader creates a lifetime progress loader.
func NewLifetimeLoader(catalog repository.ChallengeCatalog, store repository.ProgressStore, registry *metric.Registry, opts ...LifetimeOption) *LifetimeLoader {
	ld := &LifetimeLoader{
		catalog:  catalog,
		store:    store,
		registry: registry,
		now:      defaultClock,
	}
	for _, opt := range opts {
		opt(ld)
	}
	ld.logger = namedLogger(ld.logger, "lifetime")
	return ld
}

// Load computes and upserts lifetime progress for every active challenge.
// Requires a resolved identity; the caller guards that.
func (ld *LifetimeLoader) Load(ctx context.Context, wc model.WalletContext, snap *model.Snapshot, bm behavior.Metrics) (Result, error) {
	defs, err := ld.catalog.ListActiveChallenges(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list challenges: %w", err)
	}

	var res Result
	now := ld.now()
	for i := range defs {
		def := &defs[i]
		extractor, err := ld.registry.Resolve(def.MetricSource, def.MetricKey)
		if err != nil {
			// Skip, never score as zero: a phantom zero would corrupt the
			// monotonic tier marker.
			ld.logger.Warn(ctx, "metric not registered, skipping challenge",
				logger.String("challenge", def.Key),
				logger.String("source", def.MetricSource),
				logger.String("key", def.MetricKey),
			)
			metrics.RecordChallengeSkipped()
			res.Skipped++
			continue
		}
		value := extractor(snap, bm)

		if err := ld.apply(ctx, wc, def, value, now); err != nil {
			return res, fmt.Errorf("challenge %s: %w", def.Key, err)
		}
		res.Processed++
	}
	return res, nil
}

func (ld *LifetimeLoader) apply(ctx context.Context, wc model.WalletContext, def *model.ChallengeDefinition, value float64, now time.Time) error {
	prev, err := ld.store.GetProgress(ctx, wc.PlayerID, def.Key)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	candidate := def.TierForValue(value)

	next := model.ChallengeProgress{
		PlayerID:             wc.PlayerID,
		ClusterKey:           wc.ClusterKey,
		ChallengeKey:         def.Key,
		CurrentValue:         value,
		HighestTierAchieved:  prev.HighestTierAchieved,
		AchievedAt:           prev.AchievedAt,
		FoundersMarkAchieved: prev.FoundersMarkAchieved,
		FoundersMarkAt:       prev.FoundersMarkAt,
		UpdatedAt:            now,
	}

	// The marker only moves up: a lower or absent candidate preserves the
	// stored tier.
	if candidate != nil && tierAbove(def, candidate.TierCode, prev.HighestTierAchieved) {
		next.HighestTierAchieved = candidate.TierCode
		next.AchievedAt = now
	}

	if top := def.TopTier(); top != nil && candidate != nil &&
		candidate.TierCode == top.TierCode && !next.FoundersMarkAchieved {
		next.FoundersMarkAchieved = true
		next.FoundersMarkAt = now
		metrics.RecordFoundersMark()
		ld.logger.Info(ctx, "founder's mark earned",
			logger.String("player", wc.PlayerID),
			logger.String("challenge", def.Key),
		)
	}

	return ld.store.UpsertProgress(ctx, next)
}

// tierAbove reports whether tier code a outranks b within def. An empty b
// is always outranked.
func tierAbove(def *model.ChallengeDefinition, a, b string) bool {
	if b == "" {
		return true
	}
	return tierSort(def, a) > tierSort(def, b)
}

func tierSort(def *model.ChallengeDefinition, code string) int {
	for i := range def.Tiers {
		if def.Tiers[i].TierCode == code {
			return def.Tiers[i].SortOrder
		}
	}
	return -1
}
