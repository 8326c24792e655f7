// Package kpi assembles cluster classification input from persisted
// pipeline output and runs tier classification over it.
package kpi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/questforge/internal/adapters/repository"
	"github.com/okian/questforge/internal/domain/tier"
	"github.com/okian/questforge/pkg/logger"
	"github.com/okian/questforge/pkg/metrics"
)

// activityWindow is the trailing period activity sub-scores aggregate over.
const activityWindow = 30 * 24 * time.Hour

// Service builds KPI snapshots and classifies clusters.
type Service struct {
	store  repository.SnapshotStore
	logger logger.Logger
	now    func() time.Time
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

// WithClock sets the time source.
func WithClock(c func() time.Time) Option {
	return func(s *Service) {
		if c != nil {
			s.now = c
		}
	}
}

// New creates a KPI service.
func New(store repository.SnapshotStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("kpi")
	} else {
		s.logger = s.logger.Named("kpi")
	}
	return s
}

// Build assembles the classification input for a cluster from persisted
// power snapshots, balance snapshots, activity rows and behavior records.
// Missing sources contribute zeroed sub-records rather than failing: a
// never-seen cluster classifies as COMMON.
func (s *Service) Build(ctx context.Context, clusterKey string) (tier.KpiSnapshot, error) {
	var k tier.KpiSnapshot

	power, err := s.store.LatestPowerSnapshot(ctx, clusterKey)
	switch {
	case err == nil:
		k.HeroPower = tier.HeroPower{
			CommonHeroes:    power.CommonHeroes,
			UncommonHeroes:  power.UncommonHeroes,
			RareHeroes:      power.RareHeroes,
			LegendaryHeroes: power.LegendaryHeroes,
			MythicHeroes:    power.MythicHeroes,
			TotalLevels:     power.TotalLevels,
		}
	case errors.Is(err, repository.ErrNotFound):
		// No power snapshot yet; hero power scores zero.
	default:
		return tier.KpiSnapshot{}, fmt.Errorf("power snapshot: %w", err)
	}

	balance, err := s.store.ClusterBalanceUSD(ctx, clusterKey)
	if err != nil {
		return tier.KpiSnapshot{}, fmt.Errorf("cluster balance: %w", err)
	}
	k.WalletValue = tier.WalletValue{NetWorthUSD: balance}

	now := s.now()
	activity, err := s.store.ClusterActivity(ctx, clusterKey, now.Add(-activityWindow), now)
	if err != nil {
		return tier.KpiSnapshot{}, fmt.Errorf("cluster activity: %w", err)
	}
	k.Activity = tier.Activity{
		ProfQuests30d: activity.Quests,
		Summons30d:    activity.Summons,
		DaysActive30d: activity.DaysActive,
	}

	record, err := s.store.LatestBehaviorRecord(ctx, clusterKey)
	switch {
	case err == nil:
		k.Activity.StaminaUtilization = record.StaminaUtilization
		k.AccountAge = tier.AccountAge{AgeDays: record.AccountAgeDays}
		k.Behavior = tier.Behavior{
			ReinvestRatio:   record.ReinvestRatio,
			NetHeroDelta30d: record.NetHeroDelta30d,
			HeavySeller:     record.HeavySeller,
		}
	case errors.Is(err, repository.ErrNotFound):
		// No behavior record yet; those sub-scores stay zero.
	default:
		return tier.KpiSnapshot{}, fmt.Errorf("behavior record: %w", err)
	}

	return k, nil
}

// Classify builds the KPI snapshot and computes the cluster's tier.
func (s *Service) Classify(ctx context.Context, clusterKey string) (tier.Result, error) {
	k, err := s.Build(ctx, clusterKey)
	if err != nil {
		return tier.Result{}, err
	}
	result := tier.Compute(k)
	metrics.RecordTierClass(result.Tier)
	return result, nil
}

// NotifyTierRecompute reclassifies a cluster best-effort: failures are
// logged, never propagated into the pipeline run.
func (s *Service) NotifyTierRecompute(ctx context.Context, clusterKey string) {
	result, err := s.Classify(ctx, clusterKey)
	if err != nil {
		s.logger.Warn(ctx, "tier recompute failed",
			logger.String("cluster", clusterKey),
			logger.Error(err),
		)
		return
	}
	s.logger.Info(ctx, "cluster reclassified",
		logger.String("cluster", clusterKey),
		logger.String("tier", result.Tier),
		logger.Float64("cps", result.CompositeScore),
	)
}
