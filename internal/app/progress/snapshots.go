package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/questforge/internal/adapters/repository"
	"github.com/okian/questforge/internal/domain/behavior"
	"github.com/okian/questforge/internal/domain/model"
	"github.com/okian/questforge/pkg/logger"
)

// Power formula weights.
const (
	powerWeightHeroes  = 50.0
	powerWeightLevels  = 5.0
	powerWeightPets    = 30.0
	powerWeightGarden  = 0.1
	powerWeightBalance = 0.05
)

// SnapshotLoader writes immutable point-in-time records during full batch
// runs. Duplicate same-day writes are treated as already-done.
type SnapshotLoader struct {
	store  repository.SnapshotStore
	logger logger.Logger
	now    clock
}

// SnapshotOption applies a configuration option to the SnapshotLoader.
type SnapshotOption func(*SnapshotLoader)

// WithSnapshotLogger sets a custom logger.
func WithSnapshotLogger(l logger.Logger) SnapshotOption {
	return func(ld *SnapshotLoader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithSnapshotClock sets the time source.
func WithSnapshotClock(c func() time.Time) SnapshotOption {
	return func(ld *SnapshotLoader) {
		if c != nil {
			ld.now = c
		}
	}
}

// NewSnapshotLoader creates a snapshot loader.
func NewSnapshotLoader(store repository.SnapshotStore, opts ...SnapshotOption) *SnapshotLoader {
	ld := &SnapshotLoader{
		store: store,
		now:   defaultClock,
	}
	for _, opt := range opts {
		opt(ld)
	}
	ld.logger = namedLogger(ld.logger, "snapshots")
	return ld
}

// PowerValue computes the composite power score for a snapshot.
func PowerValue(snap *model.Snapshot) float64 {
	return powerWeightHeroes*float64(len(snap.Heroes)) +
		powerWeightLevels*float64(snap.TotalHeroLevels()) +
		powerWeightPets*float64(snap.Pets.Count) +
		powerWeightGarden*snap.GardenLPValueUSD() +
		powerWeightBalance*snap.Balances.NetWorthUSD
}

// Load writes the wallet balance record and, when a cluster resolved, the
// power and behavior records.
func (ld *SnapshotLoader) Load(ctx context.Context, wc model.WalletContext, snap *model.Snapshot, bm behavior.Metrics) error {
	now := ld.now()
	day := now.Truncate(24 * time.Hour)

	err := ld.store.InsertBalanceSnapshot(ctx, model.BalanceSnapshot{
		WalletAddress: wc.WalletAddress,
		Day:           day,
		NetWorthUSD:   snap.Balances.NetWorthUSD,
		GoldUSD:       snap.Balances.GoldUSD,
		PowerTokenUSD: snap.Balances.PowerTokenUSD,
		CreatedAt:     now,
	})
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("balance snapshot: %w", err)
	}

	if !wc.HasCluster() {
		ld.logger.Warn(ctx, "no cluster resolved, skipping power snapshot",
			logger.String("wallet", wc.WalletAddress),
		)
		return nil
	}

	err = ld.store.InsertPowerSnapshot(ctx, model.PowerSnapshot{
		ClusterKey:      wc.ClusterKey,
		Day:             day,
		HeroCount:       len(snap.Heroes),
		CommonHeroes:    snap.HeroCountByRarity(model.RarityCommon),
		UncommonHeroes:  snap.HeroCountByRarity(model.RarityUncommon),
		RareHeroes:      snap.HeroCountByRarity(model.RarityRare),
		LegendaryHeroes: snap.HeroCountByRarity(model.RarityLegendary),
		MythicHeroes:    snap.HeroCountByRarity(model.RarityMythic),
		TotalLevels:     snap.TotalHeroLevels(),
		PetCount:        snap.Pets.Count,
		GardenLPUSD:     snap.GardenLPValueUSD(),
		BalanceUSD:      snap.Balances.NetWorthUSD,
		PowerValue:      PowerValue(snap),
		CreatedAt:       now,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		ld.logger.Debug(ctx, "power snapshot already written today",
			logger.String("cluster", wc.ClusterKey),
		)
	} else if err != nil {
		return fmt.Errorf("power snapshot: %w", err)
	}

	if err := ld.store.UpsertBehaviorRecord(ctx, model.BehaviorRecord{
		ClusterKey:         wc.ClusterKey,
		ReinvestRatio:      bm.ReinvestRatio,
		NetHeroDelta30d:    bm.NetHeroDelta30d,
		HeavySeller:        bm.HeavySeller,
		StaminaUtilization: bm.StaminaEfficiency,
		AccountAgeDays:     snap.AccountAgeDays,
		RecordedAt:         now,
	}); err != nil {
		return fmt.Errorf("behavior record: %w", err)
	}
	return nil
}

// RecordActivity upserts the wallet's activity row for today.
func (ld *SnapshotLoader) RecordActivity(ctx context.Context, wc model.WalletContext, snap *model.Snapshot) error {
	now := ld.now()
	return ld.store.RecordWalletActivity(ctx, model.WalletActivity{
		WalletAddress: wc.WalletAddress,
		Day:           now.Truncate(24 * time.Hour),
		QuestsDone:    snap.Quests.ProfQuests30d,
		SummonsDone:   snap.Summons.Last30d,
		SeenAt:        now,
	})
}

// RecordTransfers writes the day's transfer rollup for the cluster.
func (ld *SnapshotLoader) RecordTransfers(ctx context.Context, wc model.WalletContext, snap *model.Snapshot) error {
	if !wc.HasCluster() {
		ld.logger.Warn(ctx, "no cluster resolved, skipping transfer aggregate",
			logger.String("wallet", wc.WalletAddress),
		)
		return nil
	}
	now := ld.now()
	err := ld.store.InsertTransferAggregate(ctx, model.TransferAggregate{
		ClusterKey: wc.ClusterKey,
		Day:        now.Truncate(24 * time.Hour),
		InUSD:      snap.Economy.EarnedUSD30d,
		OutUSD:     snap.Economy.SoldUSD30d,
		CreatedAt:  now,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	return err
}
