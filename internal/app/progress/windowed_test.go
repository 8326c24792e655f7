package progress

import (
	"context"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/questforge/internal/adapters/repository"
	"github.com/okian/questforge/internal/domain/behavior"
	"github.com/okian/questforge/internal/domain/metric"
	"github.com/okian/questforge/internal/domain/model"
)

func TestWindowedLoad(t *testing.T) {
	convey.Convey("Given a windowed loader over a seeded store", t, func() {
		ctx := context.Background()
		now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
		store := repository.NewMemoryStore()
		store.SeedChallenges([]model.ChallengeDefinition{
			{
				Key:          "boss_slayer",
				MetricSource: model.SourceHuntEvents,
				MetricKey:    "boss_kills",
				IsActive:     true,
				Tiers: []model.ChallengeTier{
					{TierCode: "BRONZE", ThresholdValue: 2, SortOrder: 1},
					{TierCode: "GOLD", ThresholdValue: 10, SortOrder: 2},
				},
			},
			{
				Key:          "arena_champion",
				MetricSource: model.SourcePvPEvents,
				MetricKey:    "win_streak",
				IsActive:     true,
				Tiers: []model.ChallengeTier{
					{TierCode: "BRONZE", ThresholdValue: 3, SortOrder: 1},
				},
			},
			{
				Key:          "veteran",
				MetricSource: model.SourceHeroes,
				MetricKey:    "hero_count",
				CategoryKey:  "prestige",
				IsActive:     true,
				Tiers:        []model.ChallengeTier{{TierCode: "GOLD", ThresholdValue: 1, SortOrder: 1}},
			},
		})
		store.SeedHuntEvents(
			model.HuntEvent{ClusterKey: "c1", Kind: model.HuntKindBoss, Count: 3, OccurredAt: now.Add(-24 * time.Hour)},
			model.HuntEvent{ClusterKey: "c1", Kind: model.HuntKindKill, Count: 50, OccurredAt: now.Add(-24 * time.Hour)},
			model.HuntEvent{ClusterKey: "c1", Kind: model.HuntKindBoss, Count: 9, OccurredAt: now.Add(-200 * 24 * time.Hour)},
		)
		store.SeedPvPEvents(
			model.PvPEvent{ClusterKey: "c1", Outcome: model.PvPWin, OccurredAt: now.Add(-3 * time.Hour)},
			model.PvPEvent{ClusterKey: "c1", Outcome: model.PvPWin, OccurredAt: now.Add(-2 * time.Hour)},
			model.PvPEvent{ClusterKey: "c1", Outcome: model.PvPLoss, OccurredAt: now.Add(-1 * time.Hour)},
		)

		loader := NewWindowedLoader(store, store, store, store, metric.NewRegistry(),
			WithWindowedClock(func() time.Time { return now }),
		)
		wc := model.WalletContext{WalletAddress: "0xabc", PlayerID: "p1", ClusterKey: "c1"}
		snap := &model.Snapshot{Heroes: heroesOfRarity(model.RarityCommon, 5)}

		convey.Convey("When loading windowed progress", func() {
			res, err := loader.Load(ctx, wc, snap, behavior.Metrics{})

			convey.Convey("Then event-backed values should count only in-window events", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Processed, convey.ShouldEqual, 2)

				row, err := store.GetWindowed(ctx, "c1", "boss_slayer", model.WindowKey180d)
				convey.So(err, convey.ShouldBeNil)
				convey.So(row.Value, convey.ShouldEqual, 3)
				convey.So(row.TierCode, convey.ShouldEqual, "BRONZE")
			})

			convey.Convey("Then the win streak should break on a loss", func() {
				row, err := store.GetWindowed(ctx, "c1", "arena_champion", model.WindowKey180d)
				convey.So(err, convey.ShouldBeNil)
				convey.So(row.Value, convey.ShouldEqual, 2)
				convey.So(row.TierCode, convey.ShouldBeEmpty)
			})

			convey.Convey("Then prestige challenges should be excluded", func() {
				_, err := store.GetWindowed(ctx, "c1", "veteran", model.WindowKey180d)
				convey.So(err, convey.ShouldEqual, repository.ErrNotFound)
			})
		})

		convey.Convey("When a quiet window follows a busy one", func() {
			_, err := loader.Load(ctx, wc, snap, behavior.Metrics{})
			convey.So(err, convey.ShouldBeNil)

			later := now.Add(190 * 24 * time.Hour)
			lateLoader := NewWindowedLoader(store, store, store, store, metric.NewRegistry(),
				WithWindowedClock(func() time.Time { return later }),
			)
			_, err = lateLoader.Load(ctx, wc, snap, behavior.Metrics{})

			convey.Convey("Then the windowed value should legitimately decrease", func() {
				convey.So(err, convey.ShouldBeNil)
				row, err := store.GetWindowed(ctx, "c1", "boss_slayer", model.WindowKey180d)
				convey.So(err, convey.ShouldBeNil)
				convey.So(row.Value, convey.ShouldEqual, 0)
				convey.So(row.TierCode, convey.ShouldBeEmpty)
			})
		})
	})
}

func TestWindowedFoundersMark(t *testing.T) {
	convey.Convey("Given a cluster that tops an event-backed challenge in-window", t, func() {
		ctx := context.Background()
		now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
		store := repository.NewMemoryStore()
		store.SeedChallenges([]model.ChallengeDefinition{
			{
				Key:          "boss_slayer",
				MetricSource: model.SourceHuntEvents,
				MetricKey:    "boss_kills",
				IsActive:     true,
				Tiers:        []model.ChallengeTier{{TierCode: "GOLD", ThresholdValue: 5, SortOrder: 1}},
			},
		})
		store.SeedHuntEvents(
			model.HuntEvent{ClusterKey: "c1", Kind: model.HuntKindBoss, Count: 7, OccurredAt: now.Add(-time.Hour)},
		)
		loader := NewWindowedLoader(store, store, store, store, metric.NewRegistry(),
			WithWindowedClock(func() time.Time { return now }),
		)
		wc := model.WalletContext{WalletAddress: "0xabc", PlayerID: "p1", ClusterKey: "c1"}

		convey.Convey("When loading with no prior lifetime row", func() {
			_, err := loader.Load(ctx, wc, &model.Snapshot{}, behavior.Metrics{})

			convey.Convey("Then the founder's mark row should be created", func() {
				convey.So(err, convey.ShouldBeNil)
				p, err := store.GetProgress(ctx, "p1", "boss_slayer")
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.FoundersMarkAchieved, convey.ShouldBeTrue)
				convey.So(p.FoundersMarkAt, convey.ShouldResemble, now)
			})
		})
	})
}
