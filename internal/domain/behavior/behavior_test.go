package behavior

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/questforge/internal/domain/model"
)

func TestDerive(t *testing.T) {
	convey.Convey("Given a snapshot with full activity", t, func() {
		snap := &model.Snapshot{
			Heroes: []model.Hero{
				{ID: "h1", Rarity: model.RarityRare, Level: 40},
				{ID: "h2", Rarity: model.RarityCommon, Level: 5},
			},
			Quests: model.QuestSummary{
				StreakDays:       12,
				DaysActive30d:    25,
				StaminaSpent30d:  4500,
				StaminaBudget30d: 9000,
			},
			Meditation: model.MeditationSummary{Sessions: 10, LevelsGained: 25},
			Pets:       model.PetSummary{Count: 2},
			Garden:     []model.GardenPosition{{PoolID: 1, LPValueUSD: 500}},
			PvP:        model.PvPSummary{Wins: 3, Losses: 1},
			Economy: model.EconomySummary{
				EarnedUSD30d:     1000,
				SoldUSD30d:       100,
				ReinvestedUSD30d: 600,
				HeroesBought30d:  4,
				HeroesSold30d:    1,
			},
		}

		convey.Convey("When deriving behavioral metrics", func() {
			m := Derive(snap)

			convey.Convey("Then ratios should reflect the snapshot", func() {
				convey.So(m.QuestStreakDays, convey.ShouldEqual, 12)
				convey.So(m.DaysActive30d, convey.ShouldEqual, 25)
				convey.So(m.StaminaEfficiency, convey.ShouldAlmostEqual, 0.5)
				convey.So(m.ReinvestRatio, convey.ShouldAlmostEqual, 0.6)
				convey.So(m.ExtractorScore, convey.ShouldAlmostEqual, 0.9)
				convey.So(m.MeditationRate, convey.ShouldAlmostEqual, 2.5)
				convey.So(m.NetHeroDelta30d, convey.ShouldEqual, 3)
			})

			convey.Convey("Then flag metrics should be set", func() {
				convey.So(m.HeavySeller, convey.ShouldBeFalse)
				convey.So(m.AllCategoriesRarePlus, convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a wallet that sells without earning", t, func() {
		snap := &model.Snapshot{
			Economy: model.EconomySummary{SoldUSD30d: 400},
		}

		convey.Convey("When deriving", func() {
			m := Derive(snap)

			convey.Convey("Then it should be flagged as pure extraction", func() {
				convey.So(m.ExtractorScore, convey.ShouldEqual, 0)
				convey.So(m.HeavySeller, convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a dormant wallet with no economy activity", t, func() {
		snap := &model.Snapshot{}

		convey.Convey("When deriving", func() {
			m := Derive(snap)

			convey.Convey("Then no-extraction should be the neutral default", func() {
				convey.So(m.ExtractorScore, convey.ShouldEqual, 1)
				convey.So(m.ReinvestRatio, convey.ShouldEqual, 0)
				convey.So(m.MeditationRate, convey.ShouldEqual, 0)
				convey.So(m.HeavySeller, convey.ShouldBeFalse)
				convey.So(m.AllCategoriesRarePlus, convey.ShouldBeFalse)
			})
		})
	})

	convey.Convey("Given overspent or over-reinvested inputs", t, func() {
		snap := &model.Snapshot{
			Quests: model.QuestSummary{StaminaSpent30d: 12000, StaminaBudget30d: 9000},
			Economy: model.EconomySummary{
				EarnedUSD30d:     100,
				ReinvestedUSD30d: 300,
			},
		}

		convey.Convey("When deriving", func() {
			m := Derive(snap)

			convey.Convey("Then ratios should be clamped to 1", func() {
				convey.So(m.StaminaEfficiency, convey.ShouldEqual, 1)
				convey.So(m.ReinvestRatio, convey.ShouldEqual, 1)
			})
		})
	})
}

func TestMetricLookup(t *testing.T) {
	convey.Convey("Given derived metrics", t, func() {
		m := Metrics{
			QuestStreakDays: 7,
			ExtractorScore:  0.8,
			HeavySeller:     true,
		}

		convey.Convey("When looking up known names", func() {
			streak, ok1 := m.Metric("questStreakDays")
			score, ok2 := m.Metric("extractorScore")
			seller, ok3 := m.Metric("heavySeller")

			convey.Convey("Then values should be returned", func() {
				convey.So(ok1, convey.ShouldBeTrue)
				convey.So(streak, convey.ShouldEqual, 7)
				convey.So(ok2, convey.ShouldBeTrue)
				convey.So(score, convey.ShouldAlmostEqual, 0.8)
				convey.So(ok3, convey.ShouldBeTrue)
				convey.So(seller, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When looking up an unknown name", func() {
			_, ok := m.Metric("nonexistent")

			convey.Convey("Then the lookup should fail", func() {
				convey.So(ok, convey.ShouldBeFalse)
			})
		})
	})
}
