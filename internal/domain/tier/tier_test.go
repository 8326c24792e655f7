package tier

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestCompute(t *testing.T) {
	convey.Convey("Given an empty KPI snapshot", t, func() {
		convey.Convey("When classifying", func() {
			res := Compute(KpiSnapshot{})

			convey.Convey("Then the result should be the lowest tier", func() {
				convey.So(res.Tier, convey.ShouldEqual, Common)
				convey.So(res.Breakdown.HeroPower, convey.ShouldEqual, 0)
				convey.So(res.Breakdown.WalletValue, convey.ShouldEqual, 0)
				convey.So(res.Breakdown.Activity, convey.ShouldEqual, 0)
				convey.So(res.Breakdown.AccountAge, convey.ShouldEqual, 0)
			})

			convey.Convey("Then neutral behavior should still contribute its sub-score", func() {
				convey.So(res.Breakdown.BehaviorHealth, convey.ShouldEqual, 40)
				convey.So(res.CompositeScore, convey.ShouldAlmostEqual, 2.0)
			})
		})
	})

	convey.Convey("Given a maxed-out KPI snapshot", t, func() {
		k := KpiSnapshot{
			HeroPower: HeroPower{
				MythicHeroes:    300,
				LegendaryHeroes: 100,
				TotalLevels:     20000,
			},
			WalletValue: WalletValue{NetWorthUSD: 1_000_000},
			Activity: Activity{
				ProfQuests30d:      10000,
				Summons30d:         1000,
				StaminaUtilization: 1,
				DaysActive30d:      30,
			},
			AccountAge: AccountAge{AgeDays: 1000},
			Behavior:   Behavior{ReinvestRatio: 1, NetHeroDelta30d: 5},
		}

		convey.Convey("When classifying", func() {
			res := Compute(k)

			convey.Convey("Then every sub-score should be capped at 100", func() {
				convey.So(res.Breakdown.HeroPower, convey.ShouldEqual, 100)
				convey.So(res.Breakdown.Activity, convey.ShouldEqual, 100)
				convey.So(res.Breakdown.AccountAge, convey.ShouldEqual, 100)
				convey.So(res.Breakdown.BehaviorHealth, convey.ShouldEqual, 100)
			})

			convey.Convey("Then the composite should land in the top tier", func() {
				convey.So(res.CompositeScore, convey.ShouldBeGreaterThanOrEqualTo, boundMythic)
				convey.So(res.Tier, convey.ShouldEqual, Mythic)
			})
		})
	})

	convey.Convey("Given the same snapshot twice", t, func() {
		k := KpiSnapshot{
			HeroPower:  HeroPower{RareHeroes: 10, TotalLevels: 400},
			Activity:   Activity{ProfQuests30d: 200, DaysActive30d: 20},
			AccountAge: AccountAge{AgeDays: 120},
		}

		convey.Convey("When classifying both", func() {
			a := Compute(k)
			b := Compute(k)

			convey.Convey("Then the results should be identical", func() {
				convey.So(a, convey.ShouldResemble, b)
			})
		})
	})

	convey.Convey("Given a heavy seller", t, func() {
		healthy := Compute(KpiSnapshot{Behavior: Behavior{ReinvestRatio: 0.5}})
		seller := Compute(KpiSnapshot{Behavior: Behavior{ReinvestRatio: 0.5, HeavySeller: true}})

		convey.Convey("Then the seller's behavior sub-score should be lower", func() {
			convey.So(seller.Breakdown.BehaviorHealth, convey.ShouldBeLessThan, healthy.Breakdown.BehaviorHealth)
		})
	})
}

func TestTierLadder(t *testing.T) {
	convey.Convey("Given the tier ladder", t, func() {
		cases := []struct {
			cps  float64
			tier string
		}{
			{0, Common},
			{19.99, Common},
			{boundUncommon, Uncommon},
			{39.99, Uncommon},
			{boundRare, Rare},
			{59.99, Rare},
			{boundLegendary, Legendary},
			{79.99, Legendary},
			{boundMythic, Mythic},
			{100, Mythic},
		}

		convey.Convey("When mapping composite scores at each boundary", func() {
			for _, c := range cases {
				convey.So(tierFor(c.cps), convey.ShouldEqual, c.tier)
			}
		})
	})
}

func TestAccountAgeStep(t *testing.T) {
	convey.Convey("Given the account age step function", t, func() {
		convey.Convey("Then each bracket should map to its step", func() {
			convey.So(accountAgeStep(0), convey.ShouldEqual, 0)
			convey.So(accountAgeStep(29), convey.ShouldEqual, 0)
			convey.So(accountAgeStep(30), convey.ShouldEqual, 1)
			convey.So(accountAgeStep(89), convey.ShouldEqual, 1)
			convey.So(accountAgeStep(90), convey.ShouldEqual, 2)
			convey.So(accountAgeStep(179), convey.ShouldEqual, 2)
			convey.So(accountAgeStep(180), convey.ShouldEqual, 3)
			convey.So(accountAgeStep(364), convey.ShouldEqual, 3)
			convey.So(accountAgeStep(365), convey.ShouldEqual, 4)
		})
	})
}
