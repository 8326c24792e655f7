// Package behavior derives behavioral ratios and streaks from a raw
// activity snapshot.
//
// Conventions:
// - Derivation is a pure function of the snapshot: no I/O, deterministic.
// - Derived values are exposed both as struct fields and through a closed
//   name table for registry lookups.
package behavior

import (
	"github.com/okian/questforge/internal/domain/model"
)

// Thresholds for the heavy-seller flag.
const (
	heavySellFloorUSD    = 250.0
	heavySellMaxReinvest = 0.2
)

// Metrics is the derived behavioral profile for one snapshot.
type Metrics struct {
	QuestStreakDays       int
	DaysActive30d         int
	StaminaEfficiency     float64 // stamina spent / stamina budget, 0..1
	ReinvestRatio         float64 // reinvested / earned, 0..1
	ExtractorScore        float64 // inverted sell pressure, 1 = no extraction
	MeditationRate        float64 // levels gained per meditation session
	NetHeroDelta30d       int
	HeavySeller           bool
	AllCategoriesRarePlus bool
}

// Derive computes behavioral metrics from a snapshot.
func Derive(s *model.Snapshot) Metrics {
	m := Metrics{
		QuestStreakDays: s.Quests.StreakDays,
		DaysActive30d:   s.Quests.DaysActive30d,
		NetHeroDelta30d: s.Economy.HeroesBought30d - s.Economy.HeroesSold30d,
	}

	if s.Quests.StaminaBudget30d > 0 {
		m.StaminaEfficiency = clamp01(float64(s.Quests.StaminaSpent30d) / float64(s.Quests.StaminaBudget30d))
	}

	if s.Economy.EarnedUSD30d > 0 {
		m.ReinvestRatio = clamp01(s.Economy.ReinvestedUSD30d / s.Economy.EarnedUSD30d)
		m.ExtractorScore = clamp01(1 - s.Economy.SoldUSD30d/s.Economy.EarnedUSD30d)
	} else if s.Economy.SoldUSD30d > 0 {
		// Selling without in-game earnings is pure extraction.
		m.ExtractorScore = 0
	} else {
		m.ExtractorScore = 1
	}

	if s.Meditation.Sessions > 0 {
		m.MeditationRate = float64(s.Meditation.LevelsGained) / float64(s.Meditation.Sessions)
	}

	m.HeavySeller = s.Economy.SoldUSD30d >= heavySellFloorUSD && m.ReinvestRatio < heavySellMaxReinvest

	m.AllCategoriesRarePlus = rarePlusHeroes(s) > 0 &&
		s.Pets.Count > 0 &&
		len(s.Garden) > 0 &&
		s.PvP.Wins > 0

	return m
}

// Metric looks up a derived value by its camel-case name. Boolean metrics
// report 1 or 0. The name table is closed: unknown names return false.
func (m Metrics) Metric(name string) (float64, bool) {
	switch name {
	case "questStreakDays":
		return float64(m.QuestStreakDays), true
	case "daysActive30d":
		return float64(m.DaysActive30d), true
	case "staminaEfficiency":
		return m.StaminaEfficiency, true
	case "reinvestRatio":
		return m.ReinvestRatio, true
	case "extractorScore":
		return m.ExtractorScore, true
	case "meditationRate":
		return m.MeditationRate, true
	case "netHeroDelta30d":
		return float64(m.NetHeroDelta30d), true
	case "heavySeller":
		return boolMetric(m.HeavySeller), true
	case "allCategoriesRarePlus":
		return boolMetric(m.AllCategoriesRarePlus), true
	}
	return 0, false
}

func rarePlusHeroes(s *model.Snapshot) int {
	n := 0
	for _, h := range s.Heroes {
		if h.Rarity >= model.RarityRare {
			n++
		}
	}
	return n
}

func boolMetric(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
