// Package model contains domain models passed between layers.
package model

import "time"

// Snapshot is the point-in-time view of a wallet's game activity produced
// by the external chain/game-API reader. It is consumed, never mutated.
type Snapshot struct {
	WalletAddress  string            `json:"wallet_address"`
	Heroes         []Hero            `json:"heroes"`
	Quests         QuestSummary      `json:"quests"`
	Summons        SummonSummary     `json:"summons"`
	Pets           PetSummary        `json:"pets"`
	Meditation     MeditationSummary `json:"meditation"`
	Garden         []GardenPosition  `json:"garden"`
	Balances       TokenBalances     `json:"balances"`
	Chat           ChatEngagement    `json:"chat"`
	Hunts          HuntSummary       `json:"hunts"`
	PvP            PvPSummary        `json:"pvp"`
	Economy        EconomySummary    `json:"economy"`
	AccountAgeDays int               `json:"account_age_days"`
	ExtractedAt    time.Time         `json:"extracted_at"`
}

// Hero rarity codes as stored on chain.
const (
	RarityCommon    = 0
	RarityUncommon  = 1
	RarityRare      = 2
	RarityLegendary = 3
	RarityMythic    = 4
)

// Hero is one owned hero NFT.
type Hero struct {
	ID         string `json:"id"`
	Rarity     int    `json:"rarity"`
	Level      int    `json:"level"`
	Profession string `json:"profession"`
}

// QuestSummary aggregates questing activity.
type QuestSummary struct {
	CompletedTotal   int `json:"completed_total"`
	ProfQuests30d    int `json:"prof_quests_30d"`
	StreakDays       int `json:"streak_days"`
	StaminaSpent30d  int `json:"stamina_spent_30d"`
	StaminaBudget30d int `json:"stamina_budget_30d"` // max stamina the roster could have spent in 30d
	DaysActive30d    int `json:"days_active_30d"`
}

// SummonSummary aggregates hero summoning.
type SummonSummary struct {
	Total   int `json:"total"`
	Last30d int `json:"last_30d"`
}

// PetSummary aggregates pet ownership.
type PetSummary struct {
	Count  int `json:"count"`
	Bonded int `json:"bonded"`
}

// MeditationSummary aggregates meditation (level-up) activity.
type MeditationSummary struct {
	Sessions     int `json:"sessions"`
	LevelsGained int `json:"levels_gained"`
}

// GardenPosition is one liquidity position in a garden pool.
type GardenPosition struct {
	PoolID     int     `json:"pool_id"`
	LPValueUSD float64 `json:"lp_value_usd"`
}

// TokenBalances holds the wallet's token holdings in USD-equivalent terms.
type TokenBalances struct {
	GoldUSD       float64 `json:"gold_usd"`
	PowerTokenUSD float64 `json:"power_token_usd"`
	StableUSD     float64 `json:"stable_usd"`
	NetWorthUSD   float64 `json:"net_worth_usd"`
}

// ChatEngagement counts community activity attributed to the wallet's player.
type ChatEngagement struct {
	Messages30d  int `json:"messages_30d"`
	Reactions30d int `json:"reactions_30d"`
}

// HuntSummary aggregates lifetime hunting results.
type HuntSummary struct {
	Kills      int       `json:"kills"`
	BossKills  int       `json:"boss_kills"`
	LastHuntAt time.Time `json:"last_hunt_at"`
}

// PvPSummary aggregates lifetime PvP results.
type PvPSummary struct {
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	BestStreak int `json:"best_streak"`
}

// EconomySummary captures buy/sell/reinvest flows over the last 30 days.
type EconomySummary struct {
	EarnedUSD30d     float64 `json:"earned_usd_30d"`
	SoldUSD30d       float64 `json:"sold_usd_30d"`
	ReinvestedUSD30d float64 `json:"reinvested_usd_30d"`
	HeroesBought30d  int     `json:"heroes_bought_30d"`
	HeroesSold30d    int     `json:"heroes_sold_30d"`
}

// TotalHeroLevels sums levels across the roster.
func (s *Snapshot) TotalHeroLevels() int {
	total := 0
	for _, h := range s.Heroes {
		total += h.Level
	}
	return total
}

// HeroCountByRarity counts heroes at the given rarity code.
func (s *Snapshot) HeroCountByRarity(rarity int) int {
	n := 0
	for _, h := range s.Heroes {
		if h.Rarity == rarity {
			n++
		}
	}
	return n
}

// GardenLPValueUSD sums LP value across all garden positions.
func (s *Snapshot) GardenLPValueUSD() float64 {
	total := 0.0
	for _, g := range s.Garden {
		total += g.LPValueUSD
	}
	return total
}
