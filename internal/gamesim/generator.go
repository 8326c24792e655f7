// Package gamesim is a synthetic game-API simulator for local development
// and load testing. It serves randomized but per-wallet-stable snapshots
// shaped like the real chain reader's output.
package gamesim

import (
	"crypto/rand"
	"hash/fnv"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/okian/questforge/internal/domain/model"
)

const randomFloatDivisor = 1000000

// Player archetypes the generator produces. Each yields a distinct
// activity profile so downstream tier classification has something to
// separate.
const (
	archetypeCasual = iota
	archetypeGrinder
	archetypeWhale
	archetypeBotLike
	archetypeFounder
	archetypeCount
)

var professions = []string{"mining", "gardening", "foraging", "fishing"}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func randomInt(max int) int {
	if max <= 0 {
		return 0
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	return int(n.Int64())
}

// archetypeFor maps a wallet address to a stable archetype.
func archetypeFor(wallet string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(wallet))
	return int(h.Sum32() % archetypeCount)
}

// generateSnapshot builds one synthetic snapshot for the wallet. The
// archetype decides the magnitudes; the individual values are random.
func generateSnapshot(wallet string, now time.Time) *model.Snapshot {
	arch := archetypeFor(wallet)

	snap := &model.Snapshot{
		WalletAddress: wallet,
		ExtractedAt:   now,
	}

	switch arch {
	case archetypeWhale:
		snap.Heroes = generateHeroes(20+randomInt(40), 3)
		snap.Quests = model.QuestSummary{
			CompletedTotal:   500 + randomInt(5000),
			ProfQuests30d:    100 + randomInt(400),
			StreakDays:       randomInt(30),
			StaminaSpent30d:  3000 + randomInt(9000),
			StaminaBudget30d: 15000,
			DaysActive30d:    20 + randomInt(10),
		}
		snap.Balances = model.TokenBalances{
			GoldUSD:       1000 + getRandomFloat()*20000,
			PowerTokenUSD: 5000 + getRandomFloat()*50000,
			StableUSD:     getRandomFloat() * 10000,
		}
		snap.Garden = []model.GardenPosition{
			{PoolID: randomInt(8), LPValueUSD: 10000 + getRandomFloat()*90000},
			{PoolID: randomInt(8), LPValueUSD: getRandomFloat() * 20000},
		}
		snap.Economy = model.EconomySummary{
			EarnedUSD30d:     2000 + getRandomFloat()*8000,
			SoldUSD30d:       getRandomFloat() * 2000,
			ReinvestedUSD30d: 1500 + getRandomFloat()*6000,
			HeroesBought30d:  randomInt(20),
		}
		snap.AccountAgeDays = 200 + randomInt(500)
	case archetypeGrinder:
		snap.Heroes = generateHeroes(6+randomInt(12), 2)
		snap.Quests = model.QuestSummary{
			CompletedTotal:   200 + randomInt(2000),
			ProfQuests30d:    150 + randomInt(300),
			StreakDays:       10 + randomInt(20),
			StaminaSpent30d:  4000 + randomInt(4000),
			StaminaBudget30d: 9000,
			DaysActive30d:    25 + randomInt(5),
		}
		snap.Hunts = model.HuntSummary{
			Kills:      100 + randomInt(2000),
			BossKills:  randomInt(100),
			LastHuntAt: now.Add(-time.Duration(randomInt(48)) * time.Hour),
		}
		snap.PvP = model.PvPSummary{
			Wins:       50 + randomInt(500),
			Losses:     50 + randomInt(500),
			BestStreak: randomInt(20),
		}
		snap.Economy = model.EconomySummary{
			EarnedUSD30d:     200 + getRandomFloat()*800,
			SoldUSD30d:       100 + getRandomFloat()*400,
			ReinvestedUSD30d: getRandomFloat() * 300,
		}
		snap.AccountAgeDays = 60 + randomInt(300)
	case archetypeBotLike:
		snap.Heroes = generateHeroes(3+randomInt(5), 1)
		snap.Quests = model.QuestSummary{
			CompletedTotal:   1000 + randomInt(5000),
			ProfQuests30d:    400 + randomInt(200),
			StreakDays:       30,
			StaminaSpent30d:  8500 + randomInt(500),
			StaminaBudget30d: 9000,
			DaysActive30d:    30,
		}
		snap.Economy = model.EconomySummary{
			EarnedUSD30d: 300 + getRandomFloat()*500,
			SoldUSD30d:   300 + getRandomFloat()*500,
		}
		snap.AccountAgeDays = 30 + randomInt(200)
	case archetypeFounder:
		snap.Heroes = generateHeroes(10+randomInt(15), 3)
		snap.Quests = model.QuestSummary{
			CompletedTotal:   2000 + randomInt(8000),
			ProfQuests30d:    randomInt(100),
			StreakDays:       randomInt(10),
			StaminaSpent30d:  randomInt(3000),
			StaminaBudget30d: 12000,
			DaysActive30d:    5 + randomInt(15),
		}
		snap.Meditation = model.MeditationSummary{
			Sessions:     200 + randomInt(800),
			LevelsGained: 500 + randomInt(2000),
		}
		snap.Pets = model.PetSummary{Count: 5 + randomInt(10), Bonded: randomInt(5)}
		snap.AccountAgeDays = 700 + randomInt(600)
	default: // casual
		snap.Heroes = generateHeroes(1+randomInt(4), 1)
		snap.Quests = model.QuestSummary{
			CompletedTotal:   randomInt(200),
			ProfQuests30d:    randomInt(40),
			StreakDays:       randomInt(5),
			StaminaSpent30d:  randomInt(1500),
			StaminaBudget30d: 3000,
			DaysActive30d:    randomInt(15),
		}
		snap.Balances = model.TokenBalances{GoldUSD: getRandomFloat() * 100}
		snap.AccountAgeDays = randomInt(120)
	}

	snap.Chat = model.ChatEngagement{
		Messages30d:  randomInt(200),
		Reactions30d: randomInt(400),
	}
	snap.Summons = model.SummonSummary{
		Total:   randomInt(100),
		Last30d: randomInt(10),
	}
	snap.Balances.NetWorthUSD = snap.Balances.GoldUSD +
		snap.Balances.PowerTokenUSD + snap.Balances.StableUSD +
		snap.GardenLPValueUSD()

	return snap
}

// generateHeroes builds a roster with rarities up to maxRarity+1.
func generateHeroes(count, maxRarity int) []model.Hero {
	heroes := make([]model.Hero, count)
	for i := range heroes {
		rarity := randomInt(maxRarity + 1)
		if getRandomFloat() < 0.02 {
			rarity = model.RarityMythic
		}
		heroes[i] = model.Hero{
			ID:         uuid.New().String(),
			Rarity:     rarity,
			Level:      1 + randomInt(100),
			Profession: professions[randomInt(len(professions))],
		}
	}
	return heroes
}
