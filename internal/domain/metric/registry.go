// Package metric maps (source, key) pairs to pure extractor functions over
// an activity snapshot.
//
// The table is closed and enumerable: every extractor is registered at
// construction time and Validate fails loudly when an active challenge
// references a pair that does not resolve. Missing extractors are a
// configuration error discovered at startup, not a runtime warning.
package metric

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/questforge/internal/domain/behavior"
	"github.com/okian/questforge/internal/domain/model"
)

// Extractor computes one metric value from a snapshot and its derived
// behavior profile. Extractors are pure: no side effects, no I/O.
type Extractor func(s *model.Snapshot, b behavior.Metrics) float64

type tableKey struct {
	source string
	key    string
}

// Registry resolves metric references to extractors.
type Registry struct {
	table map[tableKey]Extractor
}

// NewRegistry builds the registry with the full built-in extractor table.
func NewRegistry() *Registry {
	r := &Registry{table: make(map[tableKey]Extractor)}
	r.registerBuiltins()
	return r
}

// Resolve returns the extractor for (source, key), or ErrNotFound.
//
// For source "behavior_model" an unregistered key falls back to a direct
// lookup on the derived behavior metrics, with the snake_case key converted
// to its camel-case name.
func (r *Registry) Resolve(source, key string) (Extractor, error) {
	if ex, ok := r.table[tableKey{source: source, key: key}]; ok {
		return ex, nil
	}
	if source == model.SourceBehaviorModel {
		name := snakeToCamel(key)
		// Probe the closed behavior name table with a zero value.
		if _, ok := (behavior.Metrics{}).Metric(name); ok {
			return func(_ *model.Snapshot, b behavior.Metrics) float64 {
				v, _ := b.Metric(name)
				return v
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s:%s", ErrNotFound, source, key)
}

// Validate checks that every active challenge's metric resolves. It returns
// an error naming the first offending challenge so startup can fail loudly.
func (r *Registry) Validate(defs []model.ChallengeDefinition) error {
	for i := range defs {
		d := &defs[i]
		if !d.IsActive {
			continue
		}
		if _, err := r.Resolve(d.MetricSource, d.MetricKey); err != nil {
			return fmt.Errorf("%w: challenge %q -> %s:%s", ErrUnresolvedChallenge, d.Key, d.MetricSource, d.MetricKey)
		}
	}
	return nil
}

// Keys enumerates the registered (source, key) pairs, for diagnostics.
func (r *Registry) Keys() []string {
	out := make([]string, 0, len(r.table))
	for k := range r.table {
		out = append(out, k.source+":"+k.key)
	}
	return out
}

func (r *Registry) register(source, key string, ex Extractor) {
	r.table[tableKey{source: source, key: key}] = ex
}

//nolint:funlen // the table is a flat enumeration, splitting it hides nothing
func (r *Registry) registerBuiltins() {
	r.register(model.SourceHeroes, "hero_count", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(len(s.Heroes))
	})
	r.register(model.SourceHeroes, "total_levels", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(s.TotalHeroLevels())
	})
	r.register(model.SourceHeroes, "mythic_count", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(s.HeroCountByRarity(model.RarityMythic))
	})
	r.register(model.SourceQuests, "quests_completed", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(s.Quests.CompletedTotal)
	})
	r.register(model.SourceQuests, "prof_quests_30d", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(s.Quests.ProfQuests30d)
	})
	r.register(model.SourceSummons, "summons_total", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(s.Summons.Total)
	})
	r.register(model.SourcePets, "pet_count", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(s.Pets.Count)
	})
	r.register(model.SourcePets, "bonded_pets", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(s.Pets.Bonded)
	})
	r.register(model.SourceMeditation, "sessions", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(s.Meditation.Sessions)
	})
	r.register(model.SourceGarden, "lp_value_usd", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return s.GardenLPValueUSD()
	})
	r.register(model.SourceGarden, "pool_count", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(len(s.Garden))
	})
	r.register(model.SourceWallet, "net_worth_usd", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return s.Balances.NetWorthUSD
	})
	r.register(model.SourceWallet, "log_net_worth", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return math.Log10(1 + math.Max(0, s.Balances.NetWorthUSD))
	})
	r.register(model.SourceChat, "messages_30d", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(s.Chat.Messages30d)
	})
	// Event-backed sources score from lifetime summaries here; the windowed
	// loader recomputes them from the raw event log instead.
	r.register(model.SourceHuntEvents, "kills", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(s.Hunts.Kills)
	})
	r.register(model.SourceHuntEvents, "boss_kills", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(s.Hunts.BossKills)
	})
	r.register(model.SourcePvPEvents, "wins", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(s.PvP.Wins)
	})
	r.register(model.SourcePvPEvents, "win_streak", func(s *model.Snapshot, _ behavior.Metrics) float64 {
		return float64(s.PvP.BestStreak)
	})
}

// snakeToCamel converts snake_case to camelCase, e.g. "reinvest_ratio" ->
// "reinvestRatio". Digits keep their position: "days_active_30d" ->
// "daysActive30d".
func snakeToCamel(s string) string {
	parts := strings.Split(s, "_")
	if len(parts) == 1 {
		return s
	}
	var sb strings.Builder
	sb.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	return sb.String()
}
