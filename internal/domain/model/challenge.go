package model

// Metric sources a challenge definition may reference. The set is closed:
// the registry validates every active definition against it at startup.
const (
	SourceHeroes        = "heroes"
	SourceQuests        = "quests"
	SourceSummons       = "summons"
	SourcePets          = "pets"
	SourceMeditation    = "meditation"
	SourceGarden        = "garden"
	SourceWallet        = "wallet"
	SourceChat          = "chat"
	SourceHuntEvents    = "hunt_events"
	SourcePvPEvents     = "pvp_events"
	SourceBehaviorModel = "behavior_model"
)

// ChallengeTier is one scored rung of a challenge.
type ChallengeTier struct {
	TierCode       string
	ThresholdValue float64
	IsPrestige     bool
	SortOrder      int
}

// ChallengeDefinition is static configuration authored by the admin surface,
// loaded once per run cycle.
type ChallengeDefinition struct {
	Key          string
	MetricSource string
	MetricKey    string
	CategoryKey  string
	IsActive     bool
	Tiers        []ChallengeTier
}

// TierForValue returns the highest tier whose threshold is met by value, or
// nil when no tier is reached.
func (d *ChallengeDefinition) TierForValue(value float64) *ChallengeTier {
	var best *ChallengeTier
	for i := range d.Tiers {
		t := &d.Tiers[i]
		if value >= t.ThresholdValue && (best == nil || t.SortOrder > best.SortOrder) {
			best = t
		}
	}
	return best
}

// TopTier returns the single topmost tier by sort order, or nil for a
// challenge with no tiers. Reaching it is what earns the Founder's Mark.
func (d *ChallengeDefinition) TopTier() *ChallengeTier {
	var top *ChallengeTier
	for i := range d.Tiers {
		t := &d.Tiers[i]
		if top == nil || t.SortOrder > top.SortOrder {
			top = t
		}
	}
	return top
}

// IsPrestige reports whether the challenge is prestige-flagged, either by
// category or by any of its tiers. Prestige challenges are excluded from
// windowed progress.
func (d *ChallengeDefinition) IsPrestige() bool {
	if d.CategoryKey == "prestige" {
		return true
	}
	for i := range d.Tiers {
		if d.Tiers[i].IsPrestige {
			return true
		}
	}
	return false
}

// EventBacked reports whether the challenge's metric source is backed by a
// discrete event log, which allows true window-restricted recomputes.
func (d *ChallengeDefinition) EventBacked() bool {
	return d.MetricSource == SourceHuntEvents || d.MetricSource == SourcePvPEvents
}
