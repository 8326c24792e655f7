// Package tier classifies a cluster's KPI snapshot into a power tier.
//
// Classification is a pure function: identical input always yields an
// identical result, which makes the threshold ladder safe for exhaustive
// boundary testing.
package tier

import "math"

// Tier codes, lowest to highest.
const (
	Common    = "COMMON"
	Uncommon  = "UNCOMMON"
	Rare      = "RARE"
	Legendary = "LEGENDARY"
	Mythic    = "MYTHIC"
)

// Composite weights. They must sum to 1.
const (
	weightHeroPower      = 0.40
	weightWalletValue    = 0.25
	weightActivity       = 0.20
	weightAccountAge     = 0.10
	weightBehaviorHealth = 0.05
)

// Normalization ceilings for the raw sub-scores.
const (
	ceilingHeroPower   = 2500.0
	ceilingWalletValue = 5.0
	ceilingActivity    = 300.0
	ceilingAccountAge  = 4.0
)

// Tier ladder bounds, half-open: a composite score equal to a bound maps to
// the tier above it.
const (
	boundUncommon  = 20.0
	boundRare      = 40.0
	boundLegendary = 60.0
	boundMythic    = 80.0
)

// HeroPower describes the cluster's hero roster.
type HeroPower struct {
	CommonHeroes    int
	UncommonHeroes  int
	RareHeroes      int
	LegendaryHeroes int
	MythicHeroes    int
	TotalLevels     int
}

// WalletValue describes the cluster's holdings.
type WalletValue struct {
	NetWorthUSD float64
}

// Activity describes the cluster's last-30-day activity.
type Activity struct {
	ProfQuests30d      int
	Summons30d         int
	StaminaUtilization float64 // 0..1
	DaysActive30d      int
}

// AccountAge describes how old the cluster's oldest account is.
type AccountAge struct {
	AgeDays int
}

// Behavior describes the cluster's recent economic behavior.
type Behavior struct {
	ReinvestRatio   float64
	NetHeroDelta30d int
	HeavySeller     bool
}

// KpiSnapshot is the aggregated classification input, built fresh per call.
type KpiSnapshot struct {
	HeroPower   HeroPower
	WalletValue WalletValue
	Activity    Activity
	AccountAge  AccountAge
	Behavior    Behavior
}

// Breakdown holds the five normalized sub-scores, each in [0, 100].
type Breakdown struct {
	HeroPower      float64
	WalletValue    float64
	Activity       float64
	AccountAge     float64
	BehaviorHealth float64
}

// Result is the classification output.
type Result struct {
	Tier           string
	CompositeScore float64 // 0..100
	Breakdown      Breakdown
}

// Compute classifies a KPI snapshot into a tier with a composite score.
func Compute(k KpiSnapshot) Result {
	b := Breakdown{
		HeroPower:      normalize(heroPowerRaw(k.HeroPower), ceilingHeroPower),
		WalletValue:    normalize(math.Log10(1+math.Max(0, k.WalletValue.NetWorthUSD)), ceilingWalletValue),
		Activity:       normalize(activityRaw(k.Activity), ceilingActivity),
		AccountAge:     normalize(accountAgeStep(k.AccountAge.AgeDays), ceilingAccountAge),
		BehaviorHealth: behaviorHealth(k.Behavior),
	}

	cps := weightHeroPower*b.HeroPower +
		weightWalletValue*b.WalletValue +
		weightActivity*b.Activity +
		weightAccountAge*b.AccountAge +
		weightBehaviorHealth*b.BehaviorHealth
	cps = clamp(cps, 0, 100)

	return Result{
		Tier:           tierFor(cps),
		CompositeScore: cps,
		Breakdown:      b,
	}
}

func heroPowerRaw(h HeroPower) float64 {
	return 1*float64(h.CommonHeroes) +
		2*float64(h.UncommonHeroes) +
		4*float64(h.RareHeroes) +
		8*float64(h.LegendaryHeroes) +
		12*float64(h.MythicHeroes) +
		0.1*float64(h.TotalLevels)
}

func activityRaw(a Activity) float64 {
	return 0.03*float64(a.ProfQuests30d) +
		0.1*float64(a.Summons30d) +
		2*a.StaminaUtilization +
		0.5*float64(a.DaysActive30d)
}

func accountAgeStep(days int) float64 {
	switch {
	case days < 30:
		return 0
	case days < 90:
		return 1
	case days < 180:
		return 2
	case days < 365:
		return 3
	default:
		return 4
	}
}

// behaviorHealth maps the raw range [-2, +3] onto [0, 100].
func behaviorHealth(b Behavior) float64 {
	raw := 2 * clamp(b.ReinvestRatio, 0, 1)
	if b.NetHeroDelta30d > 0 {
		raw += 1
	}
	if b.HeavySeller {
		raw -= 2
	}
	return clamp((raw+2)/5*100, 0, 100)
}

func tierFor(cps float64) string {
	switch {
	case cps < boundUncommon:
		return Common
	case cps < boundRare:
		return Uncommon
	case cps < boundLegendary:
		return Rare
	case cps < boundMythic:
		return Legendary
	default:
		return Mythic
	}
}

func normalize(raw, ceiling float64) float64 {
	return clamp(raw/ceiling*100, 0, 100)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
