package model

import "time"

// ChallengeProgress is the lifetime progress row for one identity and
// challenge. HighestTierAchieved is monotonic: it is recomputed from
// CurrentValue every run but is only ever replaced by a tier that was
// reached, never cleared by a value decrease. FoundersMarkAchieved is a
// one-way flag.
type ChallengeProgress struct {
	PlayerID             string
	ClusterKey           string // empty when the wallet resolved no cluster
	ChallengeKey         string
	CurrentValue         float64
	HighestTierAchieved  string
	AchievedAt           time.Time
	FoundersMarkAchieved bool
	FoundersMarkAt       time.Time
	UpdatedAt            time.Time
}

// WindowKey180d names the fixed trailing window used by windowed progress.
const WindowKey180d = "180d"

// WindowedProgress is the rolling-window progress row for one cluster,
// challenge and window key. It is fully recomputed every run and may
// legitimately decrease between runs.
type WindowedProgress struct {
	ClusterKey   string
	ChallengeKey string
	WindowKey    string
	Value        float64
	TierCode     string
	ComputedAt   time.Time
}

// PowerSnapshot is an immutable point-in-time composite power record for a
// cluster, written once per identity and day during full batch runs.
type PowerSnapshot struct {
	ClusterKey      string
	Day             time.Time
	HeroCount       int
	CommonHeroes    int
	UncommonHeroes  int
	RareHeroes      int
	LegendaryHeroes int
	MythicHeroes    int
	TotalLevels     int
	PetCount        int
	GardenLPUSD     float64
	BalanceUSD      float64
	PowerValue      float64
	CreatedAt       time.Time
}

// BalanceSnapshot is an immutable point-in-time wallet balance record.
type BalanceSnapshot struct {
	WalletAddress string
	Day           time.Time
	NetWorthUSD   float64
	GoldUSD       float64
	PowerTokenUSD float64
	CreatedAt     time.Time
}

// WalletActivity records that a wallet was observed active during a run.
type WalletActivity struct {
	WalletAddress string
	Day           time.Time
	QuestsDone    int
	SummonsDone   int
	SeenAt        time.Time
}

// TransferAggregate is a per-day rollup of value moved through a cluster's
// wallets, written only when a run requests transfer recording.
type TransferAggregate struct {
	ClusterKey string
	Day        time.Time
	InUSD      float64
	OutUSD     float64
	CreatedAt  time.Time
}

// BehaviorRecord is the persisted per-cluster behavior profile written on
// each run, read back when assembling classification input.
type BehaviorRecord struct {
	ClusterKey         string
	ReinvestRatio      float64
	NetHeroDelta30d    int
	HeavySeller        bool
	StaminaUtilization float64
	AccountAgeDays     int
	RecordedAt         time.Time
}

// ClusterActivity aggregates recorded wallet activity across a cluster's
// wallets over a period.
type ClusterActivity struct {
	ClusterKey string
	Quests     int
	Summons    int
	DaysActive int
}
