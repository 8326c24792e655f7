package model

import "time"

// Hunt event kinds recorded by the chain reader.
const (
	HuntKindKill = "KILL"
	HuntKindBoss = "BOSS"
)

// HuntEvent is one recorded hunting encounter for a cluster.
type HuntEvent struct {
	ClusterKey string
	Kind       string
	Count      int
	OccurredAt time.Time
}

// PvP match outcomes.
const (
	PvPWin  = "WIN"
	PvPLoss = "LOSS"
)

// PvPEvent is one recorded PvP match result for a cluster.
type PvPEvent struct {
	ClusterKey string
	Outcome    string
	OccurredAt time.Time
}
