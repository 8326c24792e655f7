package model

import "time"

// SeasonLevelDivisor converts season points to an integer level.
const SeasonLevelDivisor = 1000

// Season is one scoring season authored by the admin surface.
type Season struct {
	ID       int64
	Name     string
	StartsAt time.Time
	EndsAt   time.Time
	IsActive bool
}

// SeasonWeight weights one challenge's lifetime progress inside a season.
type SeasonWeight struct {
	SeasonID      int64
	ChallengeCode string
	Weight        float64
}

// SeasonProgress is the per-cluster season standing, upserted by
// (SeasonID, ClusterKey).
type SeasonProgress struct {
	SeasonID   int64
	ClusterKey string
	Points     float64
	Level      int
	UpdatedAt  time.Time
}
