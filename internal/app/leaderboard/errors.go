package leaderboard

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrUnknownLeaderboard means no definition exists for the key.
	ErrUnknownLeaderboard = errors.New("unknown leaderboard")

	// ErrInactiveLeaderboard means the definition exists but is disabled.
	ErrInactiveLeaderboard = errors.New("leaderboard is inactive")

	// ErrNoCompleteRun means the definition exists but no run has ever
	// completed. Readers translate this into an empty-entries payload.
	ErrNoCompleteRun = errors.New("no complete run")
)
