package gamesource

import "errors"

// Sentinel kinds for snapshot source errors.
var (
	ErrWalletUnknown = errors.New("wallet unknown to game api")
	ErrUpstream      = errors.New("game api error")
)
