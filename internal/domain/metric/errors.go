package metric

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrNotFound means no extractor is registered for a (source, key) pair.
	// Callers must skip the challenge and warn, never score it as zero.
	ErrNotFound = errors.New("metric not registered")

	// ErrUnresolvedChallenge means startup validation found an active
	// challenge whose metric does not resolve.
	ErrUnresolvedChallenge = errors.New("active challenge metric does not resolve")
)
