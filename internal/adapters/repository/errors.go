package repository

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate means an insert hit an existing natural key. Snapshot
	// writers treat it as already-done, not a failure.
	ErrDuplicate = errors.New("duplicate key")
)
