// Package progress contains the three progress writers of the ETL
// pipeline: lifetime challenge progress, rolling-window progress, and
// point-in-time snapshots.
//
// Conventions:
// - Loaders take the resolved wallet context plus an immutable snapshot and
//   derived behavior metrics; they never re-fetch source data.
// - A challenge whose metric does not resolve is skipped with a warning,
//   never scored as zero.
package progress

import (
	"time"

	"github.com/okian/questforge/pkg/logger"
)

// Result summarizes one loader invocation.
type Result struct {
	Processed int
	Skipped   int
}

// clock abstracts time for deterministic tests.
type clock func() time.Time

func defaultClock() time.Time { return time.Now().UTC() }

func namedLogger(l logger.Logger, name string) logger.Logger {
	if l == nil {
		return logger.Get().Named(name)
	}
	return l.Named(name)
}
