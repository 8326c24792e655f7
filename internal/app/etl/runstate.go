package etl

import (
	"sync/atomic"

	"github.com/okian/questforge/pkg/metrics"
)

// RunState is the single-flight gate for batch runs. It is owned by the
// orchestrator instance so the guard is testable without process-global
// state. The gate is process-local only: it does not coordinate multiple
// service instances.
type RunState struct {
	running atomic.Bool
}

// TryAcquire claims the gate. Returns false when a run is already in
// flight.
func (s *RunState) TryAcquire() bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	metrics.UpdateRunInFlight(true)
	return true
}

// Release frees the gate.
func (s *RunState) Release() {
	s.running.Store(false)
	metrics.UpdateRunInFlight(false)
}

// Running reports whether a run currently holds the gate.
func (s *RunState) Running() bool {
	return s.running.Load()
}
