package cache

import (
	"sync/atomic"
	"time"
)

// Connection health for a remote backend.
//
//	unknown -> healthy      first successful round-trip
//	unknown -> unreachable  connect attempts exhausted
//	healthy -> unreachable  maxFailures consecutive operation errors
//	unreachable -> healthy  a rate-limited background re-probe succeeds
const (
	stateUnknown int32 = iota
	stateHealthy
	stateUnreachable
)

// A connState tracks the shared, process-wide health of one remote backend.
// All fields are safe under concurrent access.
type connState struct {
	state       atomic.Int32
	failures    atomic.Int32
	nextProbeAt atomic.Int64

	maxFailures int32
	cooldown    time.Duration
}

func newConnState(maxFailures int32, cooldown time.Duration) *connState {
	return &connState{maxFailures: maxFailures, cooldown: cooldown}
}

// available reports whether operations may touch the network.
// Both unknown and healthy allow it; unreachable short-circuits.
func (s *connState) available() bool {
	return s.state.Load() != stateUnreachable
}

func (s *connState) markHealthy() {
	s.state.Store(stateHealthy)
	s.failures.Store(0)
}

func (s *connState) markUnreachable(now time.Time) {
	s.state.Store(stateUnreachable)
	s.nextProbeAt.Store(now.Add(s.cooldown).UnixNano())
}

// recordFailure counts one operation error,
// flipping to unreachable once maxFailures accumulate without a success.
func (s *connState) recordFailure(now time.Time) {
	if s.failures.Add(1) >= s.maxFailures {
		s.markUnreachable(now)
	}
}

// tryReprobe reports whether the caller won the right to re-probe the backend.
// At most one caller wins per cooldown window,
// keeping reconnection out of the per-request path.
func (s *connState) tryReprobe(now time.Time) bool {
	if s.state.Load() != stateUnreachable {
		return false
	}

	next := s.nextProbeAt.Load()
	if now.UnixNano() < next {
		return false
	}

	return s.nextProbeAt.CompareAndSwap(next, now.Add(s.cooldown).UnixNano())
}
