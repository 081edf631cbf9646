package service

import (
	"sync/atomic"
	"time"
)

// Reachability is the last observed backend reachability.
type Reachability struct {
	Known     bool      `json:"known"`
	Reachable bool      `json:"reachable"`
	LatencyMs int64     `json:"latencyMs,omitempty"`
	CheckedAt time.Time `json:"checkedAt,omitzero"`
	Error     string    `json:"error,omitempty"`
	// Source is "ping" or "dispatch".
	Source string `json:"source,omitempty"`
}

// ReachabilityTracker holds the latest Reachability. It is updated by ping
// and by every dispatch that reached a transport-level verdict.
type ReachabilityTracker struct {
	current atomic.Pointer[Reachability]
}

// NewReachabilityTracker returns a tracker with no observation.
func NewReachabilityTracker() *ReachabilityTracker {
	t := &ReachabilityTracker{}
	t.current.Store(&Reachability{})
	return t
}

// Load returns the latest observation.
func (t *ReachabilityTracker) Load() Reachability {
	return *t.current.Load()
}

// Observe records an observation.
func (t *ReachabilityTracker) Observe(source string, reachable bool, latency time.Duration, err error) {
	r := &Reachability{
		Known:     true,
		Reachable: reachable,
		LatencyMs: latency.Milliseconds(),
		CheckedAt: time.Now().UTC(),
		Source:    source,
	}
	if err != nil {
		r.Error = err.Error()
	}
	t.current.Store(r)
}

// Forget discards the observation, e.g. after the backend URL changed.
func (t *ReachabilityTracker) Forget() {
	t.current.Store(&Reachability{})
}
