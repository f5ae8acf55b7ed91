package metrics

import (
	"sync/atomic"
	"time"
)

// SourceStats counts fetch outcomes for one upstream source.
type SourceStats struct {
	attempts    atomic.Int64
	successes   atomic.Int64
	failures    atomic.Int64
	discarded   atomic.Int64
	lastSuccess atomic.Int64
	lastFailure atomic.Int64
}

// SourceSnapshot is the serializable view of SourceStats.
type SourceSnapshot struct {
	Attempts    int64      `json:"attempts"`
	Successes   int64      `json:"successes"`
	Failures    int64      `json:"failures"`
	Discarded   int64      `json:"discarded"`
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`
	LastFailure *time.Time `json:"lastFailure,omitempty"`
}

func (s *SourceStats) Attempt() { s.attempts.Add(1) }

func (s *SourceStats) Success(at time.Time) {
	s.successes.Add(1)
	s.lastSuccess.Store(at.UnixNano())
}

func (s *SourceStats) Failure(at time.Time) {
	s.failures.Add(1)
	s.lastFailure.Store(at.UnixNano())
}

// Discard records a result that arrived after its activation was stopped.
func (s *SourceStats) Discard() { s.discarded.Add(1) }

// Snapshot copies the counters.
func (s *SourceStats) Snapshot() SourceSnapshot {
	return SourceSnapshot{
		Attempts:    s.attempts.Load(),
		Successes:   s.successes.Load(),
		Failures:    s.failures.Load(),
		Discarded:   s.discarded.Load(),
		LastSuccess: unixNanoPtr(s.lastSuccess.Load()),
		LastFailure: unixNanoPtr(s.lastFailure.Load()),
	}
}

func unixNanoPtr(v int64) *time.Time {
	if v == 0 {
		return nil
	}
	ts := time.Unix(0, v).UTC()
	return &ts
}
