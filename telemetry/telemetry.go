// Package telemetry exposes the entity-iterable cache's counters (spec.md
// §6, "Telemetry surface (exposed)"): a small struct of atomic primitives,
// snapshotted on demand, in the teacher's LogActivity style
// (massifs/watcher/logactivity.go) rather than a metrics-framework client —
// no repo in the retrieval pack pulls in a metrics library for counters of
// this shape.
package telemetry

import "sync/atomic"

// Counters accumulates the entity-iterable cache's telemetry for its
// lifetime. All fields are safe for concurrent increment.
type Counters struct {
	Hits              atomic.Uint64
	Misses            atomic.Uint64
	CountHits         atomic.Uint64
	CountMisses       atomic.Uint64
	JobsEnqueued      atomic.Uint64
	JobsNotEnqueued   atomic.Uint64
	JobsStarted       atomic.Uint64
	JobsNotStarted    atomic.Uint64
	JobsInterrupted   atomic.Uint64
	CountJobsEnqueued atomic.Uint64
	StuckTransactions atomic.Uint64
}

// Snapshot is an immutable point-in-time read of Counters, suitable for
// logging or exposing over an admin endpoint.
type Snapshot struct {
	Hits              uint64
	Misses            uint64
	CountHits         uint64
	CountMisses       uint64
	JobsEnqueued      uint64
	JobsNotEnqueued   uint64
	JobsStarted       uint64
	JobsNotStarted    uint64
	JobsInterrupted   uint64
	CountJobsEnqueued uint64
	StuckTransactions uint64
	FullCacheHitRate  float64
	CountsHitRate     float64
}

// Snapshot reads every counter. fullCacheHitRate and countsHitRate are
// supplied by the caller since the hit-rate estimate lives on the
// cacheadapter.Generation, not here.
func (c *Counters) Snapshot(fullCacheHitRate, countsHitRate float64) Snapshot {
	return Snapshot{
		Hits:              c.Hits.Load(),
		Misses:            c.Misses.Load(),
		CountHits:         c.CountHits.Load(),
		CountMisses:       c.CountMisses.Load(),
		JobsEnqueued:      c.JobsEnqueued.Load(),
		JobsNotEnqueued:   c.JobsNotEnqueued.Load(),
		JobsStarted:       c.JobsStarted.Load(),
		JobsNotStarted:    c.JobsNotStarted.Load(),
		JobsInterrupted:   c.JobsInterrupted.Load(),
		CountJobsEnqueued: c.CountJobsEnqueued.Load(),
		StuckTransactions: c.StuckTransactions.Load(),
		FullCacheHitRate:  fullCacheHitRate,
		CountsHitRate:     countsHitRate,
	}
}
