// Package cacheadapter implements the entity-iterable cache's generation
// snapshot (spec.md §4.F): a versioned, copy-on-replace mapping from
// fingerprint identity to cached value, together with a hit-rate
// estimator, an entry count, and a sparseness predicate. Generations are
// replaced wholesale via compare-and-swap; mutation never happens in
// place — WithPut/WithRemove return a new Generation, leaving the receiver
// untouched, matching the teacher's LogDirCache entries-are-replaced style
// (massifs/logdircache.go) generalised from a mutex-guarded map to a
// lock-free atomic.Pointer swap.
package cacheadapter

import (
	"math"
	"sync/atomic"
)

// Fingerprint is the query fingerprint cache key (spec.md §3): an identity
// usable as a map key, a consistency flag, and an expiry predicate.
type Fingerprint interface {
	// Identity returns a comparable value two equal fingerprints agree on.
	Identity() any
	// Hash returns a hash consistent with Identity: two fingerprints with
	// equal Identity() must return equal Hash(). Used for worker sharding,
	// not for map storage (Identity is the map key).
	Hash() uint64
	// IsConsistent reports whether this computation is guaranteed to yield
	// the same bytes as a synchronous execution.
	IsConsistent() bool
	// Expired reports whether the snapshot this fingerprint was built
	// against is no longer current.
	Expired() bool
	// ResetBirth resets the fingerprint's birth timestamp, used as a
	// keep-alive each time an inconsistent job starts executing.
	ResetBirth()
}

// Entry is a materialised query result plus its fingerprint.
type Entry struct {
	Fingerprint Fingerprint
	Value       any
}

// Generation is an immutable-from-the-reader's-perspective snapshot of the
// fingerprint → Entry mapping. Its hit/miss counters are the one mutable
// part of an otherwise immutable value: they track read-side behaviour for
// AdjustHitRate without requiring a new Generation per hit.
type Generation struct {
	version  uint64
	capacity int
	entries  map[any]Entry

	hits    atomic.Uint64
	misses  atomic.Uint64
	hitRate atomic.Uint64 // bits of a float64 in [0,1], read via HitRate
}

// NewGeneration returns the empty generation 0 with the given capacity used
// by IsSparse's fill-factor threshold.
func NewGeneration(capacity int) *Generation {
	return &Generation{capacity: capacity, entries: make(map[any]Entry)}
}

// Version returns the generation's monotonically increasing version
// number; version 0 is the initial empty generation.
func (g *Generation) Version() uint64 { return g.version }

// Count returns the number of cached entries.
func (g *Generation) Count() int { return len(g.entries) }

// Capacity returns the generation's configured capacity, i.e. the cache's
// configured size rather than its current occupancy. Used by the
// controller's back-pressure predicate, which matches pending jobs against
// configured capacity, not against Count.
func (g *Generation) Capacity() int { return g.capacity }

// IsSparse reports whether the generation's fill factor is low enough that
// the deferred-admission filter (spec.md §4.G) should be bypassed. A
// generation is sparse while it holds less than half its capacity.
func (g *Generation) IsSparse() bool {
	if g.capacity <= 0 {
		return true
	}
	return len(g.entries) < g.capacity/2
}

// Get looks up key, recording a hit or a miss.
func (g *Generation) Get(key any) (Entry, bool) {
	e, ok := g.entries[key]
	if ok {
		g.hits.Add(1)
	} else {
		g.misses.Add(1)
	}
	return e, ok
}

// Peek looks up key without affecting the hit-rate counters, used to
// inspect a generation's contents without perturbing the hit-rate
// estimator (the serve path uses Get instead).
func (g *Generation) Peek(key any) (Entry, bool) {
	e, ok := g.entries[key]
	return e, ok
}

// WithPut returns a new Generation with entry inserted or replaced. If the
// generation is at capacity, one existing entry is evicted first; which one
// is not defined (it is the first key of a map iteration, not the oldest),
// and the eviction happens even when key is already present. The receiver
// is left unmodified.
func (g *Generation) WithPut(key any, entry Entry) *Generation {
	next := &Generation{
		version:  g.version + 1,
		capacity: g.capacity,
		entries:  make(map[any]Entry, len(g.entries)+1),
	}
	for k, v := range g.entries {
		next.entries[k] = v
	}
	if g.capacity > 0 && len(next.entries) >= g.capacity {
		for k := range next.entries {
			delete(next.entries, k)
			break
		}
	}
	next.entries[key] = entry
	return next
}

// WithRemove returns a new Generation with key absent. The receiver is
// left unmodified.
func (g *Generation) WithRemove(key any) *Generation {
	next := &Generation{
		version:  g.version + 1,
		capacity: g.capacity,
		entries:  make(map[any]Entry, len(g.entries)),
	}
	for k, v := range g.entries {
		if k == key {
			continue
		}
		next.entries[k] = v
	}
	return next
}

// AdjustHitRate recomputes the smoothed hit-rate estimate from the
// hits/misses counters accumulated since the last call and resets them, to
// be invoked periodically by the shared timer (spec.md §5).
func (g *Generation) AdjustHitRate() float64 {
	hits := g.hits.Swap(0)
	misses := g.misses.Swap(0)
	total := hits + misses
	var sample float64
	if total > 0 {
		sample = float64(hits) / float64(total)
	} else {
		sample = g.HitRate()
	}
	const smoothing = 0.2
	next := g.HitRate() + smoothing*(sample-g.HitRate())
	g.hitRate.Store(math.Float64bits(next))
	return next
}

// HitRate returns the most recently computed smoothed hit-rate estimate.
func (g *Generation) HitRate() float64 {
	return math.Float64frombits(g.hitRate.Load())
}
