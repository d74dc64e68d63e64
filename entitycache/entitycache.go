// Package entitycache implements the entity-iterable cache controller
// (spec.md §4.H): the orchestration layer sitting on top of cacheadapter's
// generations, deferred's admission filter and counts sub-cache, and
// cancelpolicy's cancellation budgets. It is grounded on the teacher's
// DirCache controller shape (massifs/logdircache.go) for the hit/miss read
// path, and on the background-collation idiom of
// massifs/watcher/tailcollator.go for the worker pool that drives
// asynchronous materialisation.
package entitycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/datatrails/go-patriciakv/cacheadapter"
	"github.com/datatrails/go-patriciakv/deferred"
	"github.com/datatrails/go-patriciakv/engineconfig"
	"github.com/datatrails/go-patriciakv/telemetry"
	"github.com/datatrails/go-patriciakv/txncontext"
)

// ErrReadonlyConflict is returned by Iterable.Materialize when the
// underlying read-only transaction observed a concurrent write it cannot
// tolerate. The controller's async job handler re-enqueues on this error,
// bounded per jobKey per generation (see job.go).
var ErrReadonlyConflict = errors.New("entitycache: readonly conflict")

// Cached is a materialised query result. Size is consulted by
// GetCachedCountForIterable's synchronous fallback.
type Cached interface {
	Size() int64
}

// Iterable is a cacheable query result, not yet materialised.
type Iterable interface {
	// CanBeCached reports whether this particular iterable is eligible for
	// caching at all (some queries are inherently one-shot).
	CanBeCached() bool
	// ThreadSafe reports whether Materialize may run concurrently with the
	// caller, i.e. whether an asynchronous counts job may be scheduled for
	// it when no cached count is present yet.
	ThreadSafe() bool
	// Fingerprint returns this iterable's cache key.
	Fingerprint() cacheadapter.Fingerprint
	// Materialize computes the full result under tx. ctx is tagged as a
	// caching-worker context when Materialize runs on a caching worker, so
	// that a nested PutIfNotCached/GetCachedCountForIterable call (e.g. for
	// a sub-query) can itself choose the synchronous path. Returns
	// ErrReadonlyConflict if tx observed a conflicting concurrent write.
	Materialize(ctx context.Context, tx *txncontext.Transaction) (Cached, error)
}

type workerKey struct{}

// withCachingWorker tags ctx as running on a caching-worker goroutine, per
// spec.md §9's "thread-local tag set on worker entry, not thread-identity
// comparison" design note.
func withCachingWorker(ctx context.Context) context.Context {
	return context.WithValue(ctx, workerKey{}, true)
}

// isCachingWorker reports whether ctx was tagged by withCachingWorker.
func isCachingWorker(ctx context.Context) bool {
	v, _ := ctx.Value(workerKey{}).(bool)
	return v
}

// Controller is the entity-iterable cache's orchestration layer: one per
// environment, holding the shared generation, the deferred-admission
// filter, the counts sub-cache, and a fixed-size pool of caching workers.
type Controller struct {
	cfg      engineconfig.Options
	adapter  *cacheadapter.Holder
	deferred *deferred.DeferredMap
	counts   *deferred.CountsCache
	registry *txncontext.Registry
	tel      *telemetry.Counters

	queues  []*priorityQueue
	pending atomic.Int64

	inFlightMu sync.Mutex
	inFlight   map[jobKey]*job

	closing chan struct{}
	wg      sync.WaitGroup
}

// New builds a Controller and starts its worker pool. Close stops it.
func New(cfg engineconfig.Options, adapter *cacheadapter.Holder, registry *txncontext.Registry, tel *telemetry.Counters) *Controller {
	n := cfg.EntityIterableCacheThreadCount
	if n <= 0 {
		n = 1
	}
	c := &Controller{
		cfg:      cfg,
		adapter:  adapter,
		deferred: deferred.NewDeferredMap(cfg.EntityIterableCacheSize),
		counts:   deferred.NewCountsCache(cfg.EntityIterableCacheCountsCacheSize),
		registry: registry,
		tel:      tel,
		queues:   make([]*priorityQueue, n),
		inFlight: make(map[jobKey]*job),
		closing:  make(chan struct{}),
	}
	for i := range c.queues {
		c.queues[i] = newPriorityQueue()
	}
	for i := 0; i < n; i++ {
		c.wg.Add(1)
		go c.runWorker(i)
	}
	return c
}

// Close stops every worker, waiting for in-flight jobs to observe closing.
func (c *Controller) Close() {
	close(c.closing)
	c.wg.Wait()
}

// IsCachingQueueFull implements spec.md §4.H's back-pressure predicate:
// refuse to enqueue more jobs than the cache has configured capacity for.
// This compares against the cache's configured size, not its current
// occupancy (Count), matching the original's pendingJobs() > size() (as
// opposed to the count() used elsewhere) so that an empty or sparse cache
// can still bootstrap its first entries.
func (c *Controller) IsCachingQueueFull() bool {
	return c.pending.Load() > int64(c.adapter.Load().Capacity())
}

// PutIfNotCached implements spec.md §4.H's putIfNotCached operation.
func (c *Controller) PutIfNotCached(ctx context.Context, tx *txncontext.Transaction, it Iterable) (any, error) {
	if c.cfg.IsCachingDisabled || !it.CanBeCached() {
		return it, nil
	}

	fp := it.Fingerprint()
	localView := tx.GetLocalCache()
	tx.LocalCacheAttempt()

	if localView != nil {
		if entry, ok := localView.Get(fp.Identity()); ok {
			if !fp.Expired() {
				tx.LocalCacheHit()
				c.tel.Hits.Add(1)
				return entry.Value, nil
			}
			// Expired: fall through to a miss; the stale entry is simply
			// not reused, it is not explicitly removed here since the
			// generation is an immutable snapshot the transaction does not
			// own. The Get above already counted it as a hit against
			// hits/misses (it was present), matching the original's
			// lookup-then-validate order.
		}
	}
	c.tel.Misses.Add(1)

	if tx.IsMutable() || !tx.IsCurrent() || !tx.IsCachingRelevant() {
		return it, nil
	}

	if localView != nil && !localView.IsSparse() {
		if !c.deferred.Probe(fp.Identity(), time.Now(), c.cfg.EntityIterableCacheDeferredDelay) {
			return it, nil
		}
	}

	if isCachingWorker(ctx) {
		val, err := it.Materialize(ctx, tx)
		if err != nil {
			return it, err
		}
		return val, nil
	}

	c.enqueue(fp, it, priorityNormal)
	return it, nil
}

// GetCachedCountByFingerprint implements the fingerprint overload of
// spec.md §4.H's getCachedCount.
func (c *Controller) GetCachedCountByFingerprint(fp cacheadapter.Fingerprint) (int64, bool) {
	count, ok := c.counts.Get(fp.Identity())
	if ok {
		c.tel.CountHits.Add(1)
	} else {
		c.tel.CountMisses.Add(1)
	}
	return count, ok
}

// GetCachedCountForIterable implements the iterable overload of spec.md
// §4.H's getCachedCount: on a miss, materialise synchronously if already on
// a caching worker, otherwise schedule an asynchronous counts job when the
// iterable is thread-safe and return -1.
func (c *Controller) GetCachedCountForIterable(ctx context.Context, tx *txncontext.Transaction, it Iterable) (int64, error) {
	fp := it.Fingerprint()
	if count, ok := c.GetCachedCountByFingerprint(fp); ok {
		return count, nil
	}

	if isCachingWorker(ctx) {
		val, err := it.Materialize(ctx, tx)
		if err != nil {
			return -1, err
		}
		c.SetCachedCount(fp, val.Size())
		return val.Size(), nil
	}

	if it.ThreadSafe() {
		c.enqueueCounts(fp, it, priorityNormal)
	}
	return -1, nil
}

// SetCachedCount implements spec.md §4.H's setCachedCount.
func (c *Controller) SetCachedCount(fp cacheadapter.Fingerprint, count int64) {
	c.counts.Set(fp.Identity(), count)
}

// AdjustHitRate recomputes the current generation's smoothed hit-rate
// estimate (spec.md §5's periodic task, driven by the shared timer
// alongside the stuck-transaction monitor; see txnmonitor.HitRateAdjuster).
func (c *Controller) AdjustHitRate() float64 {
	return c.adapter.Load().AdjustHitRate()
}

// CountsHitRate returns the counts sub-cache's lifetime hit rate, for
// telemetry.Counters.Snapshot's countsHitRate argument.
func (c *Controller) CountsHitRate() float64 {
	hits, misses := c.counts.HitsAndMisses()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
