package entitycache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/datatrails/go-patriciakv/cacheadapter"
	"github.com/datatrails/go-patriciakv/cancelpolicy"
)

// priority mirrors spec.md §6's background-task-scheduler priorities: a job
// starts at normal and drops to belowNormal on its one permitted
// read-only-conflict re-enqueue.
type priority int

const (
	priorityNormal priority = iota
	priorityBelowNormal
)

// jobKey is a caching job's identity (spec.md §4.H): equal fingerprint
// identity and equal consistency class coalesce onto the same job.
type jobKey struct {
	identity     any
	isConsistent bool
}

// job is one in-flight (queued or executing) caching job. wantFull and
// wantCounts track which callers are waiting on it: a counts-only request
// that arrives while a full-materialisation job for the same key is
// in-flight piggybacks on it instead of starting a second materialisation,
// and vice versa.
type job struct {
	key jobKey
	fp  cacheadapter.Fingerprint
	it  Iterable

	wantFull   bool
	wantCounts bool

	enqueuedAt time.Time

	hasRequeued bool
	requeuedGen uint64
}

func (j *job) canStartAt(now time.Time, startCachingTimeout time.Duration) bool {
	return now.Sub(j.enqueuedAt) < startCachingTimeout
}

// enqueue schedules a full-materialisation job for it, coalescing onto an
// existing in-flight job for the same fingerprint/consistency if one is
// already queued or running (spec.md IV-7).
func (c *Controller) enqueue(fp cacheadapter.Fingerprint, it Iterable, pri priority) {
	c.enqueueJob(fp, it, pri, true, false)
}

// enqueueCounts schedules a counts-only job, coalescing the same way.
func (c *Controller) enqueueCounts(fp cacheadapter.Fingerprint, it Iterable, pri priority) {
	c.enqueueJob(fp, it, pri, false, true)
}

func (c *Controller) enqueueJob(fp cacheadapter.Fingerprint, it Iterable, pri priority, wantFull, wantCounts bool) {
	key := jobKey{identity: fp.Identity(), isConsistent: fp.IsConsistent()}

	c.inFlightMu.Lock()
	if existing, ok := c.inFlight[key]; ok {
		existing.wantFull = existing.wantFull || wantFull
		existing.wantCounts = existing.wantCounts || wantCounts
		c.inFlightMu.Unlock()
		c.tel.JobsNotEnqueued.Add(1)
		if wantCounts {
			c.tel.CountJobsEnqueued.Add(1)
		}
		return
	}
	if c.IsCachingQueueFull() {
		c.inFlightMu.Unlock()
		c.tel.JobsNotEnqueued.Add(1)
		return
	}
	j := &job{
		key:        key,
		fp:         fp,
		it:         it,
		wantFull:   wantFull,
		wantCounts: wantCounts,
		enqueuedAt: time.Now(),
	}
	c.inFlight[key] = j
	c.inFlightMu.Unlock()

	c.pending.Add(1)
	c.tel.JobsEnqueued.Add(1)
	if wantCounts {
		c.tel.CountJobsEnqueued.Add(1)
	}
	c.dispatch(j, pri)
}

// shardFor implements spec.md §5's "consistency-class sharding": consistent
// jobs and inconsistent jobs run on disjoint worker subsets, selected
// explicitly rather than by hash-bit mangling (per the §9 design note).
// Rather than toggling parity on a single hash (which wraps and loses
// disjointness for an odd worker count), the worker set is split into two
// contiguous, non-overlapping ranges and each class hashes only within its
// own range. This is disjoint for any n>=2, including odd n.
func (c *Controller) shardFor(j *job) int {
	n := len(c.queues)
	if n < 2 {
		return 0
	}
	half := n / 2
	if j.key.isConsistent {
		return int(j.fp.Hash() % uint64(half))
	}
	return half + int(j.fp.Hash()%uint64(n-half))
}

func (c *Controller) dispatch(j *job, pri priority) {
	c.queues[c.shardFor(j)].push(j, pri)
}

func (c *Controller) runWorker(id int) {
	defer c.wg.Done()
	q := c.queues[id]
	for {
		j, ok := q.pop(c.closing)
		if !ok {
			return
		}
		c.executeJob(id, j)
	}
}

func (c *Controller) finishJob(j *job) {
	c.inFlightMu.Lock()
	delete(c.inFlight, j.key)
	c.inFlightMu.Unlock()
	c.pending.Add(-1)
}

// requeue implements the bounded re-enqueue-on-ReadonlyConflict policy: one
// re-queue is permitted per job identity per generation. A second conflict
// against the same generation is treated as interrupted rather than
// re-queued again.
func (c *Controller) requeue(j *job, generation uint64) bool {
	if j.hasRequeued && j.requeuedGen == generation {
		return false
	}
	j.hasRequeued = true
	j.requeuedGen = generation
	c.dispatch(j, priorityBelowNormal)
	return true
}

func (c *Controller) executeJob(workerID int, j *job) {
	now := time.Now()
	if c.IsCachingQueueFull() || !j.canStartAt(now, c.cfg.EntityIterableCacheStartCachingTimeout) {
		c.tel.JobsNotStarted.Add(1)
		c.finishJob(j)
		return
	}
	c.tel.JobsStarted.Add(1)

	gen := c.adapter.Load()
	tx := c.registry.Begin(false, true, gen, fmt.Sprintf("caching-worker-%d", workerID))
	defer c.registry.Finish(tx)

	if !j.key.isConsistent {
		j.fp.ResetBirth()
	}

	timeout := c.cfg.EntityIterableCacheCachingTimeout
	if !j.key.isConsistent {
		timeout = c.cfg.EntityIterableCacheCountsCachingTimeout
	}
	policy, err := cancelpolicy.New(j.key.isConsistent, j.enqueuedAt, timeout, c.cfg.EntityIterableCacheStartCachingTimeout, gen.Version())
	if err != nil {
		c.tel.JobsInterrupted.Add(1)
		c.finishJob(j)
		return
	}
	tx.SetQueryCancellingPolicy(policy)

	ctx := withCachingWorker(context.Background())

	val, err := j.it.Materialize(ctx, tx)
	if err != nil {
		if errors.Is(err, ErrReadonlyConflict) {
			if c.requeue(j, gen.Version()) {
				return
			}
		}
		c.tel.JobsInterrupted.Add(1)
		c.finishJob(j)
		return
	}

	if policy.NeedToCancel(time.Now(), c.adapter.Load().Version()) {
		c.tel.JobsInterrupted.Add(1)
		c.finishJob(j)
		return
	}

	if j.wantFull {
		current := c.adapter.Load()
		if current.Version() == gen.Version() {
			next := current.WithPut(j.fp.Identity(), cacheadapter.Entry{Fingerprint: j.fp, Value: val})
			c.adapter.CompareAndSwap(current, next)
		}
	}
	if j.wantCounts {
		c.SetCachedCount(j.fp, val.Size())
	}
	c.finishJob(j)
}
