// Package cancelpolicy implements the query-cancellation policy a caching
// job installs on its transaction before materialising an iterable
// (spec.md §4.E): a wall-clock budget plus a check that the generation the
// job is caching against has not been superseded.
package cancelpolicy

import (
	"errors"
	"time"
)

// Reason identifies why DoCancel failed.
type Reason int

const (
	// CacheAdapterObsolete means the job's local generation no longer
	// matches the environment's current generation.
	CacheAdapterObsolete Reason = iota
	// JobOverdue means the job has exceeded its caching timeout.
	JobOverdue
)

func (r Reason) String() string {
	switch r {
	case CacheAdapterObsolete:
		return "CacheAdapterObsolete"
	case JobOverdue:
		return "JobOverdue"
	default:
		return "unknown"
	}
}

// ErrTooLongInstantiation wraps a cancellation Reason; errors.Is matches
// any TooLongInstantiation regardless of reason, errors.As recovers it to
// read Reason.
type ErrTooLongInstantiation struct {
	Reason Reason
}

func (e *ErrTooLongInstantiation) Error() string {
	return "cancelpolicy: too long instantiation: " + e.Reason.String()
}

// Is reports true for any *ErrTooLongInstantiation, matching the spec's
// "error kind, not type" propagation model regardless of Reason.
func (e *ErrTooLongInstantiation) Is(target error) bool {
	_, ok := target.(*ErrTooLongInstantiation)
	return ok
}

// ErrTooLong lets callers probe for the TooLongInstantiation kind without
// caring about the reason, via errors.Is(err, cancelpolicy.ErrTooLong).
var ErrTooLong = &ErrTooLongInstantiation{}

var errInvalidTimeout = errors.New("cancelpolicy: timeout must be positive")

// Policy is the cancellation budget a caching job carries for the lifetime
// of one materialisation attempt.
type Policy struct {
	IsConsistent         bool
	StartTime            time.Time
	CachingTimeout       time.Duration
	StartCachingTimeout  time.Duration
	LocalCacheGeneration uint64
}

// New builds a Policy for a job starting now. For consistent jobs callers
// pass the full-iterable timeout; for counts-only jobs the counts timeout,
// per spec.md §4.E's "two timeout budgets" note.
func New(isConsistent bool, startTime time.Time, cachingTimeout, startCachingTimeout time.Duration, generation uint64) (Policy, error) {
	if cachingTimeout <= 0 || startCachingTimeout <= 0 {
		return Policy{}, errInvalidTimeout
	}
	return Policy{
		IsConsistent:         isConsistent,
		StartTime:            startTime,
		CachingTimeout:       cachingTimeout,
		StartCachingTimeout:  startCachingTimeout,
		LocalCacheGeneration: generation,
	}, nil
}

// CanStartAt reports whether a job governed by p may still begin execution
// at now, i.e. it has not spent longer than StartCachingTimeout waiting on
// the queue.
func (p Policy) CanStartAt(now time.Time) bool {
	return now.Sub(p.StartTime) < p.StartCachingTimeout
}

// NeedToCancel reports whether the job should abandon materialisation:
// either its generation has been superseded (consistent jobs only) or its
// wall-clock budget has run out.
func (p Policy) NeedToCancel(now time.Time, currentGeneration uint64) bool {
	if p.IsConsistent && currentGeneration != p.LocalCacheGeneration {
		return true
	}
	return now.Sub(p.StartTime) > p.CachingTimeout
}

// DoCancel returns the appropriate TooLongInstantiation error for the
// condition NeedToCancel detected. Callers should call DoCancel only after
// NeedToCancel has returned true for the same (now, currentGeneration).
func (p Policy) DoCancel(now time.Time, currentGeneration uint64) error {
	if p.IsConsistent && currentGeneration != p.LocalCacheGeneration {
		return &ErrTooLongInstantiation{Reason: CacheAdapterObsolete}
	}
	return &ErrTooLongInstantiation{Reason: JobOverdue}
}
