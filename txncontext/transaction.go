// Package txncontext implements the transaction-context interface
// consumed by the rest of the cache (spec.md §6) and the registry the
// stuck-transaction monitor walks (spec.md §4.I). Safe concurrent access
// is provided by wrapping transaction state in a mutex, following the
// hexablock-hexalog SafeKeylogIndex idiom (a thin Safe* wrapper around
// in-memory state guarded by sync.RWMutex) rather than the teacher itself,
// which has no notion of a transaction.
package txncontext

import (
	"runtime"
	"sync"
	"time"

	"github.com/datatrails/go-patriciakv/cacheadapter"
	"github.com/datatrails/go-patriciakv/cancelpolicy"
)

// CaptureStacks controls whether Begin captures a creation stack trace for
// the stuck-transaction monitor's diagnostics (spec.md §4.I). It is a
// package-level knob rather than a per-call option because capturing a
// stack is expensive enough that most deployments only want it while
// chasing a stuck-transaction incident.
var CaptureStacks = false

// Transaction is the mutable per-transaction state the entity-iterable
// cache and the stuck-transaction monitor both read.
type Transaction struct {
	id        uint64
	createdAt time.Time
	creator   string
	stack     string

	mutable         bool
	cachingRelevant bool

	mu        sync.Mutex
	current   bool
	localView *cacheadapter.Generation
	policy    *cancelpolicy.Policy
	attempts  uint64
	hits      uint64
	closed    bool
}

// IsMutable reports whether the transaction may write.
func (t *Transaction) IsMutable() bool { return t.mutable }

// IsCurrent reports whether the transaction is still considered the
// current view, i.e. has not been superseded or finished.
func (t *Transaction) IsCurrent() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current && !t.closed
}

// IsCachingRelevant reports whether results computed under this
// transaction are eligible to populate the shared cache.
func (t *Transaction) IsCachingRelevant() bool { return t.cachingRelevant }

// GetLocalCache returns the generation this transaction opened against.
func (t *Transaction) GetLocalCache() *cacheadapter.Generation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.localView
}

// LocalCacheAttempt records a local-cache lookup attempt (telemetry).
func (t *Transaction) LocalCacheAttempt() {
	t.mu.Lock()
	t.attempts++
	t.mu.Unlock()
}

// LocalCacheHit records a local-cache hit (telemetry).
func (t *Transaction) LocalCacheHit() {
	t.mu.Lock()
	t.hits++
	t.mu.Unlock()
}

// Attempts and Hits expose the accumulated local-cache telemetry.
func (t *Transaction) Attempts() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

func (t *Transaction) Hits() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hits
}

// SetQueryCancellingPolicy installs the cancellation policy a caching job
// running on behalf of this transaction should honour.
func (t *Transaction) SetQueryCancellingPolicy(p cancelpolicy.Policy) {
	t.mu.Lock()
	t.policy = &p
	t.mu.Unlock()
}

// QueryCancellingPolicy returns the installed policy, if any.
func (t *Transaction) QueryCancellingPolicy() (cancelpolicy.Policy, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.policy == nil {
		return cancelpolicy.Policy{}, false
	}
	return *t.policy, true
}

// CreatedAt returns the transaction's creation time.
func (t *Transaction) CreatedAt() time.Time { return t.createdAt }

// Creator returns the creating goroutine/thread's identity label.
func (t *Transaction) Creator() string { return t.creator }

// CreationStack returns the captured creation stack trace, if
// CaptureStacks was enabled when this transaction began, and ok=false
// otherwise.
func (t *Transaction) CreationStack() (string, bool) {
	return t.stack, t.stack != ""
}

// finish marks the transaction closed; it is called by Registry.Finish.
func (t *Transaction) finish() {
	t.mu.Lock()
	t.closed = true
	t.current = false
	t.mu.Unlock()
}

func captureStack() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
