package txncontext

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/datatrails/go-patriciakv/cacheadapter"
)

// Registry tracks every active Transaction, giving the stuck-transaction
// monitor a way to walk them (spec.md §6's forEachActiveTransaction) and
// giving the entity-iterable cache a place to allocate a fresh
// Transaction id. Guarded by a single RWMutex over the map, mirroring the
// SafeKeylogIndex wrapper style rather than a lock-free structure: the
// registry is walked at most once per monitor tick, not on every query.
type Registry struct {
	mu     sync.RWMutex
	active map[uint64]*Transaction
	nextID atomic.Uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[uint64]*Transaction)}
}

// Begin starts and registers a new transaction.
func (r *Registry) Begin(mutable, cachingRelevant bool, localView *cacheadapter.Generation, creator string) *Transaction {
	t := &Transaction{
		id:              r.nextID.Add(1),
		createdAt:       time.Now(),
		creator:         creator,
		mutable:         mutable,
		cachingRelevant: cachingRelevant,
		current:         true,
		localView:       localView,
	}
	if CaptureStacks {
		t.stack = captureStack()
	}

	r.mu.Lock()
	r.active[t.id] = t
	r.mu.Unlock()
	return t
}

// Finish marks t closed and removes it from the registry.
func (r *Registry) Finish(t *Transaction) {
	t.finish()
	r.mu.Lock()
	delete(r.active, t.id)
	r.mu.Unlock()
}

// ForEachActiveTransaction invokes cb for every transaction currently
// registered, in no particular order. cb runs over a snapshot taken under
// the lock and is invoked with the lock released, so it may call Begin or
// Finish on the same registry.
func (r *Registry) ForEachActiveTransaction(cb func(*Transaction)) {
	r.mu.RLock()
	snapshot := make([]*Transaction, 0, len(r.active))
	for _, t := range r.active {
		snapshot = append(snapshot, t)
	}
	r.mu.RUnlock()

	for _, t := range snapshot {
		cb(t)
	}
}

// Len reports the number of currently active transactions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}
