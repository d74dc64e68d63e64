// Package deferred implements the bounded, approximately-LRU maps used by
// the two-stage admission filter and the counts sub-cache (spec.md §3,
// §4.G): fingerprint identity → first-seen timestamp, and fingerprint
// identity → cardinality, both capped and evicting least-recently-used on
// overflow.
//
// The container/list + map idiom is grounded on the retrieval pack's
// KilimcininKorOglu-oba LRUCache (internal/storage/lru.go); the teacher
// itself has no bounded cache of this shape, so this package enriches from
// a sibling example rather than the teacher.
package deferred

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	key   any
	value any
}

// Map is a bounded, approximately-LRU map from an opaque comparable key to
// an arbitrary value. "Approximately" because recency is updated only by
// Put, not on every read: a Get alone does not reorder the list,
// trading strict LRU fidelity for a read path with no write barrier.
type Map struct {
	mu       sync.Mutex
	capacity int
	list     *list.List
	entries  map[any]*list.Element
}

// New returns an empty Map capped at capacity entries. capacity <= 0 means
// unbounded.
func New(capacity int) *Map {
	return &Map{
		capacity: capacity,
		list:     list.New(),
		entries:  make(map[any]*list.Element),
	}
}

// Get returns the value stored for key, if any.
func (m *Map) Get(key any) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	elem, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	return elem.Value.(*entry).value, true
}

// Put inserts or replaces the value for key, moving it to the front of the
// recency list and evicting the least-recently-used entry if the map is at
// capacity.
func (m *Map) Put(key, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if elem, ok := m.entries[key]; ok {
		elem.Value.(*entry).value = value
		m.list.MoveToFront(elem)
		return
	}
	if m.capacity > 0 && len(m.entries) >= m.capacity {
		m.evictOldest()
	}
	elem := m.list.PushFront(&entry{key: key, value: value})
	m.entries[key] = elem
}

// Remove deletes key, if present.
func (m *Map) Remove(key any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if elem, ok := m.entries[key]; ok {
		m.list.Remove(elem)
		delete(m.entries, key)
	}
}

// Len reports the number of entries currently held.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Map) evictOldest() {
	elem := m.list.Back()
	if elem == nil {
		return
	}
	m.list.Remove(elem)
	delete(m.entries, elem.Value.(*entry).key)
}

// DeferredMap specialises Map to the deferred-admission filter's
// fingerprint → first-seen-timestamp mapping.
type DeferredMap struct {
	m *Map
}

// NewDeferredMap returns a deferred-admission map capped at capacity
// entries.
func NewDeferredMap(capacity int) *DeferredMap {
	return &DeferredMap{m: New(capacity)}
}

// Probe implements spec.md §4.G's two-stage admission filter: on first
// sighting of key it records now and returns false (not admitted); on a
// later sighting it admits once now has advanced at least deferredDelay
// past the first sighting.
func (d *DeferredMap) Probe(key any, now time.Time, deferredDelay time.Duration) bool {
	v, ok := d.m.Get(key)
	if !ok {
		d.m.Put(key, now)
		return false
	}
	firstSeen := v.(time.Time)
	if now.Sub(firstSeen) < deferredDelay {
		return false
	}
	d.m.Remove(key)
	return true
}

// Len reports the number of fingerprints currently deferred.
func (d *DeferredMap) Len() int { return d.m.Len() }

// CountsCache specialises Map to the counts sub-cache's fingerprint →
// cardinality mapping, independent of the full-iterable cache.
type CountsCache struct {
	m *Map

	hits   int64
	misses int64
	mu     sync.Mutex
}

// NewCountsCache returns a counts sub-cache capped at capacity entries.
func NewCountsCache(capacity int) *CountsCache {
	return &CountsCache{m: New(capacity)}
}

// Get looks up the cached count for key, recording a count hit or miss.
func (c *CountsCache) Get(key any) (int64, bool) {
	v, ok := c.m.Get(key)
	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	if !ok {
		return 0, false
	}
	return v.(int64), true
}

// Set installs count for key.
func (c *CountsCache) Set(key any, count int64) {
	c.m.Put(key, count)
}

// HitsAndMisses returns the accumulated count-hit and count-miss totals.
func (c *CountsCache) HitsAndMisses() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len reports the number of cached counts.
func (c *CountsCache) Len() int { return c.m.Len() }
