package deferred

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMapLRUEviction(t *testing.T) {
	m := New(2)
	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("c", 3) // evicts "a"

	_, ok := m.Get("a")
	require.False(t, ok)
	v, ok := m.Get("b")
	require.True(t, ok)
	require.Equal(t, 2, v)
	v, ok = m.Get("c")
	require.True(t, ok)
	require.Equal(t, 3, v)
}

func TestMapPutExistingMovesToFront(t *testing.T) {
	m := New(2)
	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("a", 10) // touch "a", making "b" the eviction candidate
	m.Put("c", 3)

	_, ok := m.Get("b")
	require.False(t, ok)
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 10, v)
}

func TestDeferredMapTwoStageAdmission(t *testing.T) {
	d := NewDeferredMap(100)
	t0 := time.Unix(0, 0)

	require.False(t, d.Probe("fp", t0, 500*time.Millisecond))
	require.False(t, d.Probe("fp", t0.Add(200*time.Millisecond), 500*time.Millisecond))
	require.True(t, d.Probe("fp", t0.Add(600*time.Millisecond), 500*time.Millisecond))

	// Admission removes the entry; a fresh probe starts the clock over.
	require.Equal(t, 0, d.Len())
	require.False(t, d.Probe("fp", t0.Add(601*time.Millisecond), 500*time.Millisecond))
}

func TestCountsCacheHitMiss(t *testing.T) {
	c := NewCountsCache(10)
	c.Set("h", 42)

	v, ok := c.Get("h")
	require.True(t, ok)
	require.Equal(t, int64(42), v)

	_, ok = c.Get("h2")
	require.False(t, ok)

	hits, misses := c.HitsAndMisses()
	require.Equal(t, int64(1), hits)
	require.Equal(t, int64(1), misses)
}
