package cacheadapter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithPutLeavesReceiverUnmodified(t *testing.T) {
	g0 := NewGeneration(10)
	g1 := g0.WithPut("a", Entry{Value: 1})

	require.Equal(t, 0, g0.Count())
	require.Equal(t, 1, g1.Count())
	require.Equal(t, uint64(1), g1.Version())

	_, ok := g0.Get("a")
	require.False(t, ok)
	e, ok := g1.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, e.Value)
}

func TestWithRemove(t *testing.T) {
	g0 := NewGeneration(10).WithPut("a", Entry{Value: 1}).WithPut("b", Entry{Value: 2})
	g1 := g0.WithRemove("a")

	require.Equal(t, 2, g0.Count())
	require.Equal(t, 1, g1.Count())
	_, ok := g1.Get("a")
	require.False(t, ok)
}

func TestIsSparse(t *testing.T) {
	g := NewGeneration(10)
	require.True(t, g.IsSparse())

	for i := 0; i < 6; i++ {
		g = g.WithPut(i, Entry{Value: i})
	}
	require.False(t, g.IsSparse())
}

func TestAdjustHitRate(t *testing.T) {
	g := NewGeneration(10)
	require.Equal(t, float64(0), g.HitRate())

	g.Get("missing")
	rate := g.AdjustHitRate()
	require.Equal(t, float64(0), rate)

	g = g.WithPut("a", Entry{Value: 1})
	g.Get("a")
	rate = g.AdjustHitRate()
	require.Greater(t, rate, float64(0))
}

func TestHolderCompareAndSwap(t *testing.T) {
	h := NewHolder(10)
	g0 := h.Load()

	g1 := g0.WithPut("a", Entry{Value: 1})
	require.True(t, h.CompareAndSwap(g0, g1))
	require.Same(t, g1, h.Load())

	g2 := g0.WithPut("b", Entry{Value: 2})
	require.False(t, h.CompareAndSwap(g0, g2))
	require.Same(t, g1, h.Load())
}
