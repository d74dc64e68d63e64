package txncontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datatrails/go-patriciakv/cacheadapter"
	"github.com/datatrails/go-patriciakv/cancelpolicy"
)

func TestBeginAndForEachActiveTransaction(t *testing.T) {
	r := NewRegistry()
	g := cacheadapter.NewGeneration(10)

	tx1 := r.Begin(false, true, g, "worker-1")
	tx2 := r.Begin(true, false, g, "worker-2")
	require.Equal(t, 2, r.Len())

	seen := map[uint64]bool{}
	r.ForEachActiveTransaction(func(tx *Transaction) { seen[tx.id] = true })
	require.True(t, seen[tx1.id])
	require.True(t, seen[tx2.id])

	r.Finish(tx1)
	require.Equal(t, 1, r.Len())
	require.False(t, tx1.IsCurrent())
}

func TestTransactionLocalCacheTelemetryAndPolicy(t *testing.T) {
	r := NewRegistry()
	g := cacheadapter.NewGeneration(10)
	tx := r.Begin(false, true, g, "worker-1")

	tx.LocalCacheAttempt()
	tx.LocalCacheAttempt()
	tx.LocalCacheHit()
	require.Equal(t, uint64(2), tx.Attempts())
	require.Equal(t, uint64(1), tx.Hits())

	_, ok := tx.QueryCancellingPolicy()
	require.False(t, ok)

	p, err := cancelpolicy.New(true, time.Now(), time.Minute, time.Second, g.Version())
	require.NoError(t, err)
	tx.SetQueryCancellingPolicy(p)

	got, ok := tx.QueryCancellingPolicy()
	require.True(t, ok)
	require.Equal(t, p.LocalCacheGeneration, got.LocalCacheGeneration)
}

func TestCaptureStacksOptIn(t *testing.T) {
	r := NewRegistry()
	g := cacheadapter.NewGeneration(10)

	tx := r.Begin(false, true, g, "worker-1")
	_, ok := tx.CreationStack()
	require.False(t, ok)

	CaptureStacks = true
	defer func() { CaptureStacks = false }()

	tx2 := r.Begin(false, true, g, "worker-1")
	stack, ok := tx2.CreationStack()
	require.True(t, ok)
	require.NotEmpty(t, stack)
}
