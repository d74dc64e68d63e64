package cancelpolicy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCanStartAt(t *testing.T) {
	start := time.Now()
	p, err := New(true, start, time.Minute, 50*time.Millisecond, 1)
	require.NoError(t, err)

	require.True(t, p.CanStartAt(start.Add(10*time.Millisecond)))
	require.False(t, p.CanStartAt(start.Add(100*time.Millisecond)))
}

func TestNeedToCancelOnObsoleteGeneration(t *testing.T) {
	start := time.Now()
	p, err := New(true, start, time.Minute, time.Minute, 1)
	require.NoError(t, err)

	require.False(t, p.NeedToCancel(start, 1))
	require.True(t, p.NeedToCancel(start, 2))

	err = p.DoCancel(start, 2)
	var tl *ErrTooLongInstantiation
	require.True(t, errors.As(err, &tl))
	require.Equal(t, CacheAdapterObsolete, tl.Reason)
	require.True(t, errors.Is(err, ErrTooLong))
}

func TestNeedToCancelIgnoresGenerationWhenInconsistent(t *testing.T) {
	start := time.Now()
	p, err := New(false, start, time.Minute, time.Minute, 1)
	require.NoError(t, err)

	require.False(t, p.NeedToCancel(start, 99))
}

func TestDoCancelJobOverdue(t *testing.T) {
	start := time.Now()
	p, err := New(true, start, 10*time.Millisecond, time.Minute, 1)
	require.NoError(t, err)

	later := start.Add(time.Second)
	require.True(t, p.NeedToCancel(later, 1))

	err = p.DoCancel(later, 1)
	var tl *ErrTooLongInstantiation
	require.True(t, errors.As(err, &tl))
	require.Equal(t, JobOverdue, tl.Reason)
}

func TestNewRejectsNonPositiveTimeouts(t *testing.T) {
	_, err := New(true, time.Now(), 0, time.Minute, 1)
	require.Error(t, err)
}
