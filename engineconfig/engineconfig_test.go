package engineconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	o := New()
	require.Equal(t, 4096, o.EntityIterableCacheSize)
	require.False(t, o.IsCachingDisabled)
}

func TestOptionsOverrideDefaults(t *testing.T) {
	o := New(
		WithEntityIterableCacheSize(10),
		WithCachingDisabled(true),
		WithEntityIterableCacheDeferredDelay(250*time.Millisecond),
	)
	require.Equal(t, 10, o.EntityIterableCacheSize)
	require.True(t, o.IsCachingDisabled)
	require.Equal(t, 250*time.Millisecond, o.EntityIterableCacheDeferredDelay)
	require.Equal(t, 4096, o.EntityIterableCacheCountsCacheSize)
}
