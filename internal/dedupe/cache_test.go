package dedupe_test

import (
	"testing"
	"time"

	"github.com/DeafMist/signal-radar/internal/dedupe"
	"github.com/stretchr/testify/require"
)

func TestCacheMarksSeen(t *testing.T) {
	cache := dedupe.NewCache(10, time.Minute)
	require.False(t, cache.IsSeen("alpha"))
	cache.MarkSeen("alpha")
	require.True(t, cache.IsSeen("alpha"))
	require.Equal(t, 1, cache.Len())
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := dedupe.NewCache(10, 20*time.Millisecond)
	cache.MarkSeen("beta")
	time.Sleep(25 * time.Millisecond)
	require.False(t, cache.IsSeen("beta"))
}

func TestCacheCapacityEvictsOldest(t *testing.T) {
	cache := dedupe.NewCache(1, time.Minute)
	cache.MarkSeen("first")
	cache.MarkSeen("second")

	require.False(t, cache.IsSeen("first"))
	require.True(t, cache.IsSeen("second"))
}

func TestCacheRetain(t *testing.T) {
	cache := dedupe.NewCache(10, time.Minute)
	cache.MarkSeen("keep")
	cache.MarkSeen("drop")
	cache.MarkSeen("gone")

	dropped := cache.Retain(map[string]struct{}{"keep": {}})
	require.Equal(t, 2, dropped)
	require.True(t, cache.IsSeen("keep"))
	require.False(t, cache.IsSeen("drop"))
	require.Equal(t, 1, cache.Len())

	require.Zero(t, cache.Retain(map[string]struct{}{"keep": {}}))
}
