package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewFixedWindowLimiter(rdb, map[string]int{"query": limit}), mr
}

func TestAllowWithinLimit(t *testing.T) {
	l, _ := newTestLimiter(t, 10)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		allowed, err := l.Allow(ctx, "tenant-1", "query")
		require.NoError(t, err)
		assert.True(t, allowed, "call %d should be allowed", i+1)
	}

	allowed, err := l.Allow(ctx, "tenant-1", "query")
	require.NoError(t, err)
	assert.False(t, allowed, "11th call in the window should be denied")
}

func TestWindowRolloverResetsCounter(t *testing.T) {
	l, mr := newTestLimiter(t, 2)
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return base }

	for i := 0; i < 2; i++ {
		allowed, err := l.Allow(ctx, "tenant-1", "query")
		require.NoError(t, err)
		require.True(t, allowed)
	}
	allowed, err := l.Allow(ctx, "tenant-1", "query")
	require.NoError(t, err)
	require.False(t, allowed)

	// Advance into the next minute window; the old counter also ages out
	// of Redis via its TTL.
	l.now = func() time.Time { return base.Add(time.Minute) }
	mr.FastForward(time.Minute)

	allowed, err = l.Allow(ctx, "tenant-1", "query")
	require.NoError(t, err)
	assert.True(t, allowed, "a call in the next window should be allowed again")
}

func TestTenantsAreCountedIndependently(t *testing.T) {
	l, _ := newTestLimiter(t, 1)
	ctx := context.Background()

	allowed, err := l.Allow(ctx, "tenant-1", "query")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = l.Allow(ctx, "tenant-1", "query")
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = l.Allow(ctx, "tenant-2", "query")
	require.NoError(t, err)
	assert.True(t, allowed, "tenant-2 must not share tenant-1's counter")
}

func TestUnconfiguredOperationIsAlwaysAllowed(t *testing.T) {
	l, _ := newTestLimiter(t, 1)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := l.Allow(ctx, "tenant-1", "health")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}
