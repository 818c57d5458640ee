package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingCounterStore simulates an unreachable shared store.
type failingCounterStore struct {
	calls int
}

func (s *failingCounterStore) Incr(_ context.Context, _ string, _ time.Duration) (int64, error) {
	s.calls++
	return 0, errors.New("store down")
}

func TestFixedWindowLimiter_Allow(t *testing.T) {
	limiter := NewFixedWindowLimiter(nil, Config{MaxRequests: 3, Window: time.Second}, nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := limiter.Allow(ctx, "COUPANG", "vendor-1")
		assert.True(t, d.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 2-i, d.Remaining)
		assert.Zero(t, d.RetryAfter)
	}

	d := limiter.Allow(ctx, "COUPANG", "vendor-1")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.GreaterOrEqual(t, d.RetryAfter, time.Second)
	assert.LessOrEqual(t, d.RetryAfter, 2*time.Second)
}

func TestFixedWindowLimiter_WindowRollover(t *testing.T) {
	limiter := NewFixedWindowLimiter(nil, Config{MaxRequests: 1, Window: time.Second}, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	assert.True(t, limiter.Allow(ctx, "ELEVEN", "seller-1").Allowed)
	assert.False(t, limiter.Allow(ctx, "ELEVEN", "seller-1").Allowed)

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow(ctx, "ELEVEN", "seller-1").Allowed)
}

func TestFixedWindowLimiter_IdentifiersAreIndependent(t *testing.T) {
	limiter := NewFixedWindowLimiter(nil, Config{MaxRequests: 1, Window: time.Second}, nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }

	ctx := context.Background()
	assert.True(t, limiter.Allow(ctx, "COUPANG", "vendor-1").Allowed)
	assert.False(t, limiter.Allow(ctx, "COUPANG", "vendor-1").Allowed)

	assert.True(t, limiter.Allow(ctx, "COUPANG", "vendor-2").Allowed)
	assert.True(t, limiter.Allow(ctx, "ELEVEN", "vendor-1").Allowed)
}

func TestFixedWindowLimiter_FailsOpenOnStoreError(t *testing.T) {
	store := &failingCounterStore{}
	limiter := NewFixedWindowLimiter(store, Config{MaxRequests: 2, Window: time.Second}, nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }

	ctx := context.Background()

	// The in-process fallback still enforces the ceiling.
	assert.True(t, limiter.Allow(ctx, "COUPANG", "vendor-1").Allowed)
	assert.True(t, limiter.Allow(ctx, "COUPANG", "vendor-1").Allowed)
	assert.False(t, limiter.Allow(ctx, "COUPANG", "vendor-1").Allowed)
	assert.Equal(t, 3, store.calls)
}

func TestKey(t *testing.T) {
	windowStart := time.UnixMilli(1700000000000)
	assert.Equal(t, "ratelimit:COUPANG:vendor-1:1700000000000", Key("COUPANG", "vendor-1", windowStart))
}

func TestMemoryCounterStore_Expiry(t *testing.T) {
	store := NewMemoryCounterStore()
	defer store.Close()

	ctx := context.Background()
	count, err := store.Incr(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.Incr(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	time.Sleep(20 * time.Millisecond)
	count, err = store.Incr(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "expired window should restart the count")
}
