package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type failingLogStore struct{}

func (failingLogStore) Record(_ context.Context, _ string, _ time.Time, _ time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, errors.New("store down")
}

func TestSlidingLogLimiter_Allow(t *testing.T) {
	limiter := NewSlidingLogLimiter(nil, Config{MaxRequests: 3, Window: time.Minute}, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := limiter.Allow(ctx, "http", "10.0.0.1")
		assert.True(t, d.Allowed, "request %d should be admitted", i+1)
		now = now.Add(time.Second)
	}

	d := limiter.Allow(ctx, "http", "10.0.0.1")
	assert.False(t, d.Allowed)
	assert.GreaterOrEqual(t, d.RetryAfter, time.Second)
}

func TestSlidingLogLimiter_WindowSlides(t *testing.T) {
	limiter := NewSlidingLogLimiter(nil, Config{MaxRequests: 2, Window: time.Minute}, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	assert.True(t, limiter.Allow(ctx, "http", "10.0.0.1").Allowed)
	now = now.Add(30 * time.Second)
	assert.True(t, limiter.Allow(ctx, "http", "10.0.0.1").Allowed)
	now = now.Add(10 * time.Second)
	assert.False(t, limiter.Allow(ctx, "http", "10.0.0.1").Allowed)

	// The rejected request was logged too, so the window must slide past
	// every earlier entry before a slot frees up.
	now = now.Add(65 * time.Second)
	assert.True(t, limiter.Allow(ctx, "http", "10.0.0.1").Allowed)
}

func TestSlidingLogLimiter_FailsOpenOnStoreError(t *testing.T) {
	limiter := NewSlidingLogLimiter(failingLogStore{}, Config{MaxRequests: 1, Window: time.Minute}, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	assert.True(t, limiter.Allow(ctx, "http", "10.0.0.1").Allowed)
	assert.False(t, limiter.Allow(ctx, "http", "10.0.0.1").Allowed)
}

func TestMemoryLogStore_Record(t *testing.T) {
	store := NewMemoryLogStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	size, oldest, err := store.Record(ctx, "k", base, time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), size)
	assert.Equal(t, base, oldest)

	size, oldest, err = store.Record(ctx, "k", base.Add(30*time.Second), time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), size)
	assert.Equal(t, base, oldest)

	// The first timestamp is outside the window now and gets pruned.
	size, oldest, err = store.Record(ctx, "k", base.Add(70*time.Second), time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), size)
	assert.Equal(t, base.Add(30*time.Second), oldest)
}
