// Package ratelimit provides per-(platform, identifier) request admission
// control over rolling time windows, backed by a shared counter store with a
// per-process fallback.
package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Decision is the outcome of one admission check.
type Decision struct {
	// Allowed is true when the request may proceed
	Allowed bool
	// Remaining is the number of requests left in the current window
	Remaining int
	// ResetAt is when the current window ends
	ResetAt time.Time
	// RetryAfter is how long a rejected caller should wait, zero when allowed
	RetryAfter time.Duration
}

// CounterStore is the shared window counter. Incr atomically increments the
// counter for key, refreshes its expiry, and returns the post-increment value.
type CounterStore interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Config holds limiter settings.
type Config struct {
	// MaxRequests is the admission ceiling per window
	MaxRequests int
	// Window is the window length
	Window time.Duration
}

// FixedWindowLimiter counts requests in discrete time buckets keyed by
// platform:identifier:windowStart. When the shared store is unavailable it
// falls back to an in-process store and keeps admitting (fail-open); strict
// global enforcement is traded for availability.
type FixedWindowLimiter struct {
	store    CounterStore
	fallback CounterStore
	cfg      Config
	logger   *zap.Logger
	degraded atomic.Bool
	now      func() time.Time
}

// NewFixedWindowLimiter creates a limiter over the given shared store.
// A nil store means the limiter runs purely in-process.
func NewFixedWindowLimiter(store CounterStore, cfg Config, logger *zap.Logger) *FixedWindowLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &FixedWindowLimiter{
		store:    store,
		fallback: NewMemoryCounterStore(),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Key builds the shared counter key for a window start.
func Key(platform, identifier string, windowStart time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", platform, identifier, windowStart.UnixMilli())
}

// Allow runs the admission check for one request. It never returns an error:
// store failures degrade to the in-process fallback.
func (l *FixedWindowLimiter) Allow(ctx context.Context, platform, identifier string) Decision {
	now := l.now()
	windowStart := now.Truncate(l.cfg.Window)
	resetAt := windowStart.Add(l.cfg.Window)
	key := Key(platform, identifier, windowStart)
	ttl := l.cfg.Window + time.Second // slack so a late reader still sees the bucket

	count, err := l.incr(ctx, key, ttl)
	if err != nil {
		// Shared store down: fail open on the per-process counter.
		if l.degraded.CompareAndSwap(false, true) {
			l.logger.Warn("rate limit store unavailable, degrading to in-process counters",
				zap.String("platform", platform),
				zap.Error(err),
			)
		}
		count, _ = l.fallback.Incr(ctx, key, ttl)
	} else if l.degraded.CompareAndSwap(true, false) {
		l.logger.Info("rate limit store recovered", zap.String("platform", platform))
	}

	remaining := l.cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	if count > int64(l.cfg.MaxRequests) {
		retryAfter := time.Duration(float64(time.Second) * ceilSeconds(resetAt.Sub(now)))
		return Decision{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter,
		}
	}

	return Decision{
		Allowed:   true,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

func (l *FixedWindowLimiter) incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if l.store == nil {
		return l.fallback.Incr(ctx, key, ttl)
	}
	return l.store.Incr(ctx, key, ttl)
}

// ceilSeconds rounds a duration up to whole seconds, minimum one.
func ceilSeconds(d time.Duration) float64 {
	secs := int64(d / time.Second)
	if d%time.Second > 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return float64(secs)
}
