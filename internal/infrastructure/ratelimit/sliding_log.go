package ratelimit

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// LogStore keeps a per-key log of request timestamps for the sliding-window
// variant. Record trims entries older than now-window, appends the current
// request, and returns the log size and oldest surviving timestamp.
type LogStore interface {
	Record(ctx context.Context, key string, now time.Time, window time.Duration) (int64, time.Time, error)
}

// SlidingLogLimiter tracks individual request timestamps for smoother limits
// than the fixed-window bucket. Used by the HTTP-facing middleware where
// bursty clients would otherwise double up at window boundaries.
type SlidingLogLimiter struct {
	store    LogStore
	fallback LogStore
	cfg      Config
	logger   *zap.Logger
	degraded atomic.Bool
	now      func() time.Time
}

// NewSlidingLogLimiter creates a sliding-log limiter over the given store.
// A nil store means the limiter runs purely in-process.
func NewSlidingLogLimiter(store LogStore, cfg Config, logger *zap.Logger) *SlidingLogLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &SlidingLogLimiter{
		store:    store,
		fallback: NewMemoryLogStore(),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Allow runs the admission check for one request, failing open when the
// shared store is unavailable.
func (l *SlidingLogLimiter) Allow(ctx context.Context, platform, identifier string) Decision {
	now := l.now()
	key := "ratelimit:sliding:" + platform + ":" + identifier

	size, oldest, err := l.record(ctx, key, now)
	if err != nil {
		if l.degraded.CompareAndSwap(false, true) {
			l.logger.Warn("sliding log store unavailable, degrading to in-process log",
				zap.String("platform", platform),
				zap.Error(err),
			)
		}
		size, oldest, _ = l.fallback.Record(ctx, key, now, l.cfg.Window)
	} else if l.degraded.CompareAndSwap(true, false) {
		l.logger.Info("sliding log store recovered", zap.String("platform", platform))
	}

	remaining := l.cfg.MaxRequests - int(size)
	if remaining < 0 {
		remaining = 0
	}
	resetAt := oldest.Add(l.cfg.Window)

	if size > int64(l.cfg.MaxRequests) {
		retryAfter := resetAt.Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt, RetryAfter: retryAfter}
	}
	return Decision{Allowed: true, Remaining: remaining, ResetAt: resetAt}
}

func (l *SlidingLogLimiter) record(ctx context.Context, key string, now time.Time) (int64, time.Time, error) {
	if l.store == nil {
		return l.fallback.Record(ctx, key, now, l.cfg.Window)
	}
	return l.store.Record(ctx, key, now, l.cfg.Window)
}

// MemoryLogStore is the in-process fallback log store.
type MemoryLogStore struct {
	mu   sync.Mutex
	logs map[string][]time.Time
}

// NewMemoryLogStore creates an in-process sliding log store.
func NewMemoryLogStore() *MemoryLogStore {
	return &MemoryLogStore{logs: make(map[string][]time.Time)}
}

// Record implements LogStore. It never fails.
func (s *MemoryLogStore) Record(_ context.Context, key string, now time.Time, window time.Duration) (int64, time.Time, error) {
	cutoff := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logs[key]
	idx := sort.Search(len(log), func(i int) bool { return log[i].After(cutoff) })
	log = append(log[idx:], now)
	s.logs[key] = log

	return int64(len(log)), log[0], nil
}
