package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCounterStore implements CounterStore on a shared Redis instance so
// every process enforcing a platform limit counts against the same window.
type RedisCounterStore struct {
	client *redis.Client
}

// NewRedisCounterStore creates a Redis-backed counter store.
func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

// Incr atomically increments the window counter and refreshes its TTL.
func (s *RedisCounterStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("ratelimit: incr %s: %w", key, err)
	}
	return incr.Val(), nil
}

// Ensure RedisCounterStore implements CounterStore
var _ CounterStore = (*RedisCounterStore)(nil)

// RedisLogStore implements LogStore on a Redis sorted set keyed by request
// timestamp, for the sliding-log limiter variant.
type RedisLogStore struct {
	client *redis.Client
}

// NewRedisLogStore creates a Redis-backed sliding log store.
func NewRedisLogStore(client *redis.Client) *RedisLogStore {
	return &RedisLogStore{client: client}
}

// Record trims entries older than now-window, records the request, and
// returns the resulting log size and the oldest surviving timestamp.
func (s *RedisLogStore) Record(ctx context.Context, key string, now time.Time, window time.Duration) (int64, time.Time, error) {
	cutoff := now.Add(-window).UnixNano()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff, 10))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	card := pipe.ZCard(ctx, key)
	oldest := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.Expire(ctx, key, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("ratelimit: record %s: %w", key, err)
	}

	oldestAt := now
	if entries := oldest.Val(); len(entries) > 0 {
		oldestAt = time.Unix(0, int64(entries[0].Score))
	}
	return card.Val(), oldestAt, nil
}

// Ensure RedisLogStore implements LogStore
var _ LogStore = (*RedisLogStore)(nil)
