package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounterStore is the in-process fallback counter store. Entries expire
// by TTL; a janitor goroutine evicts stale windows so the map stays bounded.
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	stop    chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryCounterStore creates an in-process counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	s := &MemoryCounterStore{
		entries: make(map[string]*memoryEntry),
		stop:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Incr implements CounterStore. It never fails.
func (s *MemoryCounterStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || now.After(e.expiresAt) {
		e = &memoryEntry{}
		s.entries[key] = e
	}
	e.count++
	e.expiresAt = now.Add(ttl)
	return e.count, nil
}

// Close stops the janitor goroutine.
func (s *MemoryCounterStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryCounterStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
