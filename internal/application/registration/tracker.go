package registration

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/domain/job"
)

// Tracker errors
var (
	ErrJobNotFound = errors.New("registration: job not found")
	ErrJobTerminal = errors.New("registration: job is already terminal")
)

// defaultJobRetention is how long terminal jobs stay queryable.
const defaultJobRetention = 24 * time.Hour

// ListFilter narrows ListJobs output.
type ListFilter struct {
	Status job.Status
	Page   int
	Limit  int
}

// Tracker owns the in-memory job store. Jobs are mutated only by the
// goroutine driving them; the tracker guards the map itself and hands deep
// copies to readers. Terminal jobs are evicted by a periodic sweep.
type Tracker struct {
	mu        sync.RWMutex
	jobs      map[uuid.UUID]*job.Job
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// TrackerOption is a functional option for configuring Tracker
type TrackerOption func(*Tracker)

// WithRetention overrides the terminal-job retention window
func WithRetention(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.retention = d
		}
	}
}

// WithTrackerLogger sets a custom logger
func WithTrackerLogger(logger *zap.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = logger }
}

// NewTracker creates an empty job tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		jobs:      make(map[uuid.UUID]*job.Job),
		retention: defaultJobRetention,
		logger:    zap.NewNop(),
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CreateJob registers a new pending job and returns it.
func (t *Tracker) CreateJob(kind job.Kind, targets []integration.PlatformCode) *job.Job {
	j := job.New(kind, targets)
	t.mu.Lock()
	t.jobs[j.ID] = j
	t.mu.Unlock()
	return j
}

// UpdateJob applies a mutation to a stored job under the tracker lock.
// Terminal jobs reject further updates.
func (t *Tracker) UpdateJob(id uuid.UUID, patch func(*job.Job)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, ok := t.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if j.Status.IsTerminal() {
		return ErrJobTerminal
	}
	patch(j)
	return nil
}

// GetJob returns a deep copy of a job.
func (t *Tracker) GetJob(id uuid.UUID) (*job.Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	j, ok := t.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j.Clone(), nil
}

// ListJobs returns deep copies of jobs matching the filter, newest first.
func (t *Tracker) ListJobs(filter ListFilter) []*job.Job {
	t.mu.RLock()
	matched := make([]*job.Job, 0, len(t.jobs))
	for _, j := range t.jobs {
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		matched = append(matched, j.Clone())
	}
	t.mu.RUnlock()

	sort.Slice(matched, func(i, k int) bool {
		return matched[i].StartedAt.After(matched[k].StartedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return []*job.Job{}
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end]
}

// Sweep evicts terminal jobs older than the given cutoff and returns how
// many were removed.
func (t *Tracker) Sweep(olderThan time.Duration) int {
	cutoff := t.now().Add(-olderThan)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, j := range t.jobs {
		if !j.Status.IsTerminal() || j.CompletedAt == nil {
			continue
		}
		if j.CompletedAt.Before(cutoff) {
			delete(t.jobs, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until the context is
// cancelled or Stop is called.
func (t *Tracker) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.stopCh:
				return
			case <-ticker.C:
				if n := t.Sweep(t.retention); n > 0 {
					t.logger.Debug("swept terminal jobs", zap.Int("removed", n))
				}
			}
		}
	}()
}

// Stop terminates the background sweeper.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}
