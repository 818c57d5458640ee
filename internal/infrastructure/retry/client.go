// Package retry wraps arbitrary operations with timeout, classification-based
// retry, exponential backoff with jitter, and cumulative statistics. It is the
// single chokepoint every marketplace adapter routes outbound calls through,
// so attempt counts stay attributable per call.
package retry

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// maxRetryAfter caps a server-supplied Retry-After so a hostile or buggy
// platform cannot park a worker for hours.
const maxRetryAfter = 300 * time.Second

// jitterFraction is the upper bound of the random delay share added to each
// backoff to avoid synchronized retry storms.
const jitterFraction = 0.1

// Operation is a unit of work the client drives. The context carries the
// per-attempt timeout; implementations must honor it.
type Operation func(ctx context.Context) (any, error)

// Options configures one client. The zero value is usable; missing fields
// take the defaults below.
type Options struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// InitialDelay is the base backoff delay
	InitialDelay time.Duration
	// BackoffMultiplier grows the delay per attempt
	BackoffMultiplier float64
	// MaxDelay clamps the computed backoff
	MaxDelay time.Duration
	// Timeout bounds each individual attempt, zero means no per-attempt bound
	Timeout time.Duration
	// ShouldRetry classifies errors; nil means DefaultShouldRetry
	ShouldRetry func(error) bool
}

func (o *Options) applyDefaults() {
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.BackoffMultiplier <= 0 {
		o.BackoffMultiplier = 2
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.ShouldRetry == nil {
		o.ShouldRetry = DefaultShouldRetry
	}
}

// Observer receives a notification before every retry sleep. Injected rather
// than a bare callback so callers can subscribe without the retry core
// depending on any particular signature.
type Observer interface {
	OnRetry(err error, attempt int, delay time.Duration)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(err error, attempt int, delay time.Duration)

// OnRetry implements Observer.
func (f ObserverFunc) OnRetry(err error, attempt int, delay time.Duration) {
	f(err, attempt, delay)
}

// Result is the outcome of one Execute invocation.
type Result struct {
	// Success is true when some attempt returned without error
	Success bool
	// Data is the value returned by the successful attempt
	Data any
	// Err is the last error when every attempt failed
	Err error
	// Attempts is the total number of invocations of the operation
	Attempts int
}

// Stats is a snapshot of the client's cumulative counters.
type Stats struct {
	TotalCalls      int64
	SuccessfulCalls int64
	FailedCalls     int64
	TotalRetries    int64
	AverageAttempts float64
}

// Client drives operations with retry. It is safe for concurrent use; the
// statistics tolerate eventually-consistent increments.
type Client struct {
	opts     Options
	observer Observer
	logger   *zap.Logger

	totalCalls    atomic.Int64
	successCalls  atomic.Int64
	failedCalls   atomic.Int64
	totalRetries  atomic.Int64
	totalAttempts atomic.Int64

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithObserver subscribes an observer to retry events.
func WithObserver(obs Observer) ClientOption {
	return func(c *Client) { c.observer = obs }
}

// WithLogger sets a logger for retry events.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a retrying client with the given options.
func NewClient(opts Options, copts ...ClientOption) *Client {
	opts.applyDefaults()
	c := &Client{
		opts:   opts,
		logger: zap.NewNop(),
		sleep:  sleepContext,
	}
	for _, opt := range copts {
		opt(c)
	}
	return c
}

// Execute runs op until it succeeds, the error is classified non-retryable,
// retries are exhausted, or ctx is cancelled. Attempt N+1 starts only after
// attempt N's backoff has fully elapsed.
func (c *Client) Execute(ctx context.Context, op Operation) Result {
	c.totalCalls.Add(1)

	var lastErr error
	for attempt := 1; ; attempt++ {
		c.totalAttempts.Add(1)

		data, err := c.runAttempt(ctx, op)
		if err == nil {
			c.successCalls.Add(1)
			return Result{Success: true, Data: data, Attempts: attempt}
		}
		lastErr = err

		if !c.opts.ShouldRetry(err) || attempt > c.opts.MaxRetries {
			c.failedCalls.Add(1)
			return Result{Err: lastErr, Attempts: attempt}
		}

		delay := c.delayFor(err, attempt)
		if c.observer != nil {
			c.observer.OnRetry(err, attempt, delay)
		}
		c.logger.Debug("retrying operation",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		c.totalRetries.Add(1)

		if serr := c.sleep(ctx, delay); serr != nil {
			// Caller cancelled mid-backoff; stop leaking background work.
			c.failedCalls.Add(1)
			return Result{Err: serr, Attempts: attempt}
		}
	}
}

// runAttempt executes one attempt under the per-attempt timeout.
func (c *Client) runAttempt(ctx context.Context, op Operation) (any, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	return op(ctx)
}

// delayFor computes the backoff before the retry following the given attempt.
// A rate-limited error carrying a server Retry-After wins over the computed
// backoff, clamped to maxRetryAfter.
func (c *Client) delayFor(err error, attempt int) time.Duration {
	if ra, ok := retryAfterOf(err); ok && ra > 0 {
		if ra > maxRetryAfter {
			ra = maxRetryAfter
		}
		return ra
	}

	delay := float64(c.opts.InitialDelay) * math.Pow(c.opts.BackoffMultiplier, float64(attempt-1))
	if delay > float64(c.opts.MaxDelay) {
		delay = float64(c.opts.MaxDelay)
	}
	jitter := rand.Float64() * jitterFraction * delay
	return time.Duration(delay + jitter)
}

// Stats returns a snapshot of the cumulative counters.
func (c *Client) Stats() Stats {
	total := c.totalCalls.Load()
	s := Stats{
		TotalCalls:      total,
		SuccessfulCalls: c.successCalls.Load(),
		FailedCalls:     c.failedCalls.Load(),
		TotalRetries:    c.totalRetries.Load(),
	}
	if total > 0 {
		s.AverageAttempts = float64(c.totalAttempts.Load()) / float64(total)
	}
	return s
}

// sleepContext sleeps for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
