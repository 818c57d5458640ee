package retry

import (
	"context"
	"errors"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSleep records requested backoffs instead of sleeping.
func captureSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestClient_Execute_SuccessFirstAttempt(t *testing.T) {
	client := NewClient(Options{MaxRetries: 3})

	res := client.Execute(context.Background(), func(_ context.Context) (any, error) {
		return "ok", nil
	})

	assert.True(t, res.Success)
	assert.Equal(t, "ok", res.Data)
	assert.Equal(t, 1, res.Attempts)
	assert.NoError(t, res.Err)
}

func TestClient_Execute_RetriesThenSucceeds(t *testing.T) {
	var delays []time.Duration
	client := NewClient(Options{
		MaxRetries:        5,
		InitialDelay:      100 * time.Millisecond,
		BackoffMultiplier: 2,
		MaxDelay:          30 * time.Second,
	})
	client.sleep = captureSleep(&delays)

	calls := 0
	res := client.Execute(context.Background(), func(_ context.Context) (any, error) {
		calls++
		if calls < 3 {
			return nil, &HTTPError{StatusCode: http.StatusInternalServerError}
		}
		return "ok", nil
	})

	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	require.Len(t, delays, 2)

	// Exponential backoff with up to 10% jitter on top.
	for i, base := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond} {
		assert.GreaterOrEqual(t, delays[i], base)
		assert.LessOrEqual(t, delays[i], base+base/10)
	}
}

func TestClient_Execute_BackoffClampsAtMaxDelay(t *testing.T) {
	var delays []time.Duration
	client := NewClient(Options{
		MaxRetries:        7,
		InitialDelay:      100 * time.Millisecond,
		BackoffMultiplier: 2,
		MaxDelay:          3 * time.Second,
	})
	client.sleep = captureSleep(&delays)

	res := client.Execute(context.Background(), func(_ context.Context) (any, error) {
		return nil, &HTTPError{StatusCode: http.StatusInternalServerError}
	})

	assert.False(t, res.Success)
	require.Len(t, delays, 7)

	// 100, 200, 400, 800, 1600, then the clamp holds at 3000.
	bases := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		3 * time.Second,
		3 * time.Second,
	}
	for i, base := range bases {
		assert.GreaterOrEqual(t, delays[i], base)
		assert.LessOrEqual(t, delays[i], base+base/10)
	}
}

func TestClient_Execute_ExhaustsRetries(t *testing.T) {
	var delays []time.Duration
	client := NewClient(Options{MaxRetries: 3, InitialDelay: time.Millisecond})
	client.sleep = captureSleep(&delays)

	calls := 0
	res := client.Execute(context.Background(), func(_ context.Context) (any, error) {
		calls++
		return nil, &HTTPError{StatusCode: http.StatusServiceUnavailable}
	})

	assert.False(t, res.Success)
	assert.Equal(t, 4, res.Attempts, "initial attempt plus three retries")
	assert.Equal(t, 4, calls)
	assert.Len(t, delays, 3)

	var httpErr *HTTPError
	require.ErrorAs(t, res.Err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}

func TestClient_Execute_NonRetryableFailsImmediately(t *testing.T) {
	client := NewClient(Options{MaxRetries: 5})

	calls := 0
	res := client.Execute(context.Background(), func(_ context.Context) (any, error) {
		calls++
		return nil, &HTTPError{StatusCode: http.StatusBadRequest}
	})

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, calls)
}

func TestClient_Execute_RetryAfterOverridesBackoff(t *testing.T) {
	var delays []time.Duration
	client := NewClient(Options{MaxRetries: 1, InitialDelay: time.Millisecond})
	client.sleep = captureSleep(&delays)

	calls := 0
	client.Execute(context.Background(), func(_ context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, &HTTPError{StatusCode: http.StatusTooManyRequests, RetryAfter: 5 * time.Second}
		}
		return "ok", nil
	})

	require.Len(t, delays, 1)
	assert.Equal(t, 5*time.Second, delays[0], "server Retry-After beats computed backoff")
}

func TestClient_Execute_RetryAfterClamped(t *testing.T) {
	var delays []time.Duration
	client := NewClient(Options{MaxRetries: 1})
	client.sleep = captureSleep(&delays)

	calls := 0
	client.Execute(context.Background(), func(_ context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, &HTTPError{StatusCode: http.StatusTooManyRequests, RetryAfter: time.Hour}
		}
		return "ok", nil
	})

	require.Len(t, delays, 1)
	assert.Equal(t, maxRetryAfter, delays[0])
}

func TestClient_Execute_CancelledDuringBackoff(t *testing.T) {
	client := NewClient(Options{MaxRetries: 3, InitialDelay: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := client.Execute(ctx, func(_ context.Context) (any, error) {
		return nil, &HTTPError{StatusCode: http.StatusInternalServerError}
	})

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 1, res.Attempts)
}

func TestClient_Execute_CustomShouldRetry(t *testing.T) {
	var delays []time.Duration
	sentinel := errors.New("transient")
	client := NewClient(Options{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		ShouldRetry:  func(err error) bool { return errors.Is(err, sentinel) },
	})
	client.sleep = captureSleep(&delays)

	calls := 0
	res := client.Execute(context.Background(), func(_ context.Context) (any, error) {
		calls++
		return nil, sentinel
	})

	assert.False(t, res.Success)
	assert.Equal(t, 3, calls)
}

func TestClient_Execute_ObserverSeesRetries(t *testing.T) {
	var observed []int
	client := NewClient(
		Options{MaxRetries: 2, InitialDelay: time.Millisecond},
		WithObserver(ObserverFunc(func(_ error, attempt int, _ time.Duration) {
			observed = append(observed, attempt)
		})),
	)
	client.sleep = func(context.Context, time.Duration) error { return nil }

	client.Execute(context.Background(), func(_ context.Context) (any, error) {
		return nil, &HTTPError{StatusCode: http.StatusBadGateway}
	})

	assert.Equal(t, []int{1, 2}, observed)
}

func TestClient_Stats(t *testing.T) {
	client := NewClient(Options{MaxRetries: 1, InitialDelay: time.Millisecond})
	client.sleep = func(context.Context, time.Duration) error { return nil }

	client.Execute(context.Background(), func(_ context.Context) (any, error) {
		return "ok", nil
	})
	client.Execute(context.Background(), func(_ context.Context) (any, error) {
		return nil, &HTTPError{StatusCode: http.StatusInternalServerError}
	})

	stats := client.Stats()
	assert.Equal(t, int64(2), stats.TotalCalls)
	assert.Equal(t, int64(1), stats.SuccessfulCalls)
	assert.Equal(t, int64(1), stats.FailedCalls)
	assert.Equal(t, int64(1), stats.TotalRetries)
	assert.InDelta(t, 1.5, stats.AverageAttempts, 0.001)
}

func TestDefaultShouldRetry(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"http 500", &HTTPError{StatusCode: 500}, true},
		{"http 503", &HTTPError{StatusCode: 503}, true},
		{"http 429", &HTTPError{StatusCode: 429}, true},
		{"http 408", &HTTPError{StatusCode: 408}, true},
		{"http 400", &HTTPError{StatusCode: 400}, false},
		{"http 404", &HTTPError{StatusCode: 404}, false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultShouldRetry(tt.err))
		})
	}
}

func TestNewHTTPError_RetryAfterParsing(t *testing.T) {
	t.Run("seconds form", func(t *testing.T) {
		e := NewHTTPError(429, "7", "slow down")
		assert.Equal(t, 7*time.Second, e.RetryAfter)
	})

	t.Run("http date form", func(t *testing.T) {
		at := time.Now().Add(30 * time.Second).UTC()
		e := NewHTTPError(429, at.Format(http.TimeFormat), "")
		assert.Greater(t, e.RetryAfter, 25*time.Second)
		assert.LessOrEqual(t, e.RetryAfter, 30*time.Second)
	})

	t.Run("absent", func(t *testing.T) {
		e := NewHTTPError(500, "", "boom")
		assert.Zero(t, e.RetryAfter)
	})
}
