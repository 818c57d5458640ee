package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"
)

// HTTPError is a failed HTTP call carrying enough of the response for
// classification. Adapters construct it from non-2xx responses.
type HTTPError struct {
	// StatusCode is the HTTP response status
	StatusCode int
	// RetryAfter is the parsed Retry-After header, zero when absent
	RetryAfter time.Duration
	// Body is a truncated response body for diagnostics
	Body string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// NewHTTPError builds an HTTPError from a response status, Retry-After
// header value, and body excerpt.
func NewHTTPError(statusCode int, retryAfterHeader, body string) *HTTPError {
	e := &HTTPError{StatusCode: statusCode, Body: body}
	if retryAfterHeader != "" {
		if secs, err := strconv.Atoi(retryAfterHeader); err == nil && secs > 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
		} else if t, err := http.ParseTime(retryAfterHeader); err == nil {
			if d := time.Until(t); d > 0 {
				e.RetryAfter = d
			}
		}
	}
	return e
}

// RetryAfterProvider is implemented by errors that carry a server-requested
// wait before the next attempt.
type RetryAfterProvider interface {
	RetryAfterDelay() time.Duration
}

// RetryAfterDelay implements RetryAfterProvider.
func (e *HTTPError) RetryAfterDelay() time.Duration {
	return e.RetryAfter
}

// retryAfterOf extracts a server-requested delay from an error chain.
func retryAfterOf(err error) (time.Duration, bool) {
	var p RetryAfterProvider
	if errors.As(err, &p) {
		return p.RetryAfterDelay(), true
	}
	return 0, false
}

// DefaultShouldRetry is the default error classification: network failures
// (refused, reset, timed out) and 5xx/408/429 HTTP statuses are transient;
// other 4xx responses are caller errors and never retried.
func DefaultShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	// Per-attempt timeout counts as a transient failure.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// Caller cancellation is never retried.
	if errors.Is(err, context.Canceled) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode >= 500:
			return true
		case httpErr.StatusCode == http.StatusRequestTimeout:
			return true
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return true
		default:
			return false
		}
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
