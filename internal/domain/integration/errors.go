package integration

import (
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
	ErrPlatformRateLimited     = errors.New("integration: platform rate limited")

	// Listing errors
	ErrListingInvalid         = errors.New("integration: invalid listing")
	ErrCategoryMappingMissing = errors.New("integration: category mapping missing")

	// Adapter errors
	ErrUnknownPlatform = errors.New("integration: unknown platform code")
)

// ---------------------------------------------------------------------------
// PlatformError
// ---------------------------------------------------------------------------

// ErrorKind partitions adapter failures into the retry taxonomy. An error is
// classified exactly once, by the adapter that produced it; upstream layers
// only inspect the result.
type ErrorKind string

const (
	// ErrorKindValidation marks caller input the platform rejected; never retried
	ErrorKindValidation ErrorKind = "VALIDATION"
	// ErrorKindRateLimited marks a 429-equivalent; retried after RetryAfter
	ErrorKindRateLimited ErrorKind = "RATE_LIMITED"
	// ErrorKindNetwork marks connection resets and timeouts; retried
	ErrorKindNetwork ErrorKind = "NETWORK"
	// ErrorKindPlatform marks platform-side 5xx failures; retried
	ErrorKindPlatform ErrorKind = "PLATFORM"
	// ErrorKindPolicy marks terminal business rejections, e.g. prohibited keyword
	ErrorKindPolicy ErrorKind = "POLICY"
)

// PlatformError carries the classified failure of one marketplace call.
type PlatformError struct {
	// Platform is the marketplace that produced the error
	Platform PlatformCode
	// Kind is the retry classification
	Kind ErrorKind
	// Code is the platform business error code, when present
	Code string
	// HTTPStatus is the HTTP status of the failed call, 0 for network errors
	HTTPStatus int
	// Message is the human-readable platform message
	Message string
	// RetryAfter is the server-requested wait, only set for rate limiting
	RetryAfter time.Duration
	// Hint suggests remediation for terminal errors
	Hint string
	// Attempts is how many times the retrying client invoked the call
	Attempts int
	// Err is the wrapped cause
	Err error
}

// Error implements the error interface.
func (e *PlatformError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: [%s] %s - %s", e.Platform, e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", e.Platform, e.Kind, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient.
func (e *PlatformError) Retryable() bool {
	switch e.Kind {
	case ErrorKindNetwork, ErrorKindPlatform, ErrorKindRateLimited:
		return true
	default:
		return false
	}
}

// AsPlatformError extracts a PlatformError from an error chain.
func AsPlatformError(err error) (*PlatformError, bool) {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsRetryable reports whether err is a transient failure worth retrying.
// Unclassified errors are retryable only when they wrap one of the transient
// sentinels.
func IsRetryable(err error) bool {
	if pe, ok := AsPlatformError(err); ok {
		return pe.Retryable()
	}
	return errors.Is(err, ErrPlatformUnavailable) || errors.Is(err, ErrPlatformRateLimited)
}
