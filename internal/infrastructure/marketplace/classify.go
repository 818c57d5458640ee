package marketplace

import (
	"context"
	"errors"
	"net/http"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/retry"
)

// shouldRetry extends the default classification with the transport's
// platform-unavailable wrapper.
func shouldRetry(err error) bool {
	if errors.Is(err, integration.ErrPlatformUnavailable) {
		return true
	}
	return retry.DefaultShouldRetry(err)
}

// classifyTransportError turns a failed transport call into a PlatformError.
// Classification happens exactly once, here; nothing upstream re-classifies.
func classifyTransportError(platform integration.PlatformCode, err error) *integration.PlatformError {
	attempts := attemptsOf(err)

	var httpErr *retry.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return &integration.PlatformError{
				Platform:   platform,
				Kind:       integration.ErrorKindRateLimited,
				HTTPStatus: httpErr.StatusCode,
				Message:    "rate limit exceeded",
				RetryAfter: httpErr.RetryAfter,
				Attempts:   attempts,
				Err:        err,
			}
		case httpErr.StatusCode >= 500 || httpErr.StatusCode == http.StatusRequestTimeout:
			return &integration.PlatformError{
				Platform:   platform,
				Kind:       integration.ErrorKindPlatform,
				HTTPStatus: httpErr.StatusCode,
				Message:    httpErr.Body,
				Attempts:   attempts,
				Err:        err,
			}
		case httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden:
			return &integration.PlatformError{
				Platform:   platform,
				Kind:       integration.ErrorKindValidation,
				HTTPStatus: httpErr.StatusCode,
				Message:    "authentication rejected",
				Hint:       "check the platform credentials in the configuration",
				Attempts:   attempts,
				Err:        integration.ErrPlatformAuthFailed,
			}
		default:
			return &integration.PlatformError{
				Platform:   platform,
				Kind:       integration.ErrorKindValidation,
				HTTPStatus: httpErr.StatusCode,
				Message:    httpErr.Body,
				Attempts:   attempts,
				Err:        err,
			}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, integration.ErrPlatformUnavailable) {
		return &integration.PlatformError{
			Platform: platform,
			Kind:     integration.ErrorKindNetwork,
			Message:  err.Error(),
			Attempts: attempts,
			Err:      err,
		}
	}

	return &integration.PlatformError{
		Platform: platform,
		Kind:     integration.ErrorKindNetwork,
		Message:  err.Error(),
		Attempts: attempts,
		Err:      err,
	}
}
