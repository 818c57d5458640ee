// Package marketplace contains the concrete marketplace adapters. Each
// adapter maps the neutral listing model to its platform's wire payloads and
// routes every outbound call through the shared rate limiter and retrying
// client composition.
package marketplace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/ratelimit"
	"github.com/crosslist/backend/internal/infrastructure/retry"
)

// maxResponseSize limits response bodies to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024

// bodyExcerptSize bounds the response excerpt kept on errors.
const bodyExcerptSize = 2048

// requestFunc builds a fresh request per attempt so bodies can be re-read.
type requestFunc func(ctx context.Context) (*http.Request, error)

// callResult is what one transport round trip yields.
type callResult struct {
	StatusCode int
	Body       []byte
	Attempts   int
}

// transport is the outbound call path shared by all adapters: admission
// check, then the retrying client around the HTTP call. The admission check
// runs inside the retried operation, so a local rejection backs off exactly
// like a platform 429 and the attempt count stays attributable to this call.
type transport struct {
	platform   integration.PlatformCode
	identifier string
	limiter    *ratelimit.FixedWindowLimiter
	retrier    *retry.Client
	httpClient *http.Client
	logger     *zap.Logger
}

func newTransport(
	platform integration.PlatformCode,
	identifier string,
	limiter *ratelimit.FixedWindowLimiter,
	retrier *retry.Client,
	httpClient *http.Client,
	logger *zap.Logger,
) *transport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &transport{
		platform:   platform,
		identifier: identifier,
		limiter:    limiter,
		retrier:    retrier,
		httpClient: httpClient,
		logger:     logger,
	}
}

// do performs one logical platform call with admission control and retry.
func (t *transport) do(ctx context.Context, build requestFunc) (*callResult, error) {
	res := t.retrier.Execute(ctx, func(ctx context.Context) (any, error) {
		if t.limiter != nil {
			decision := t.limiter.Allow(ctx, t.platform.String(), t.identifier)
			if !decision.Allowed {
				return nil, &retry.HTTPError{
					StatusCode: http.StatusTooManyRequests,
					RetryAfter: decision.RetryAfter,
					Body:       "local rate limit exceeded",
				}
			}
		}
		return t.roundTrip(ctx, build)
	})

	if !res.Success {
		return nil, &attemptsError{err: res.Err, attempts: res.Attempts}
	}
	cr := res.Data.(*callResult)
	cr.Attempts = res.Attempts
	return cr, nil
}

// roundTrip performs a single HTTP exchange. Non-2xx statuses become
// retry.HTTPError so the client can classify them.
func (t *transport) roundTrip(ctx context.Context, build requestFunc) (*callResult, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", t.platform, err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", t.platform, err)
	}

	if resp.StatusCode >= 400 {
		excerpt := body
		if len(excerpt) > bodyExcerptSize {
			excerpt = excerpt[:bodyExcerptSize]
		}
		return nil, retry.NewHTTPError(resp.StatusCode, resp.Header.Get("Retry-After"), string(excerpt))
	}

	return &callResult{StatusCode: resp.StatusCode, Body: body}, nil
}

// attemptsError carries the attempt count alongside a transport failure so
// adapters can surface it in their classified PlatformError.
type attemptsError struct {
	err      error
	attempts int
}

func (e *attemptsError) Error() string { return e.err.Error() }
func (e *attemptsError) Unwrap() error { return e.err }

// attemptsOf extracts the attempt count from a transport failure.
func attemptsOf(err error) int {
	if ae, ok := err.(*attemptsError); ok {
		return ae.attempts
	}
	return 1
}

// jsonRequest builds a POST/PUT request with a JSON body and common headers.
func jsonRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}
