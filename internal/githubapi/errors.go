package githubapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thep200/github-top-crawler/internal/limiter"
)

// ErrRetryExhausted is returned when all retry attempts are exhausted.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// ErrMalformedResponse is returned when a 2xx body cannot be decoded.
// Retrying cannot repair a body the server considers well-formed.
var ErrMalformedResponse = errors.New("malformed response")

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Permanent reports whether retrying cannot help: authentication
// failures, not-found, validation errors and other 4xx statuses.
// Rate-limit responses are reported as *RateLimitError, never here.
func (e *APIError) Permanent() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// RateLimitError is a rate-limited response from the API itself,
// distinct from the local admission gate. Reset carries the
// server-provided time at which the quota refreshes.
type RateLimitError struct {
	Endpoint string
	Reset    time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github api %s rate limited until %s", e.Endpoint, e.Reset.Format(time.RFC3339))
}

// IsTransient reports whether an error is worth another attempt:
// remote rate limits, gate timeouts, server errors and network
// failures. Permanent API errors and context cancellation are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	if errors.Is(err, limiter.ErrGateTimeout) {
		return true
	}
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.Permanent()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Network-level failures.
	return true
}

func errorClass(err error) string {
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return "rate_limit"
	}
	if errors.Is(err, limiter.ErrGateTimeout) {
		return "gate_timeout"
	}
	if errors.Is(err, ErrMalformedResponse) {
		return "client"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Permanent() {
			return "client"
		}
		return "server"
	}
	return "network"
}
