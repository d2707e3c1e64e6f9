// Package limiter provides the admission gate every outbound GitHub
// API call passes through. The gate combines two independent caps: a
// bounded number of in-flight requests and a maximum request rate.
package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/thep200/github-top-crawler/pkg/metrics"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrGateTimeout is returned when an acquisition could not complete
// within the configured timeout.
var ErrGateTimeout = errors.New("gate acquisition timed out")

// Gate enforces the concurrency cap with a weighted semaphore and the
// rate cap with a token bucket. Both must be satisfied before a
// request proceeds. The gate is the only shared mutable state between
// workers; both primitives are safe for concurrent callers.
type Gate struct {
	sem     *semaphore.Weighted
	bucket  *rate.Limiter
	timeout time.Duration
}

// NewGate builds a gate admitting at most maxConcurrent in-flight
// requests and at most requestsPerSecond admissions per second
// averaged over a sliding window. A zero timeout means acquisitions
// wait without bound.
func NewGate(maxConcurrent int, requestsPerSecond float64, timeout time.Duration) *Gate {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Gate{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		bucket:  rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		timeout: timeout,
	}
}

// Acquire blocks until a concurrency slot and a rate token are both
// held, or until ctx is cancelled or the timeout elapses. On any
// failure no slot remains held, so Release must be called exactly once
// per successful Acquire.
func (g *Gate) Acquire(ctx context.Context) error {
	start := time.Now()
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return g.admissionError(ctx, err)
	}
	if err := g.bucket.Wait(ctx); err != nil {
		// Give the slot back so a failed rate wait never leaks it.
		g.sem.Release(1)
		return g.admissionError(ctx, err)
	}

	metrics.GateWaitSeconds.Observe(time.Since(start).Seconds())
	return nil
}

// Release frees the concurrency slot. It must be called
// unconditionally after the guarded request completes.
func (g *Gate) Release() {
	g.sem.Release(1)
}

func (g *Gate) admissionError(ctx context.Context, err error) error {
	// The rate limiter rejects a Wait up front when the token could not
	// arrive before the deadline, so the deadline itself may not have
	// fired yet. Anything that is not a caller cancellation counts as a
	// timeout once one is configured.
	if g.timeout > 0 && !errors.Is(ctx.Err(), context.Canceled) {
		metrics.GateTimeoutsTotal.Inc()
		return ErrGateTimeout
	}
	return err
}
