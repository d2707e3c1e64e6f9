// Package metrics defines the Prometheus instruments shared by the
// crawler. Counters and histograms are registered via promauto on the
// default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts GitHub API requests by endpoint and HTTP status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_requests_total",
		Help: "Total number of GitHub API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	// RequestDuration observes request latency by endpoint.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crawler_request_duration_seconds",
		Help:    "GitHub API request duration by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	// RetriesTotal counts retry attempts by error class.
	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	// RetryExhaustedTotal counts requests that ran out of retry attempts.
	RetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})

	// GateWaitSeconds observes how long callers block on gate admission.
	GateWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crawler_gate_wait_seconds",
		Help:    "Time spent waiting for a concurrency slot and rate token",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
	})

	// GateTimeoutsTotal counts gate acquisitions that hit the timeout.
	GateTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_gate_timeouts_total",
		Help: "Total number of gate acquisitions that timed out",
	})

	// ReposCollectedTotal counts repositories that made it into a batch.
	ReposCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_repos_collected_total",
		Help: "Total number of repositories collected into output batches",
	})
)
