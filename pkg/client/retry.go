package client

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogapi_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blogapi_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogapi_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryPolicy expresses the bounded linear-backoff retry schedule as
// an explicit policy object, so the backoff strategy can be swapped
// without touching the request orchestration.
type RetryPolicy struct {
	// Attempts is the total attempt budget, including the first call.
	Attempts int

	// Delay is the linear backoff unit. The wait before retry n is
	// Delay * n.
	Delay time.Duration
}

// Backoff returns the wait before the retry following the given
// attempt number (1-based). Linear, not exponential.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.Delay * time.Duration(attempt)
}

// Wait blocks for the backoff of the given attempt, returning early
// with the context error when cancelled. Cancellation is re-checked
// here so an aborted call never sleeps its way into a stale retry.
func (p RetryPolicy) Wait(ctx context.Context, attempt int, class ErrorClass) error {
	backoff := p.Backoff(attempt)
	if backoff <= 0 {
		return ctx.Err()
	}

	retryBackoffSeconds.WithLabelValues(string(class)).Observe(backoff.Seconds())

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}
