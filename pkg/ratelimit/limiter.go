// Package ratelimit gates outgoing request attempts with a local
// token bucket.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for rate limiting.
var (
	throttlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blogapi_ratelimit_throttles_total",
		Help: "Total number of requests delayed by the rate limiter",
	})

	throttleSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blogapi_ratelimit_wait_seconds",
		Help:    "Time requests spent waiting on the rate limiter",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})
)

// Limiter wraps a token bucket. It is purely local state: unlike a
// shared error-budget tracker there is nothing to persist or to read
// back from response headers.
type Limiter struct {
	bucket *rate.Limiter
	logger zerolog.Logger
}

// New creates a limiter allowing perSecond requests with the given
// burst. Burst is clamped to at least 1 so a limiter can always make
// progress.
func New(perSecond float64, burst int, logger zerolog.Logger) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		bucket: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger: logger,
	}
}

// Allow reports whether a request may proceed right now, consuming a
// token if so.
func (l *Limiter) Allow() bool {
	return l.bucket.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()

	if err := l.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if waited := time.Since(start); waited > time.Millisecond {
		throttlesTotal.Inc()
		throttleSeconds.Observe(waited.Seconds())
		l.logger.Debug().
			Dur("waited", waited).
			Msg("Request throttled")
	}

	return nil
}

// Limit returns the configured rate (for tests).
func (l *Limiter) Limit() float64 {
	return float64(l.bucket.Limit())
}
