// Package metrics provides the centralized Prometheus metrics registry
// for the blog API client. All metrics are defined in their respective
// packages (client, cache, ratelimit) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - blogapi_requests_total{endpoint, status} (Counter): Requests by endpoint and outcome
//     (HTTP status, "cache", "error", "aborted")
//   - blogapi_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - blogapi_errors_total{class} (Counter): Failed attempts by class (client, server, network)
//
// Retry Metrics (pkg/client):
//   - blogapi_retries_total{error_class} (Counter): Retry attempts by error class
//   - blogapi_retry_backoff_seconds{error_class} (Histogram): Linear backoff durations
//   - blogapi_retry_exhausted_total{error_class} (Counter): Calls that exhausted the budget
//
// Cache Metrics (pkg/cache):
//   - blogapi_cache_hits_total{store} (Counter): Cache hits by store backend
//   - blogapi_cache_misses_total (Counter): Cache misses (absent or expired)
//   - blogapi_cache_size_bytes{store} (Gauge): Bytes written to the cache
//   - blogapi_304_responses_total (Counter): Successful revalidations
//   - blogapi_conditional_requests_total (Counter): Conditional requests sent
//   - blogapi_cache_errors_total{operation} (Counter): Store operation errors
//
// Rate Limit Metrics (pkg/ratelimit):
//   - blogapi_ratelimit_throttles_total (Counter): Requests delayed by the limiter
//   - blogapi_ratelimit_wait_seconds (Histogram): Time spent waiting on the limiter
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(blogapi_cache_hits_total[5m])) /
//   (sum(rate(blogapi_cache_hits_total[5m])) + sum(rate(blogapi_cache_misses_total[5m])))
//
//   # Retry Exhaustion Rate
//   rate(blogapi_retry_exhausted_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(blogapi_request_duration_seconds_bucket[5m]))
