package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by store backend
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogapi_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"store"}, // "memory", "redis"
	)

	// CacheMisses tracks cache misses (absent or expired entries)
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blogapi_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// CacheSize tracks bytes written to the cache by store backend
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blogapi_cache_size_bytes",
			Help: "Bytes written to the response cache",
		},
		[]string{"store"},
	)

	// NotModifiedResponses tracks 304 Not Modified revalidations
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blogapi_304_responses_total",
			Help: "Total number of 304 Not Modified responses",
		},
	)

	// ConditionalRequestsSent tracks requests sent with validators attached
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blogapi_conditional_requests_total",
			Help: "Total number of conditional requests sent",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogapi_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "clear"
	)
)
