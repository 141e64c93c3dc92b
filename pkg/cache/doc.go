// Package cache provides the response cache for blog API requests:
// deterministic request keys, TTL-bounded stores, and cache-control
// classification.
//
// Features:
//
// - Deterministic cache key generation (method + endpoint + body + headers)
// - In-memory store private to one controller (the default)
// - Optional shared redis-backed store for cross-controller reuse
// - Lazy expiration on read, governed by a construction-time TTL
// - Response classification (fresh / no-cache / no-store / validated)
// - ETag / Last-Modified validator support for conditional requests
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	store := cache.NewMemoryStore(5 * time.Minute)
//
//	key := cache.Key{
//		Method:   "GET",
//		Endpoint: "https://api.example.com/posts",
//		Headers:  map[string]string{"Accept": "application/json"},
//	}
//
//	entry, err := store.Get(ctx, key.String())
//	if err == cache.ErrCacheMiss {
//		// fetch from the origin
//	}
//
// # Response Caching
//
//	entry, err := cache.ResponseToEntry(resp, key.String())
//	if err != nil {
//		return err
//	}
//	if err := store.Set(ctx, entry); err != nil {
//		return err
//	}
//
// # Conditional Requests
//
//	if entry.HasValidators() {
//		cache.AddValidators(req, entry)
//		// the origin answers 304 Not Modified if unchanged
//	}
//
// # Classification
//
// Classify inspects Cache-Control, ETag and Last-Modified and returns
// one of fresh, no-cache, no-store or validated (first match wins, in
// that priority order). The classification is advisory: a no-store
// response is still written to the store when caching is enabled.
//
// # Metrics
//
//   - blogapi_cache_hits_total{store} - Cache hits
//   - blogapi_cache_misses_total - Cache misses
//   - blogapi_cache_size_bytes{store} - Bytes written
//   - blogapi_304_responses_total - Successful revalidations
//   - blogapi_conditional_requests_total - Conditional requests sent
//   - blogapi_cache_errors_total{operation} - Store operation errors
package cache
