// Package client provides the resource controller: cached, retried,
// cancellable access to one remote blog API resource.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/blogkit/api-client/pkg/cache"
	"github.com/blogkit/api-client/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for request operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogapi_requests_total",
		Help: "Total requests by endpoint and outcome",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blogapi_request_duration_seconds",
		Help:    "Request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogapi_errors_total",
		Help: "Total request errors by class",
	}, []string{"class"})
)

// validMethods lists the accepted HTTP methods.
var validMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// Config holds the controller configuration. It is immutable for the
// controller's lifetime; only Body and Headers can be overridden per
// Execute call.
type Config struct {
	// Method is the HTTP method (GET, POST, PUT, DELETE, PATCH).
	Method string

	// Endpoint is the absolute URL of the resource.
	Endpoint string

	// Body is the default request body, JSON-marshalled on send.
	Body any

	// Headers are the default request headers.
	Headers map[string]string

	// CacheEnabled turns on read/write of the cache store.
	CacheEnabled bool

	// CacheTTL is the time-to-live for cached entries.
	CacheTTL time.Duration

	// Store overrides the controller-private in-memory store, e.g. a
	// shared cache.RedisStore. When set, its own TTL governs expiry.
	Store cache.Store

	// RetryCount is the number of additional attempts after the first.
	RetryCount int

	// RetryDelay is the linear backoff unit between retries.
	RetryDelay time.Duration

	// RateLimit caps outgoing attempts per second (0 = unlimited).
	RateLimit float64

	// RunImmediately triggers one Execute at construction time.
	RunImmediately bool

	// SuppressCacheHeaders omits conditional cache hints
	// (If-None-Match / If-Modified-Since) from outgoing requests.
	// Intended for deterministic testing.
	SuppressCacheHeaders bool

	// Handler receives terminal call outcomes. Optional.
	Handler ResultHandler

	// HTTPClient overrides the default client (testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration for a GET
// resource.
func DefaultConfig(endpoint string) Config {
	return Config{
		Method:       http.MethodGet,
		Endpoint:     endpoint,
		CacheEnabled: true,
		CacheTTL:     5 * time.Minute,
		RetryCount:   2,
		RetryDelay:   500 * time.Millisecond,
	}
}

// Controller owns access to one logical remote resource. It layers a
// TTL-bounded response cache, bounded linear-backoff retry and
// cooperative cancellation over the network call, and tracks the
// observable request state through an explicit state machine.
//
// Each controller owns its cache store exclusively unless a shared
// Store is injected; two independent controllers never share entries
// by default, even for identical endpoints.
type Controller struct {
	httpClient *http.Client
	store      cache.Store
	limiter    *ratelimit.Limiter
	exec       *executor
	config     Config
	handler    ResultHandler
	logger     zerolog.Logger

	mu            sync.Mutex
	state         State
	reqState      RequestState
	lastEntry     *cache.Entry
	generation    uint64
	cancelCurrent context.CancelFunc

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

// New creates a resource controller. When cfg.RunImmediately is set,
// one Execute is started on a construction-owned context; Close
// cancels that context, so a teardown racing the initial call can
// never fire a callback into a destroyed scope.
func New(cfg Config) (*Controller, error) {
	if !validMethods[cfg.Method] {
		return nil, fmt.Errorf("invalid method %q", cfg.Method)
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.RetryCount < 0 {
		return nil, fmt.Errorf("retry_count must be >= 0 (got %d)", cfg.RetryCount)
	}
	if cfg.RetryDelay < 0 {
		return nil, fmt.Errorf("retry_delay must be >= 0 (got %v)", cfg.RetryDelay)
	}
	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("cache_ttl must be >= 0 (got %v)", cfg.CacheTTL)
	}

	handler := cfg.Handler
	if handler == nil {
		handler = nopHandler{}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	store := cfg.Store
	if store == nil {
		store = cache.NewMemoryStore(cfg.CacheTTL)
	}

	logger := log.With().
		Str("component", "resource-controller").
		Str("endpoint", cfg.Endpoint).
		Logger()

	rootCtx, rootCancel := context.WithCancel(context.Background())

	c := &Controller{
		httpClient: httpClient,
		store:      store,
		config:     cfg,
		handler:    handler,
		logger:     logger,
		state:      StateIdle,
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
	}

	c.exec = &executor{
		httpClient: httpClient,
		policy: RetryPolicy{
			Attempts: cfg.RetryCount + 1,
			Delay:    cfg.RetryDelay,
		},
		logger: logger,
	}

	if cfg.RateLimit > 0 {
		c.limiter = ratelimit.New(cfg.RateLimit, 1, logger)
	}

	if cfg.RunImmediately {
		go func() {
			_, _ = c.Execute(c.rootCtx)
		}()
	}

	return c, nil
}

// ExecOption overrides parts of the configured request for one call.
type ExecOption func(*callOverride)

type callOverride struct {
	body    any
	bodySet bool
	headers map[string]string
}

// WithBody overrides the request body for this call only.
func WithBody(body any) ExecOption {
	return func(o *callOverride) {
		o.body = body
		o.bodySet = true
	}
}

// WithHeaders overlays headers onto the configured ones for this call
// only.
func WithHeaders(headers map[string]string) ExecOption {
	return func(o *callOverride) {
		o.headers = headers
	}
}

// resolveCall merges per-call overrides with the configured request
// and derives the cache key for the resulting identity.
func (c *Controller) resolveCall(opts []ExecOption) (body any, headers map[string]string, key string) {
	var override callOverride
	for _, opt := range opts {
		opt(&override)
	}

	body = c.config.Body
	if override.bodySet {
		body = override.body
	}

	headers = make(map[string]string, len(c.config.Headers)+len(override.headers))
	for k, v := range c.config.Headers {
		headers[k] = v
	}
	for k, v := range override.headers {
		headers[k] = v
	}

	key = cache.Key{
		Method:   c.config.Method,
		Endpoint: c.config.Endpoint,
		Body:     body,
		Headers:  headers,
	}.String()

	return body, headers, key
}

// Execute runs one request lifecycle: cache consult, then (on miss) a
// retried network call under a fresh cancellation token. Starting a
// new Execute supersedes any call still in flight; the superseded
// call resolves as aborted and never writes the request state.
//
// Terminal failure is returned as an error; an aborted call returns a
// Result with Aborted set and a nil error.
func (c *Controller) Execute(ctx context.Context, opts ...ExecOption) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	body, headers, key := c.resolveCall(opts)

	logger := c.logger.With().Str("request_id", uuid.NewString()).Logger()

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(c.config.Endpoint).Observe(time.Since(start).Seconds())
	}()

	// Cache consult: a hit resolves synchronously, without visiting
	// the loading state and without minting a cancellation token.
	if c.config.CacheEnabled {
		entry, err := c.store.Get(ctx, key)
		if err == nil {
			// A hit still supersedes any call in flight: the ordering
			// guarantee (only the most recently started call writes the
			// request state) holds regardless of how a call resolves.
			c.mu.Lock()
			c.generation++
			if c.cancelCurrent != nil {
				c.cancelCurrent()
				c.cancelCurrent = nil
			}
			c.state = StateSuccess
			c.reqState = RequestState{
				Payload:    entry.Payload,
				StatusCode: entry.StatusCode,
			}
			c.lastEntry = entry
			c.mu.Unlock()

			logger.Debug().
				Str("classification", string(entry.Classification)).
				Dur("age", entry.Age()).
				Msg("Cache hit")
			requestsTotal.WithLabelValues(c.config.Endpoint, "cache").Inc()

			result := &Result{
				Payload:        entry.Payload,
				StatusCode:     entry.StatusCode,
				FromCache:      true,
				Classification: entry.Classification,
			}
			c.handler.HandleSuccess(result)
			return result, nil
		}
		if err != cache.ErrCacheMiss {
			logger.Warn().Err(err).Msg("Cache get error")
		}
	}

	// Cache miss: enter loading under a fresh token and a new
	// generation. The previous call's token is signaled, and the
	// generation check below discards its writes even if the cancel
	// loses the race.
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.generation++
	gen := c.generation
	if c.cancelCurrent != nil {
		c.cancelCurrent()
	}
	c.cancelCurrent = cancel
	c.state = StateLoading
	c.reqState.Loading = true
	validators := c.lastEntry
	c.mu.Unlock()

	if c.limiter != nil {
		if err := c.limiter.Wait(callCtx); err != nil {
			return c.finishAborted(gen, logger), nil
		}
	}

	spec := callSpec{
		method:   c.config.Method,
		endpoint: c.config.Endpoint,
		body:     body,
		headers:  headers,
	}
	if !c.config.SuppressCacheHeaders {
		spec.validators = validators
	}

	logger.Debug().
		Str("method", spec.method).
		Msg("Executing request")

	res, err := c.exec.do(callCtx, spec)
	if err != nil {
		return nil, c.finishError(gen, err, logger)
	}
	if res.aborted {
		return c.finishAborted(gen, logger), nil
	}
	return c.finishSuccess(ctx, gen, key, res, logger)
}

// finishSuccess applies a successful completion, unless a newer call
// has started in the meantime.
func (c *Controller) finishSuccess(ctx context.Context, gen uint64, key string, res *execResult, logger zerolog.Logger) (*Result, error) {
	var entry *cache.Entry

	if res.notModified {
		// Revalidated: reuse the remembered payload, refreshed.
		c.mu.Lock()
		prev := c.lastEntry
		c.mu.Unlock()
		if prev == nil {
			// Origin answered 304 without validators from us.
			return nil, &RequestError{
				StatusCode: res.statusCode,
				ErrorClass: ErrorClassServer,
				Message:    "304 without a cached entry",
			}
		}
		entry = cache.NewEntry(key, prev.Payload, prev.StatusCode, res.header)
		entry.Classification = cache.ClassificationValidated
		if entry.ETag == "" {
			entry.ETag = prev.ETag
		}
		if entry.LastModified.IsZero() {
			entry.LastModified = prev.LastModified
		}
		cache.NotModifiedResponses.Inc()
		logger.Debug().Msg("304 Not Modified - reusing cached payload")
	} else {
		entry = cache.NewEntry(key, res.payload, res.statusCode, res.header)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		logger.Debug().Msg("Discarding completion of superseded call")
		return &Result{Aborted: true}, nil
	}
	c.state = StateSuccess
	c.reqState = RequestState{
		Payload:    entry.Payload,
		StatusCode: entry.StatusCode,
	}
	c.lastEntry = entry
	c.cancelCurrent = nil
	c.mu.Unlock()

	// Storage is governed by the cache flag and success alone; the
	// classification (even no-store) does not suppress it.
	if c.config.CacheEnabled {
		if err := c.store.Set(ctx, entry); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	requestsTotal.WithLabelValues(c.config.Endpoint, strconv.Itoa(entry.StatusCode)).Inc()
	logger.Debug().
		Int("status", entry.StatusCode).
		Str("classification", string(entry.Classification)).
		Int("attempts", res.attempts).
		Msg("Request complete")

	result := &Result{
		Payload:        entry.Payload,
		StatusCode:     entry.StatusCode,
		Header:         res.header,
		Classification: entry.Classification,
	}
	c.handler.HandleSuccess(result)
	return result, nil
}

// finishError applies a terminal failure, unless a newer call has
// started in the meantime.
func (c *Controller) finishError(gen uint64, err error, logger zerolog.Logger) error {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		logger.Debug().Msg("Discarding failure of superseded call")
		return err
	}
	c.state = StateError
	c.reqState.Loading = false
	c.reqState.Err = err
	c.cancelCurrent = nil
	c.mu.Unlock()

	requestsTotal.WithLabelValues(c.config.Endpoint, "error").Inc()
	logger.Warn().Err(err).Msg("Request failed")

	c.handler.HandleError(err, c.exec.policy.Attempts)
	return err
}

// finishAborted resolves a cancelled call: loading stops, but payload
// and error are left exactly as they were, and no handler fires.
func (c *Controller) finishAborted(gen uint64, logger zerolog.Logger) *Result {
	c.mu.Lock()
	if gen == c.generation {
		c.state = StateAborted
		c.reqState.Loading = false
		c.cancelCurrent = nil
	}
	c.mu.Unlock()

	requestsTotal.WithLabelValues(c.config.Endpoint, "aborted").Inc()
	logger.Debug().Msg("Request aborted")

	return &Result{Aborted: true}
}

// Abort signals the current call's cancellation token. It is only
// meaningful while a call is loading; otherwise it is a no-op.
func (c *Controller) Abort() {
	c.mu.Lock()
	cancel := c.cancelCurrent
	loading := c.state == StateLoading
	c.mu.Unlock()

	if loading && cancel != nil {
		cancel()
	}
}

// Refetch drops the cached entry for the resolved request identity and
// executes again, bypassing the cache exactly once.
func (c *Controller) Refetch(ctx context.Context, opts ...ExecOption) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	_, _, key := c.resolveCall(opts)
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn().Err(err).Msg("Cache delete error during refetch")
	}
	return c.Execute(ctx, opts...)
}

// ClearCache empties the controller's store. Valid in any state; it
// never touches the request state.
func (c *Controller) ClearCache() error {
	return c.store.Clear(context.Background())
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the observable request state.
func (c *Controller) Snapshot() RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reqState
}

// Close tears the controller down: the construction-owned context is
// cancelled first, so an in-flight RunImmediately call resolves as
// aborted before the scope disappears.
func (c *Controller) Close() error {
	c.rootCancel()
	c.Abort()
	return nil
}

// Store returns the cache store (for testing).
func (c *Controller) Store() cache.Store {
	return c.store
}
