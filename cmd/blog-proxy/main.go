package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blogkit/api-client/pkg/cache"
	"github.com/blogkit/api-client/pkg/client"
	"github.com/blogkit/api-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// Configuration from environment
	upstream := getEnv("UPSTREAM_URL", "")
	port := getEnv("PORT", "8080")
	redisURL := getEnv("REDIS_URL", "")
	cacheTTL := getDurationEnv("CACHE_TTL", 5*time.Minute)
	retryCount := getIntEnv("RETRY_COUNT", 2)
	retryDelay := getDurationEnv("RETRY_DELAY", 500*time.Millisecond)

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") == "true",
	})

	if upstream == "" {
		logger.Fatal().Msg("UPSTREAM_URL is required")
	}

	// An optional shared Redis store lets multiple proxy instances (and
	// controllers within one instance) reuse cached responses. Without
	// it every controller keeps its own in-memory cache.
	var store cache.Store
	if redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: redisURL,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("redis_url", redisURL).Msg("Failed to connect to Redis")
		}
		store = cache.NewRedisStore(redisClient, "blogproxy", cacheTTL)
		logger.Info().Str("redis_url", redisURL).Msg("Using shared Redis cache store")
	}

	proxy := newProxy(proxyConfig{
		Upstream:   strings.TrimRight(upstream, "/"),
		Store:      store,
		CacheTTL:   cacheTTL,
		RetryCount: retryCount,
		RetryDelay: retryDelay,
	}, logging.NewLogger("blog-proxy"))
	defer proxy.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/", proxy.handle)

	addr := ":" + port
	logger.Info().
		Str("addr", addr).
		Str("upstream", upstream).
		Dur("cache_ttl", cacheTTL).
		Msg("Starting blog proxy")

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// proxyConfig holds the per-process proxy settings.
type proxyConfig struct {
	Upstream   string
	Store      cache.Store
	CacheTTL   time.Duration
	RetryCount int
	RetryDelay time.Duration
}

// proxy fronts one upstream blog API, lazily creating one resource
// controller per upstream path. Controllers are kept for the process
// lifetime so repeated requests for the same path share cache state.
type proxy struct {
	config proxyConfig
	logger zerolog.Logger

	mu          sync.Mutex
	controllers map[string]*client.Controller
}

func newProxy(cfg proxyConfig, logger zerolog.Logger) *proxy {
	return &proxy{
		config:      cfg,
		logger:      logger,
		controllers: make(map[string]*client.Controller),
	}
}

// controllerFor returns the controller owning the given upstream path,
// creating it on first use.
func (p *proxy) controllerFor(path string) (*client.Controller, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.controllers[path]; ok {
		return c, nil
	}

	cfg := client.DefaultConfig(p.config.Upstream + path)
	cfg.CacheTTL = p.config.CacheTTL
	cfg.RetryCount = p.config.RetryCount
	cfg.RetryDelay = p.config.RetryDelay
	cfg.Store = p.config.Store

	c, err := client.New(cfg)
	if err != nil {
		return nil, err
	}
	p.controllers[path] = c
	return c, nil
}

// handle proxies one GET request. The upstream path is the request
// path with the "/api" prefix removed.
func (p *proxy) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET is supported", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api")
	if path == "" || path == "/" {
		http.Error(w, "missing upstream path", http.StatusBadRequest)
		return
	}

	c, err := p.controllerFor(path)
	if err != nil {
		p.logger.Error().Err(err).Str("path", path).Msg("Failed to create controller")
		http.Error(w, "proxy misconfigured", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := c.Execute(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("Upstream request failed")
		http.Error(w, fmt.Sprintf("upstream request failed: %v", err), http.StatusBadGateway)
		return
	}
	if result.Aborted {
		// Client went away; nothing sensible to write.
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheStatus(result))
	w.Header().Set("X-Cache-Classification", string(result.Classification))
	w.WriteHeader(result.StatusCode)
	if _, err := w.Write(result.Payload); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

func cacheStatus(result *client.Result) string {
	if result.FromCache {
		return "HIT"
	}
	return "MISS"
}

// Close tears down all controllers.
func (p *proxy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.controllers {
		c.Close()
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
