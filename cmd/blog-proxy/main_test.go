package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blogkit/api-client/internal/testutil"
	"github.com/blogkit/api-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func newTestProxy(t *testing.T, origin *testutil.MockOrigin) *proxy {
	t.Helper()
	p := newProxy(proxyConfig{
		Upstream:   origin.URL(),
		CacheTTL:   5 * time.Minute,
		RetryCount: 1,
		RetryDelay: 5 * time.Millisecond,
	}, logging.NewLogger("blog-proxy-test"))
	t.Cleanup(p.Close)
	return p
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestProxyHandler_ServesUpstream(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResponse("/posts", testutil.NewJSONResponse(`[{"id":1}]`))

	p := newTestProxy(t, origin)

	req := httptest.NewRequest("GET", "/api/posts", nil)
	w := httptest.NewRecorder()
	p.handle(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(body) != `[{"id":1}]` {
		t.Errorf("Body = %s", body)
	}
	if got := resp.Header.Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", got)
	}
}

func TestProxyHandler_SecondRequestHitsCache(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResponse("/posts", testutil.NewJSONResponse(`[{"id":1}]`))

	p := newTestProxy(t, origin)

	for i, want := range []string{"MISS", "HIT"} {
		req := httptest.NewRequest("GET", "/api/posts", nil)
		w := httptest.NewRecorder()
		p.handle(w, req)

		if got := w.Result().Header.Get("X-Cache"); got != want {
			t.Errorf("Request %d: X-Cache = %q, want %q", i, got, want)
		}
	}

	if origin.GetRequestCount() != 1 {
		t.Errorf("Upstream calls = %d, want 1", origin.GetRequestCount())
	}
}

func TestProxyHandler_SeparatePathsSeparateControllers(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResponse("/posts", testutil.NewJSONResponse(`[{"id":1}]`))
	origin.SetResponse("/users", testutil.NewJSONResponse(`[{"name":"a"}]`))

	p := newTestProxy(t, origin)

	for _, path := range []string{"/api/posts", "/api/users"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		p.handle(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d", path, w.Result().StatusCode)
		}
	}

	if len(p.controllers) != 2 {
		t.Errorf("Controllers = %d, want 2", len(p.controllers))
	}
	if origin.GetRequestCount() != 2 {
		t.Errorf("Upstream calls = %d, want 2", origin.GetRequestCount())
	}
}

func TestProxyHandler_UpstreamFailure(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResponse("/posts", testutil.NewServerErrorResponse())

	p := newTestProxy(t, origin)

	req := httptest.NewRequest("GET", "/api/posts", nil)
	w := httptest.NewRecorder()
	p.handle(w, req)

	if w.Result().StatusCode != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502", w.Result().StatusCode)
	}
	// retryCount=1 means the proxy tried twice before giving up.
	if origin.GetRequestCount() != 2 {
		t.Errorf("Upstream calls = %d, want 2", origin.GetRequestCount())
	}
}

func TestProxyHandler_RejectsNonGet(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	p := newTestProxy(t, origin)

	req := httptest.NewRequest("POST", "/api/posts", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	p.handle(w, req)

	if w.Result().StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want 405", w.Result().StatusCode)
	}
	if origin.GetRequestCount() != 0 {
		t.Errorf("Upstream calls = %d, want 0", origin.GetRequestCount())
	}
}

func TestProxyHandler_MissingPath(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	p := newTestProxy(t, origin)

	req := httptest.NewRequest("GET", "/api/", nil)
	w := httptest.NewRecorder()
	p.handle(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", w.Result().StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResponse("/posts", testutil.NewJSONResponse(`[{"id":1}]`))

	// Drive one request through a controller so counters exist.
	p := newTestProxy(t, origin)
	req := httptest.NewRequest("GET", "/api/posts", nil)
	p.handle(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	bodyStr := string(body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}
	if !strings.Contains(bodyStr, "blogapi_requests_total") {
		t.Error("Expected metrics output to contain blogapi_requests_total")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("BLOGPROXY_TEST_STR", "value")
	t.Setenv("BLOGPROXY_TEST_INT", "7")
	t.Setenv("BLOGPROXY_TEST_DUR", "250ms")
	t.Setenv("BLOGPROXY_TEST_BAD", "not-a-number")

	if got := getEnv("BLOGPROXY_TEST_STR", "fallback"); got != "value" {
		t.Errorf("getEnv = %q", got)
	}
	if got := getEnv("BLOGPROXY_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnv fallback = %q", got)
	}
	if got := getIntEnv("BLOGPROXY_TEST_INT", 1); got != 7 {
		t.Errorf("getIntEnv = %d", got)
	}
	if got := getIntEnv("BLOGPROXY_TEST_BAD", 1); got != 1 {
		t.Errorf("getIntEnv with bad value = %d, want fallback", got)
	}
	if got := getDurationEnv("BLOGPROXY_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("getDurationEnv = %v", got)
	}
	if got := getDurationEnv("BLOGPROXY_TEST_BAD", time.Second); got != time.Second {
		t.Errorf("getDurationEnv with bad value = %v, want fallback", got)
	}
}
