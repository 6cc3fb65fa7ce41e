package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsRoutePatternAndStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/api/search", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/api/chat", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	tests := []struct {
		path   string
		status string
	}{
		{"/api/search", "404"},
		{"/api/chat", "200"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("search", "POST", tc.path, tc.status))

			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(`{"query":"x"}`))
			r.ServeHTTP(httptest.NewRecorder(), req)

			after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("search", "POST", tc.path, tc.status))
			if after-before != 1 {
				t.Errorf("requests_total delta = %f, want 1", after-before)
			}
		})
	}

	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unknown", "GET", "unknown", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", http.NoBody))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unknown", "GET", "unknown", "404"))

	if after-before != 1 {
		t.Errorf("unmatched paths must collapse into one label, delta = %f", after-before)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/api/search", "/api/search"},
		{"/health", "/health"},
	}

	for _, tc := range tests {
		if got := normalizePath(tc.input); got != tc.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/search", "search"},
		{"/api/chat", "search"},
		{"/api/analytics", "analytics"},
		{"/health", "ops"},
		{"/metrics", "ops"},
		{"unknown", "unknown"},
	}
	for _, tc := range tests {
		if got := routeGroup(tc.path); got != tc.want {
			t.Errorf("routeGroup(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestMiddleware_InFlightReturnsToZero(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	var during float64
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		during = testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("ops"))
	})

	before := testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("ops"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if during-before != 1 {
		t.Errorf("in-flight during request = %f, want %f", during, before+1)
	}
	if after := testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("ops")); after != before {
		t.Errorf("in-flight after request = %f, want %f", after, before)
	}
}

func TestSearchMetrics_ExposedViaPromhttp(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(SearchTotal, AIRequestsTotal)

	SearchTotal.WithLabelValues("semantic").Inc()
	AIRequestsTotal.WithLabelValues("gemini", "gemini-embedding-001", "embed", "ok").Inc()

	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	for _, want := range []string{`govdocs_search_total{tier="semantic"}`, `govdocs_ai_requests_total{`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestRegister_Idempotent(t *testing.T) {
	// Registration goes to the default registry; a second call must not panic.
	RegisterAIMetrics()
	RegisterAIMetrics()
	RegisterSearchMetrics()
	RegisterSearchMetrics()
	RegisterHTTPMetrics()
	RegisterHTTPMetrics()
}
