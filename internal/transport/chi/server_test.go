package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/govdocs/internal/domain"
	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	"github.com/kailas-cloud/govdocs/internal/domain/search/result"
	analyticsuc "github.com/kailas-cloud/govdocs/internal/usecase/analytics"
	healthuc "github.com/kailas-cloud/govdocs/internal/usecase/health"
)

type mockSearch struct {
	resp    result.Response
	err     error
	queries []string
}

func (m *mockSearch) Search(_ context.Context, query string) (result.Response, error) {
	m.queries = append(m.queries, query)
	return m.resp, m.err
}

type mockAnalytics struct {
	summary analyticsuc.Summary
	err     error
}

func (m *mockAnalytics) Summary(_ context.Context) (analyticsuc.Summary, error) {
	return m.summary, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func healthy() *mockHealth {
	return &mockHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
	}}
}

func newTestRouter(search SearchService, analytics AnalyticsService, health HealthService) http.Handler {
	return NewRouter(NewServer(search, analytics, health, zap.NewNop()), zap.NewNop(), nil)
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error
}

func TestSearch_KeywordResults(t *testing.T) {
	doc := domdoc.Document{
		ID:         "abc",
		Collection: domdoc.Tender,
		Name:       "Road works tender",
		Content:    "Resurfacing of NH-44",
		Department: "PWD",
		CreatedAt:  domdoc.DateFromTime(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)),
		Embedding:  []float32{0.1, 0.2},
	}
	search := &mockSearch{resp: result.Response{
		Results:    []result.Result{result.New(doc, result.Keyword)},
		SearchType: result.Keyword,
	}}
	h := newTestRouter(search, nil, healthy())

	rr := postJSON(h, "/api/search", `{"query":"road"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if len(search.queries) != 1 || search.queries[0] != "road" {
		t.Errorf("queries = %v", search.queries)
	}

	var raw map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw["searchType"] != "keyword" {
		t.Errorf("searchType = %v", raw["searchType"])
	}
	if _, ok := raw["refinedKeywords"]; ok {
		t.Error("refinedKeywords must be omitted for keyword results")
	}

	results := raw["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	item := results[0].(map[string]any)
	if item["_id"] != "abc" {
		t.Errorf("_id = %v", item["_id"])
	}
	if item["title"] != "Road works tender" {
		t.Errorf("title should fall back to name, got %v", item["title"])
	}
	if item["category"] != "Tender" || item["collection"] != "Tender" {
		t.Errorf("category = %v collection = %v", item["category"], item["collection"])
	}
	if item["source"] != "keyword" {
		t.Errorf("source = %v", item["source"])
	}
	if _, ok := item["similarity"]; ok {
		t.Error("keyword hit must not carry similarity")
	}
	if _, ok := item["embedding"]; ok {
		t.Error("embedding leaked to the client")
	}
	if cats, ok := item["categories"].([]any); !ok || len(cats) != 0 {
		t.Errorf("categories should be an empty array, got %v", item["categories"])
	}
}

func TestSearch_RefinedIncludesKeywords(t *testing.T) {
	search := &mockSearch{resp: result.Response{
		Results:         []result.Result{result.New(domdoc.Document{ID: "x", Collection: domdoc.EmploymentNotice}, result.Refined)},
		SearchType:      result.Refined,
		RefinedKeywords: []string{"recruitment", "vacancy"},
	}}
	h := newTestRouter(search, nil, healthy())

	rr := postJSON(h, "/api/search", `{"query":"jobs"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SearchType != "refined" {
		t.Errorf("searchType = %q", resp.SearchType)
	}
	if len(resp.RefinedKeywords) != 2 || resp.RefinedKeywords[0] != "recruitment" {
		t.Errorf("refinedKeywords = %v", resp.RefinedKeywords)
	}
}

func TestSearch_SemanticSimilarity(t *testing.T) {
	search := &mockSearch{resp: result.Response{
		Results:    []result.Result{result.NewScored(domdoc.Document{ID: "s", Collection: domdoc.NotificationCircular}, result.Semantic, 0.83)},
		SearchType: result.Semantic,
	}}
	h := newTestRouter(search, nil, healthy())

	rr := postJSON(h, "/api/search", `{"query":"holiday circular"}`)
	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Similarity == nil || *resp.Results[0].Similarity != 0.83 {
		t.Fatalf("results = %+v", resp.Results)
	}
	if resp.Results[0].Category != "Notification/Circular" {
		t.Errorf("category = %q", resp.Results[0].Category)
	}
}

func TestChat_SameAsSearch(t *testing.T) {
	search := &mockSearch{resp: result.Response{SearchType: result.Keyword, Results: []result.Result{}}}
	h := newTestRouter(search, nil, healthy())

	rr := postJSON(h, "/api/chat", `{"query":"tender"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if len(search.queries) != 1 || search.queries[0] != "tender" {
		t.Errorf("queries = %v", search.queries)
	}
}

func TestSearch_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{"query":`, "invalid JSON body"},
		{"missing query", `{}`, "query is required"},
		{"empty query", `{"query":""}`, "query is required"},
		{"wrong type", `{"query":42}`, "invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := &mockSearch{}
			h := newTestRouter(search, nil, healthy())

			rr := postJSON(h, "/api/search", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if got := decodeError(t, rr); got != tt.want {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
			if len(search.queries) != 0 {
				t.Error("search must not run on a bad request")
			}
		})
	}
}

func TestSearch_DomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid query", fmt.Errorf("too long: %w", domain.ErrInvalidQuery), http.StatusBadRequest},
		{"store down", domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{"upstream down", domain.ErrMissingAPIKey, http.StatusServiceUnavailable},
		{"timeout", fmt.Errorf("search aborted: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"canceled", fmt.Errorf("search aborted: %w", context.Canceled), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&mockSearch{err: tt.err}, nil, healthy())

			rr := postJSON(h, "/api/search", `{"query":"q"}`)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			if decodeError(t, rr) == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestSearch_CanceledIsNotLoggedAsError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	search := &mockSearch{err: fmt.Errorf("search aborted: %w", context.Canceled)}
	h := NewRouter(NewServer(search, nil, healthy(), log), log, nil)

	rr := postJSON(h, "/api/search", `{"query":"q"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 0 {
		t.Errorf("error-level entries = %d, want 0", n)
	}
	if n := logs.FilterMessage("search canceled").Len(); n != 1 {
		t.Errorf("debug entries = %d, want 1", n)
	}
}

func TestSearch_NoResults404(t *testing.T) {
	h := newTestRouter(&mockSearch{err: domain.ErrNoResults}, nil, healthy())

	rr := postJSON(h, "/api/search", `{"query":"nothing matches"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	var resp notFoundResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "No documents found matching your query" {
		t.Errorf("message = %q", resp.Message)
	}
	if len(resp.Suggestions) != 3 {
		t.Errorf("suggestions = %v", resp.Suggestions)
	}
}

func TestAnalytics_Disabled(t *testing.T) {
	h := newTestRouter(&mockSearch{}, nil, healthy())

	req := httptest.NewRequest(http.MethodGet, "/api/analytics", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if got := decodeError(t, rr); got != "analytics disabled" {
		t.Errorf("error = %q", got)
	}
}

func TestAnalytics_Summary(t *testing.T) {
	an := &mockAnalytics{summary: analyticsuc.Summary{
		Day:        time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Searches:   map[string]int64{"keyword": 3, "semantic": 1},
		Total:      4,
		TopQueries: []analyticsuc.QueryCount{{Query: "tender", Count: 2}},
	}}
	h := newTestRouter(&mockSearch{}, an, healthy())

	req := httptest.NewRequest(http.MethodGet, "/api/analytics", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp analyticsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Day != "2024-05-02" || resp.Total != 4 || resp.Searches["keyword"] != 3 {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.TopQueries) != 1 || resp.TopQueries[0].Query != "tender" {
		t.Errorf("top = %+v", resp.TopQueries)
	}
}

func TestAnalytics_StoreError503(t *testing.T) {
	h := newTestRouter(&mockSearch{}, &mockAnalytics{err: errors.New("redis down")}, healthy())

	req := httptest.NewRequest(http.MethodGet, "/api/analytics", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestAnalytics_RequiresKeyWhenConfigured(t *testing.T) {
	srv := NewServer(&mockSearch{}, &mockAnalytics{}, healthy(), zap.NewNop())
	h := NewRouter(srv, zap.NewNop(), []string{"admin"})

	req := httptest.NewRequest(http.MethodGet, "/api/analytics", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("without key: status = %d, want 401", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/analytics", http.NoBody)
	req.Header.Set("Authorization", "Bearer admin")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("with key: status = %d, want 200", rr.Code)
	}

	// Search stays open.
	if rr := postJSON(h, "/api/search", `{"query":"q"}`); rr.Code == http.StatusUnauthorized {
		t.Error("search must not require a key")
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		status healthuc.Status
		want   int
	}{
		{"healthy", healthuc.Healthy, http.StatusOK},
		{"degraded", healthuc.Degraded, http.StatusOK},
		{"unhealthy", healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			health := &mockHealth{report: healthuc.Report{
				Status: tt.status,
				Checks: map[string]healthuc.CheckResult{"embedding": healthuc.CheckMissingKey},
			}}
			h := newTestRouter(&mockSearch{}, nil, health)

			req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			var resp healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tt.status) {
				t.Errorf("status field = %q", resp.Status)
			}
			if resp.Checks["embedding"] != "missing_key" {
				t.Errorf("checks = %v", resp.Checks)
			}
		})
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	h := newTestRouter(&mockSearch{}, nil, healthy())

	req := httptest.NewRequest(http.MethodGet, "/nope", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown path: %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/search", http.NoBody)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/search: %d", rr.Code)
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	h := newTestRouter(&mockSearch{}, nil, healthy())

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("X-Request-Id", "req-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

type panickingSearch struct{}

func (panickingSearch) Search(context.Context, string) (result.Response, error) {
	panic("kaboom")
}

func TestRouter_RecoversPanic(t *testing.T) {
	h := newTestRouter(panickingSearch{}, nil, healthy())

	rr := postJSON(h, "/api/search", `{"query":"q"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if got := decodeError(t, rr); got != "internal error" {
		t.Errorf("error = %q", got)
	}
}
