package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/govdocs/internal/domain"
	"github.com/kailas-cloud/govdocs/internal/domain/search/result"
	"github.com/kailas-cloud/govdocs/internal/logger"
	analyticsuc "github.com/kailas-cloud/govdocs/internal/usecase/analytics"
	healthuc "github.com/kailas-cloud/govdocs/internal/usecase/health"
)

const maxBodyBytes = 64 << 10

// SearchService runs the search cascade.
type SearchService interface {
	Search(ctx context.Context, query string) (result.Response, error)
}

// AnalyticsService summarizes recorded searches.
type AnalyticsService interface {
	Summary(ctx context.Context) (analyticsuc.Summary, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	search        SearchService
	analytics     AnalyticsService
	health        HealthService
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. analytics can be nil (endpoint answers 404).
func NewServer(search SearchService, analytics AnalyticsService, health HealthService, logger *zap.Logger) *Server {
	s := &Server{
		search:    search,
		analytics: analytics,
		health:    health,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		notFoundHandler,
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest,
			"query must be a non-empty string within the length limit"),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "document store unavailable"),
		sentinelHandler(domain.ErrServiceUnavailable, http.StatusServiceUnavailable, "service unavailable"),
		sentinelHandler(context.DeadlineExceeded, http.StatusServiceUnavailable, "search timed out"),
		sentinelHandler(context.Canceled, http.StatusServiceUnavailable, "search aborted"),
	}
	return s
}

// Search handles POST /api/search and POST /api/chat.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	resp, err := s.search.Search(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, responseToDTO(resp))
}

// Analytics handles GET /api/analytics.
func (s *Server) Analytics(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		writeError(w, http.StatusNotFound, "analytics disabled")
		return
	}
	summary, err := s.analytics.Summary(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("analytics summary failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "analytics unavailable")
		return
	}
	writeJSON(w, http.StatusOK, summaryToDTO(summary))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error
// and answers with a fixed message.
func sentinelHandler(sentinel error, status int, message string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, message)
		return true
	}
}

// notFoundHandler answers an empty cascade with the static suggestions.
func notFoundHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrNoResults) {
		return false
	}
	nf := result.DefaultNotFound()
	writeJSON(w, http.StatusNotFound, notFoundResponse{Message: nf.Message, Suggestions: nf.Suggestions})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			switch {
			case errors.Is(err, domain.ErrNoResults):
			case errors.Is(err, context.Canceled):
				// client went away
				log.Debug("search canceled", zap.Error(err))
			default:
				log.Warn("domain error", zap.Error(err))
			}
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
