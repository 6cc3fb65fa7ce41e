package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/govdocs/internal/metrics"
)

// NewRouter mounts the API on a chi router with the standard middleware stack.
// analyticsKeys guards /api/analytics with bearer auth when non-empty.
func NewRouter(s *Server, logger *zap.Logger, analyticsKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())

	r.Post("/api/search", s.Search)
	r.Post("/api/chat", s.Search)
	r.With(BearerAuthMiddleware(analyticsKeys)).Get("/api/analytics", s.Analytics)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}
