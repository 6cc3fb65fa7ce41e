package health

import (
	"context"
	"errors"
	"time"

	"github.com/kailas-cloud/govdocs/internal/domain"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a failing optional component; search still answers from tier 1.
	Degraded Status = "degraded"
	// Unhealthy indicates the document store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissingKey indicates the AI provider has no API key configured.
	CheckMissingKey CheckResult = "missing_key"
)

const checkTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        Pinger
	embedding EmbeddingChecker
	redis     Pinger
}

// New creates a Service. embedding and redis can be nil.
func New(db Pinger, embedding EmbeddingChecker, redis Pinger) *Service {
	return &Service{db: db, embedding: embedding, redis: redis}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["database"] = probe(ctx, s.db.Ping)

	if s.redis != nil {
		checks["redis"] = probe(ctx, s.redis.Ping)
	}

	if s.embedding != nil {
		checks["embedding"] = probe(ctx, s.embedding.HealthCheck)
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}
	if checks["database"] != CheckOK {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func probe(ctx context.Context, fn func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	err := fn(ctx)
	switch {
	case err == nil:
		return CheckOK
	case errors.Is(err, domain.ErrMissingAPIKey):
		return CheckMissingKey
	default:
		return CheckError
	}
}
