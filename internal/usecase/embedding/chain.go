package embedding

import (
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/govdocs/internal/domain"
)

// ChainConfig describes the decorators wrapped around a provider.
type ChainConfig struct {
	Provider string
	Model    string
	Limiter  *rate.Limiter // nil = unlimited
	Retry    RetryPolicy
	Logger   *zap.Logger
}

// ChainEmbedder assembles Instrumented -> Retrying -> RateLimited -> base.
// The limiter sits innermost so every retry waits for a token too.
func ChainEmbedder(base domain.Embedder, cfg ChainConfig) domain.Embedder {
	var e domain.Embedder = base
	if cfg.Limiter != nil {
		e = NewRateLimitedEmbedder(e, cfg.Limiter)
	}
	e = NewRetryingEmbedder(e, cfg.Retry, cfg.Logger)
	return NewInstrumentedEmbedder(e, cfg.Provider, cfg.Model, cfg.Logger)
}

// ChainGenerator assembles the same stack for a generator.
func ChainGenerator(base domain.Generator, cfg ChainConfig) domain.Generator {
	var g domain.Generator = base
	if cfg.Limiter != nil {
		g = NewRateLimitedGenerator(g, cfg.Limiter)
	}
	g = NewRetryingGenerator(g, cfg.Retry, cfg.Logger)
	return NewInstrumentedGenerator(g, cfg.Provider, cfg.Model, cfg.Logger)
}
