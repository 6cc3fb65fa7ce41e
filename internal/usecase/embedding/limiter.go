package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/govdocs/internal/domain"
)

// NewLimiter returns a token bucket for rps requests per second, or nil when rps <= 0.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// RateLimitedEmbedder waits on a shared limiter before each call. A nil limiter disables waiting.
type RateLimitedEmbedder struct {
	inner   domain.Embedder
	limiter *rate.Limiter
}

// NewRateLimitedEmbedder wraps inner.
func NewRateLimitedEmbedder(inner domain.Embedder, limiter *rate.Limiter) *RateLimitedEmbedder {
	return &RateLimitedEmbedder{inner: inner, limiter: limiter}
}

// Embed implements domain.Embedder.
func (r *RateLimitedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	return r.inner.Embed(ctx, text)
}

// RateLimitedGenerator waits on a shared limiter before each call.
type RateLimitedGenerator struct {
	inner   domain.Generator
	limiter *rate.Limiter
}

// NewRateLimitedGenerator wraps inner.
func NewRateLimitedGenerator(inner domain.Generator, limiter *rate.Limiter) *RateLimitedGenerator {
	return &RateLimitedGenerator{inner: inner, limiter: limiter}
}

// Generate implements domain.Generator.
func (r *RateLimitedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}
	return r.inner.Generate(ctx, prompt)
}
