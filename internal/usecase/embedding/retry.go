package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/govdocs/internal/domain"
	"github.com/kailas-cloud/govdocs/internal/metrics"
)

// RetryPolicy describes how transient AI failures are retried.
// MaxAttempts counts the first call.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is 3 attempts, 1s base delay doubling up to 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    4 * time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= mult
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do runs fn until it succeeds, fails with a non-transient error,
// or the attempts run out. op labels the retry metric and log lines.
func (p RetryPolicy) Do(ctx context.Context, op string, logger *zap.Logger, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !domain.IsTransient(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay := p.Delay(attempt)
		logger.Debug("Transient AI failure, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)
		metrics.AIRetriesTotal.WithLabelValues(op).Inc()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", lastErr, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// RetryingEmbedder retries transient embedding failures per its policy.
type RetryingEmbedder struct {
	inner  domain.Embedder
	policy RetryPolicy
	logger *zap.Logger
}

// NewRetryingEmbedder wraps inner with policy.
func NewRetryingEmbedder(inner domain.Embedder, policy RetryPolicy, logger *zap.Logger) *RetryingEmbedder {
	return &RetryingEmbedder{inner: inner, policy: policy, logger: logger}
}

// Embed implements domain.Embedder.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var result domain.EmbeddingResult
	err := r.policy.Do(ctx, "embed", r.logger, func(ctx context.Context) error {
		var err error
		result, err = r.inner.Embed(ctx, text)
		return err
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return result, nil
}

// RetryingGenerator retries transient generation failures per its policy.
type RetryingGenerator struct {
	inner  domain.Generator
	policy RetryPolicy
	logger *zap.Logger
}

// NewRetryingGenerator wraps inner with policy.
func NewRetryingGenerator(inner domain.Generator, policy RetryPolicy, logger *zap.Logger) *RetryingGenerator {
	return &RetryingGenerator{inner: inner, policy: policy, logger: logger}
}

// Generate implements domain.Generator.
func (r *RetryingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := r.policy.Do(ctx, "generate", r.logger, func(ctx context.Context) error {
		var err error
		out, err = r.inner.Generate(ctx, prompt)
		return err
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
