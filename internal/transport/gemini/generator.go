package gemini

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/govdocs/internal/domain"
	"github.com/kailas-cloud/govdocs/internal/metrics"
)

// Generator produces text with a Gemini generative model.
type Generator struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGenerator creates a Gemini text generator.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Generator{client: client, model: cfg.GenerationModel, logger: cfg.Logger}, nil
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		metrics.AIRequestsTotal.WithLabelValues(providerName, g.model, "generate", "no_key").Inc()
		return "", domain.ErrMissingAPIKey
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{Temperature: genai.Ptr(float32(0.2))})
	metrics.AIRequestDuration.WithLabelValues(providerName, g.model, "generate").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues(providerName, g.model, "generate", "error").Inc()
		return "", parseAPIError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		metrics.AIRequestsTotal.WithLabelValues(providerName, g.model, "generate", "invalid").Inc()
		return "", fmt.Errorf("no candidates in response: %w", domain.ErrInvalidResponse)
	}

	metrics.AIRequestsTotal.WithLabelValues(providerName, g.model, "generate", "success").Inc()
	if resp.UsageMetadata != nil && resp.UsageMetadata.TotalTokenCount > 0 {
		metrics.AITokensTotal.WithLabelValues(providerName, g.model).Add(float64(resp.UsageMetadata.TotalTokenCount))
	}
	return resp.Text(), nil
}
