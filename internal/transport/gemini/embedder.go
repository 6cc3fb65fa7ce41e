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

// Embedder vectorizes text with a Gemini embedding model.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewEmbedder creates a Gemini embedding provider.
// A missing key is not an error here; Embed reports it per call.
func NewEmbedder(ctx context.Context, cfg *Config) (*Embedder, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Embedder{
		client:     client,
		model:      cfg.EmbeddingModel,
		dimensions: cfg.Dimensions,
		logger:     cfg.Logger,
	}, nil
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if e.client == nil {
		metrics.AIRequestsTotal.WithLabelValues(providerName, e.model, "embed", "no_key").Inc()
		return domain.EmbeddingResult{}, domain.ErrMissingAPIKey
	}

	var cfg *genai.EmbedContentConfig
	if e.dimensions > 0 {
		d := int32(e.dimensions)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &d}
	}

	start := time.Now()
	resp, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, cfg)
	metrics.AIRequestDuration.WithLabelValues(providerName, e.model, "embed").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues(providerName, e.model, "embed", "error").Inc()
		return domain.EmbeddingResult{}, parseAPIError(err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		metrics.AIRequestsTotal.WithLabelValues(providerName, e.model, "embed", "invalid").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrInvalidResponse)
	}
	vec := resp.Embeddings[0].Values
	if e.dimensions > 0 && len(vec) != e.dimensions {
		metrics.AIRequestsTotal.WithLabelValues(providerName, e.model, "embed", "invalid").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("got %d dimensions, want %d: %w",
			len(vec), e.dimensions, domain.ErrInvalidResponse)
	}

	metrics.AIRequestsTotal.WithLabelValues(providerName, e.model, "embed", "success").Inc()
	return domain.EmbeddingResult{Embedding: vec}, nil
}

// HealthCheck verifies the key is accepted by fetching the embedding model.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if e.client == nil {
		return domain.ErrMissingAPIKey
	}
	if _, err := e.client.Models.Get(ctx, e.model, nil); err != nil {
		return fmt.Errorf("get model: %w", parseAPIError(err))
	}
	return nil
}
