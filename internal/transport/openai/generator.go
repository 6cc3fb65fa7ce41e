package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/govdocs/internal/domain"
	"github.com/kailas-cloud/govdocs/internal/metrics"
)

// Generator produces text through the chat completions endpoint.
type Generator struct {
	client *openai.Client
	apiKey string
	model  string
	logger *zap.Logger
}

// NewGenerator creates an OpenAI-compatible text generator.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		client: newClient(cfg),
		apiKey: cfg.APIKey,
		model:  cfg.GenerationModel,
		logger: cfg.Logger,
	}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		metrics.AIRequestsTotal.WithLabelValues(providerName, g.model, "generate", "no_key").Inc()
		return "", domain.ErrMissingAPIKey
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	metrics.AIRequestDuration.WithLabelValues(providerName, g.model, "generate").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues(providerName, g.model, "generate", "error").Inc()
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.AIRequestsTotal.WithLabelValues(providerName, g.model, "generate", "invalid").Inc()
		return "", fmt.Errorf("no choices in completion: %w", domain.ErrInvalidResponse)
	}

	metrics.AIRequestsTotal.WithLabelValues(providerName, g.model, "generate", "success").Inc()
	return resp.Choices[0].Message.Content, nil
}
