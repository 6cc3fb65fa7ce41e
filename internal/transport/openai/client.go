package openai

import (
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/govdocs/internal/domain"
)

const providerName = "openai"

// Config holds the OpenAI-compatible provider settings.
type Config struct {
	APIKey          string
	BaseURL         string
	EmbeddingModel  string
	GenerationModel string
	Dimensions      int
	User            string
	Logger          *zap.Logger
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// parseAPIError maps SDK errors onto the domain taxonomy.
// Every transport or HTTP failure becomes ErrServiceUnavailable; the status
// is kept on the UpstreamError for retry decisions and logs.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return &domain.UpstreamError{
			Provider: providerName,
			Status:   reqErr.HTTPStatusCode,
			Detail:   detail,
			Kind:     domain.ErrServiceUnavailable,
		}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{
			Provider: providerName,
			Status:   apiErr.HTTPStatusCode,
			Detail:   apiErr.Message,
			Kind:     domain.ErrServiceUnavailable,
		}
	}

	return fmt.Errorf("%s request failed: %v: %w", providerName, err, domain.ErrServiceUnavailable)
}

// extractDetail pulls a message out of the error body formats seen in practice.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return parsed.Error.Message
}
