package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/govdocs/internal/domain"
)

const providerName = "gemini"

// Config holds the Gemini provider settings.
type Config struct {
	APIKey          string
	BaseURL         string
	EmbeddingModel  string
	GenerationModel string
	Dimensions      int
	HTTPClient      *http.Client
	Logger          *zap.Logger
}

// newClient builds a Gemini API client. With no key it returns nil: the SDK
// would otherwise fall back to GOOGLE_API_KEY from the environment.
func newClient(ctx context.Context, cfg *Config) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// parseAPIError maps SDK errors onto the domain taxonomy.
func parseAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return upstream(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return upstream(*apiErrPtr)
	}
	return fmt.Errorf("%s request failed: %v: %w", providerName, err, domain.ErrServiceUnavailable)
}

func upstream(e genai.APIError) error {
	detail := e.Message
	if detail == "" {
		detail = e.Status
	}
	return &domain.UpstreamError{
		Provider: providerName,
		Status:   e.Code,
		Detail:   detail,
		Kind:     domain.ErrServiceUnavailable,
	}
}
