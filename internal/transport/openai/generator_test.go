package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/govdocs/internal/domain"
)

func TestGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "gen-model" || len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "scholarship") {
			t.Errorf("unexpected request: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[
			{"index":0,"message":{"role":"assistant","content":"scholarship, education grant"},"finish_reason":"stop"}
		]}`))
	}))
	defer server.Close()

	g := NewGenerator(&Config{APIKey: "test-key", BaseURL: server.URL, GenerationModel: "gen-model", Logger: zap.NewNop()})
	out, err := g.Generate(context.Background(), "keywords for scholarship form")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "scholarship, education grant" {
		t.Errorf("out = %q", out)
	}
}

func TestGenerator_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","choices":[]}`))
	}))
	defer server.Close()

	g := NewGenerator(&Config{APIKey: "k", BaseURL: server.URL, GenerationModel: "m", Logger: zap.NewNop()})
	if _, err := g.Generate(context.Background(), "p"); !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestGenerator_MissingKey(t *testing.T) {
	g := NewGenerator(&Config{GenerationModel: "m", Logger: zap.NewNop()})
	if _, err := g.Generate(context.Background(), "p"); !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
