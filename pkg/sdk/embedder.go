package govdocs

import "context"

// Embedder converts text to a vector. Supply one with WithEmbedder to use a
// provider other than the built-in Gemini and OpenAI clients.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Generator answers a prompt with free text. It proposes refined keywords.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
