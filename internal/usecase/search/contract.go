package search

import (
	"context"

	"github.com/kailas-cloud/govdocs/internal/domain"
	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
)

// KeywordStore serves the tier 1 field match.
type KeywordStore interface {
	KeywordMatch(ctx context.Context, c domdoc.Collection, pattern string, limit int) ([]domdoc.Document, error)
}

// CandidateStore serves embedded documents for vector scoring.
type CandidateStore interface {
	SemanticCandidates(ctx context.Context, c domdoc.Collection, pattern string, limit int) ([]domdoc.Document, error)
}

// RefineStore serves the refinement tier: samples for the prompt and
// membership lookups for the proposed keywords.
type RefineStore interface {
	Sample(ctx context.Context, c domdoc.Collection, n int) ([]domdoc.Document, error)
	FindByKeywords(ctx context.Context, c domdoc.Collection, kws []string, limit int) ([]domdoc.Document, error)
}

// Store is everything the cascade reads.
type Store interface {
	KeywordStore
	CandidateStore
	RefineStore
}

// Embedder vectorizes the query.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Generator proposes refined keywords.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recorder receives one event per completed search. Implementations must not fail the caller.
type Recorder interface {
	Record(ctx context.Context, query, tier string, results int)
}
