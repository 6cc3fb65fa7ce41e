package result

import (
	"github.com/kailas-cloud/govdocs/internal/domain/document"
)

// Source tags which search tier produced a result.
type Source string

const (
	// Keyword results come from the case-insensitive field match.
	Keyword Source = "keyword"
	// Semantic results come from embedding similarity blended with a lexical score.
	Semantic Source = "semantic"
	// Refined results come from AI-proposed keywords.
	Refined Source = "refined"
)

// Result is a single search hit: a document plus provenance.
type Result struct {
	Document   document.Document
	Similarity *float64 // nil for keyword and refined hits
	Source     Source
}

// New creates a result without a score.
func New(doc document.Document, source Source) Result {
	return Result{Document: doc, Source: source}
}

// NewScored creates a result carrying a similarity score.
func NewScored(doc document.Document, source Source, score float64) Result {
	return Result{Document: doc, Similarity: &score, Source: source}
}

// Score returns the similarity or 0 when the tier does not score.
func (r *Result) Score() float64 {
	if r.Similarity == nil {
		return 0
	}
	return *r.Similarity
}

// Response is the outcome of a successful cascade.
type Response struct {
	Results         []Result
	SearchType      Source
	RefinedKeywords []string // set only for Refined
}

// NotFound is the payload returned when every tier came back empty.
type NotFound struct {
	Message     string
	Suggestions []string
}

// DefaultNotFound returns the static no-results payload.
func DefaultNotFound() NotFound {
	return NotFound{
		Message: "No documents found matching your query",
		Suggestions: []string{
			"Try using different or more general keywords",
			"Check the spelling of your search terms",
			"Browse documents by category: Employment Notices, Notifications/Circulars, Tenders",
		},
	}
}
