package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/govdocs/internal/domain"
	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	"github.com/kailas-cloud/govdocs/internal/domain/search/result"
	"github.com/kailas-cloud/govdocs/internal/domain/vector"
	"github.com/kailas-cloud/govdocs/internal/logger"
	"github.com/kailas-cloud/govdocs/internal/metrics"
)

// FieldWeights are the lexical bonuses added when the query terms hit a field.
type FieldWeights struct {
	Title      float64
	Content    float64
	Categories float64
	Keywords   float64
	Summary    float64
}

// Tuning holds the semantic ranking parameters.
type Tuning struct {
	CandidateLimit int
	Threshold      float64
	SemanticWeight float64
	TextWeight     float64
	TopK           int
	Prefilter      bool
	Weights        FieldWeights
}

// DefaultTuning returns the production ranking parameters.
func DefaultTuning() Tuning {
	return Tuning{
		CandidateLimit: 100,
		Threshold:      0.7,
		SemanticWeight: 0.7,
		TextWeight:     0.3,
		TopK:           10,
		Prefilter:      true,
		Weights: FieldWeights{
			Title:      2,
			Content:    1,
			Categories: 1.5,
			Keywords:   1.5,
			Summary:    1.8,
		},
	}
}

// minTermRunes drops one-letter noise from the term alternation. Two-letter
// terms stay so acronyms like "PF" or "IT" still count.
const minTermRunes = 2

// stopwords never count as query terms: as substrings they hit nearly every
// document and would earn text weight with no topical overlap.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "how": {}, "i": {}, "in": {}, "into": {}, "is": {}, "it": {},
	"me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "the": {}, "to": {}, "was": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "with": {},
}

// SemanticRanker blends embedding similarity with a weighted lexical score.
type SemanticRanker struct {
	store  CandidateStore
	colls  []domdoc.Collection
	tuning Tuning
}

// NewSemanticRanker creates a ranker.
func NewSemanticRanker(store CandidateStore, tuning Tuning) *SemanticRanker {
	return &SemanticRanker{store: store, colls: domdoc.All(), tuning: tuning}
}

// Rank scores prefiltered candidates against the query embedding and returns
// at most TopK results at or above Threshold, best first.
func (r *SemanticRanker) Rank(ctx context.Context, query string, embedding []float32) ([]result.Result, error) {
	termPattern := termAlternation(query)

	storePattern := ""
	if r.tuning.Prefilter {
		storePattern = termPattern
	}
	outcomes := fanOut(ctx, r.colls, func(ctx context.Context, c domdoc.Collection) ([]domdoc.Document, error) {
		return r.store.SemanticCandidates(ctx, c, storePattern, r.tuning.CandidateLimit)
	})
	docs, failed := merge(ctx, tierSemantic, outcomes)
	if failed == len(r.colls) {
		return nil, fmt.Errorf("semantic candidates: all %d collections failed: %w", failed, domain.ErrStoreUnavailable)
	}

	matcher, err := regexp.Compile("(?i)" + termPattern)
	if err != nil {
		return nil, fmt.Errorf("compile term pattern: %w", err)
	}

	results := make([]result.Result, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		sim, err := vector.Cosine(embedding, d.Embedding)
		if err != nil {
			recordSkipped(ctx, d, err)
			continue
		}
		combined := r.tuning.SemanticWeight*sim + r.tuning.TextWeight*r.textScore(matcher, d)
		if combined < r.tuning.Threshold {
			continue
		}
		doc := *d
		doc.Embedding = nil
		results = append(results, result.NewScored(doc, result.Semantic, combined))
	}

	sortRanked(results)
	if r.tuning.TopK > 0 && len(results) > r.tuning.TopK {
		results = results[:r.tuning.TopK]
	}
	return results, nil
}

// textScore adds each field weight in full when the terms hit that field.
func (r *SemanticRanker) textScore(m *regexp.Regexp, d *domdoc.Document) float64 {
	w := r.tuning.Weights
	score := 0.0
	if m.MatchString(d.DisplayTitle()) {
		score += w.Title
	}
	if m.MatchString(d.Content) {
		score += w.Content
	}
	if m.MatchString(strings.Join(d.Categories, " ")) {
		score += w.Categories
	}
	if m.MatchString(strings.Join(d.Keywords, " ")) {
		score += w.Keywords
	}
	if m.MatchString(d.Summary) {
		score += w.Summary
	}
	return score
}

// sortRanked orders by score descending; ties fall back to collection order, then id.
func sortRanked(results []result.Result) {
	order := make(map[domdoc.Collection]int, 3)
	for i, c := range domdoc.All() {
		order[c] = i
	}
	slices.SortStableFunc(results, func(a, b result.Result) int {
		if c := cmp.Compare(b.Score(), a.Score()); c != 0 {
			return c
		}
		if c := cmp.Compare(order[a.Document.Collection], order[b.Document.Collection]); c != 0 {
			return c
		}
		return cmp.Compare(a.Document.ID, b.Document.ID)
	})
}

// termAlternation escapes each query term of at least two runes that is not a
// stopword and joins them with "|". A query with no such term falls back to
// the escaped whole query.
func termAlternation(query string) string {
	seen := make(map[string]struct{})
	var terms []string
	for _, t := range strings.Fields(query) {
		if utf8.RuneCountInString(t) < minTermRunes {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := stopwords[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, regexp.QuoteMeta(t))
	}
	if len(terms) == 0 {
		return regexp.QuoteMeta(strings.TrimSpace(query))
	}
	return strings.Join(terms, "|")
}

func recordSkipped(ctx context.Context, d *domdoc.Document, err error) {
	reason := "other"
	switch {
	case errors.Is(err, domain.ErrDimensionMismatch):
		reason = "dimension_mismatch"
	case errors.Is(err, vector.ErrZeroMagnitude):
		reason = "zero_magnitude"
	}
	metrics.SemanticSkippedTotal.WithLabelValues(reason).Inc()
	logger.FromContext(ctx).Debug("Semantic candidate skipped",
		zap.String("collection", d.Collection.String()),
		zap.String("id", d.ID),
		zap.String("reason", reason),
	)
}
