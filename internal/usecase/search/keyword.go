package search

import (
	"context"
	"fmt"
	"regexp"

	"github.com/kailas-cloud/govdocs/internal/domain"
	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	"github.com/kailas-cloud/govdocs/internal/domain/search/result"
)

// KeywordMatcher finds documents whose text fields contain the literal query.
type KeywordMatcher struct {
	store KeywordStore
	colls []domdoc.Collection
	limit int
}

// NewKeywordMatcher creates a matcher capped at limit documents per collection (0 = no cap).
func NewKeywordMatcher(store KeywordStore, limit int) *KeywordMatcher {
	return &KeywordMatcher{store: store, colls: domdoc.All(), limit: limit}
}

// Match queries every collection for a case-insensitive literal match.
// Failed collections are skipped; only a failure of all of them is an error.
func (m *KeywordMatcher) Match(ctx context.Context, query string) ([]result.Result, error) {
	pattern := regexp.QuoteMeta(query)

	outcomes := fanOut(ctx, m.colls, func(ctx context.Context, c domdoc.Collection) ([]domdoc.Document, error) {
		return m.store.KeywordMatch(ctx, c, pattern, m.limit)
	})
	docs, failed := merge(ctx, tierKeyword, outcomes)
	if failed == len(m.colls) {
		return nil, fmt.Errorf("keyword match: all %d collections failed: %w", failed, domain.ErrStoreUnavailable)
	}

	results := make([]result.Result, 0, len(docs))
	for _, d := range docs {
		results = append(results, result.New(d, result.Keyword))
	}
	return results, nil
}
