package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// maxQueryRunes bounds a stored query so one pasted document cannot bloat the ranking.
const maxQueryRunes = 200

// QueryCount is one entry of the top-queries ranking.
type QueryCount struct {
	Query string
	Count int64
}

// Summary is the analytics view of one UTC day.
type Summary struct {
	Day        time.Time
	Searches   map[string]int64
	Total      int64
	TopQueries []QueryCount
}

// Service records completed searches and summarizes them.
type Service struct {
	store  Store
	tiers  []string
	topN   int
	now    func() time.Time
	logger *zap.Logger
}

// New creates a Service reporting counts for tiers and the topN queries.
func New(store Store, tiers []string, topN int, logger *zap.Logger) *Service {
	return &Service{store: store, tiers: tiers, topN: topN, now: time.Now, logger: logger}
}

// Record counts one completed search. Failures are logged, never returned.
func (s *Service) Record(ctx context.Context, query, tier string, _ int) {
	day := s.now()
	if err := s.store.IncrTier(ctx, day, tier); err != nil {
		s.logger.Warn("Failed to record search tier", zap.String("tier", tier), zap.Error(err))
	}
	if q := NormalizeQuery(query); q != "" {
		if err := s.store.IncrQuery(ctx, day, q); err != nil {
			s.logger.Warn("Failed to record search query", zap.Error(err))
		}
	}
}

// Summary returns today's per-tier counts and most frequent queries.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	now := s.now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts, err := s.store.TierCounts(ctx, day, s.tiers)
	if err != nil {
		return Summary{}, fmt.Errorf("tier counts: %w", err)
	}
	var total int64
	for _, n := range counts {
		total += n
	}

	top, err := s.store.TopQueries(ctx, day, s.topN)
	if err != nil {
		return Summary{}, fmt.Errorf("top queries: %w", err)
	}
	queries := make([]QueryCount, 0, len(top))
	for _, m := range top {
		queries = append(queries, QueryCount{Query: m.Member, Count: int64(m.Score)})
	}

	return Summary{Day: day, Searches: counts, Total: total, TopQueries: queries}, nil
}

// NormalizeQuery lowercases, collapses whitespace and truncates a query for ranking.
func NormalizeQuery(q string) string {
	q = strings.ToLower(strings.Join(strings.Fields(q), " "))
	if utf8.RuneCountInString(q) > maxQueryRunes {
		q = string([]rune(q)[:maxQueryRunes])
	}
	return q
}
