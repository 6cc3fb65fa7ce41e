package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/govdocs/internal/domain"
	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	"github.com/kailas-cloud/govdocs/internal/domain/search/result"
	"github.com/kailas-cloud/govdocs/internal/logger"
	"github.com/kailas-cloud/govdocs/internal/metrics"
)

// Tier labels used in metrics, logs and analytics.
const (
	tierKeyword  = string(result.Keyword)
	tierSemantic = string(result.Semantic)
	tierRefined  = string(result.Refined)
	// TierNotFound labels a search where every tier came back empty.
	TierNotFound = "not_found"
	tierError    = "error"
)

// Tiers lists every outcome label a completed search is counted under.
func Tiers() []string {
	return []string{tierKeyword, tierSemantic, tierRefined, TierNotFound}
}

// Config bounds the cascade.
type Config struct {
	MaxQueryLength    int
	KeywordLimit      int
	SampleSize        int
	RefineSampleLimit int
	RefinedLimit      int
	Timeout           time.Duration
}

// DefaultConfig returns the production cascade bounds.
func DefaultConfig() Config {
	return Config{
		MaxQueryLength:    500,
		KeywordLimit:      50,
		SampleSize:        5,
		RefineSampleLimit: 10,
		RefinedLimit:      20,
	}
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder reports every completed search to rec.
func WithRecorder(rec Recorder) Option {
	return func(s *Service) { s.recorder = rec }
}

// WithTuning overrides the semantic ranking parameters.
func WithTuning(t Tuning) Option {
	return func(s *Service) { s.semantic = NewSemanticRanker(s.store, t) }
}

// Service runs the keyword → semantic → refinement cascade.
type Service struct {
	store    Store
	embed    Embedder
	keyword  *KeywordMatcher
	semantic *SemanticRanker
	refiner  *Refiner
	recorder Recorder
	colls    []domdoc.Collection
	cfg      Config
}

// New creates a search service.
func New(store Store, embed Embedder, gen Generator, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:    store,
		embed:    embed,
		keyword:  NewKeywordMatcher(store, cfg.KeywordLimit),
		semantic: NewSemanticRanker(store, DefaultTuning()),
		refiner:  NewRefiner(gen, cfg.RefineSampleLimit),
		colls:    domdoc.All(),
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the cascade for a raw user query.
// Returns domain.ErrInvalidQuery for empty or oversized queries and
// domain.ErrNoResults when every tier came back empty.
func (s *Service) Search(ctx context.Context, rawQuery string) (result.Response, error) {
	query := strings.TrimSpace(rawQuery)
	if query == "" {
		return result.Response{}, fmt.Errorf("empty query: %w", domain.ErrInvalidQuery)
	}
	if s.cfg.MaxQueryLength > 0 && utf8.RuneCountInString(query) > s.cfg.MaxQueryLength {
		return result.Response{}, fmt.Errorf("query longer than %d characters: %w",
			s.cfg.MaxQueryLength, domain.ErrInvalidQuery)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	ctx = logger.WithFields(ctx, zap.String("query", query))
	start := time.Now()
	resp, err := s.cascade(ctx, query)

	tier := outcomeTier(resp, err)
	metrics.SearchTotal.WithLabelValues(tier).Inc()
	metrics.SearchDuration.WithLabelValues(tier).Observe(time.Since(start).Seconds())
	if s.recorder != nil && tier != tierError {
		s.recorder.Record(context.WithoutCancel(ctx), query, tier, len(resp.Results))
	}
	return resp, err
}

func (s *Service) cascade(ctx context.Context, query string) (result.Response, error) {
	log := logger.FromContext(ctx)

	results, err := s.keyword.Match(ctx, query)
	if err != nil {
		return result.Response{}, err
	}
	if len(results) > 0 {
		log.Debug("Search answered by keyword tier", zap.Int("results", len(results)))
		return result.Response{Results: results, SearchType: result.Keyword}, nil
	}

	log.Debug("Keyword tier empty, trying semantic")
	if results = s.semanticTier(ctx, query); len(results) > 0 {
		return result.Response{Results: results, SearchType: result.Semantic}, nil
	}
	if err := ctx.Err(); err != nil {
		return result.Response{}, fmt.Errorf("search aborted: %w", err)
	}

	log.Debug("Semantic tier empty, trying refinement")
	results, kws := s.refineTier(ctx, query)
	if len(results) > 0 {
		return result.Response{Results: results, SearchType: result.Refined, RefinedKeywords: kws}, nil
	}
	if err := ctx.Err(); err != nil {
		return result.Response{}, fmt.Errorf("search aborted: %w", err)
	}

	log.Debug("All tiers empty", zap.Strings("refined_keywords", kws))
	return result.Response{}, domain.ErrNoResults
}

// semanticTier swallows its own errors; a failure just means no semantic results.
func (s *Service) semanticTier(ctx context.Context, query string) []result.Result {
	log := logger.FromContext(ctx)

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrMissingAPIKey) {
			log.Debug("Semantic tier skipped: no embedding API key")
		} else {
			log.Warn("Query embedding failed, skipping semantic tier", zap.Error(err))
		}
		return nil
	}

	results, err := s.semantic.Rank(ctx, query, emb.Embedding)
	if err != nil {
		log.Warn("Semantic ranking failed", zap.Error(err))
		return nil
	}
	return results
}

// refineTier samples the store, asks for alternative keywords and looks them up.
func (s *Service) refineTier(ctx context.Context, query string) ([]result.Result, []string) {
	outcomes := fanOut(ctx, s.colls, func(ctx context.Context, c domdoc.Collection) ([]domdoc.Document, error) {
		return s.store.Sample(ctx, c, s.cfg.SampleSize)
	})
	docs, _ := merge(ctx, tierRefined, outcomes)

	samples := make([]domdoc.Sample, 0, len(docs))
	for i := range docs {
		samples = append(samples, docs[i].ToSample())
	}

	kws := s.refiner.Refine(ctx, query, samples)
	if len(kws) == 0 {
		return nil, nil
	}

	outcomes = fanOut(ctx, s.colls, func(ctx context.Context, c domdoc.Collection) ([]domdoc.Document, error) {
		return s.store.FindByKeywords(ctx, c, kws, s.cfg.RefinedLimit)
	})
	found, _ := merge(ctx, tierRefined, outcomes)
	if s.cfg.RefinedLimit > 0 && len(found) > s.cfg.RefinedLimit {
		found = found[:s.cfg.RefinedLimit]
	}

	results := make([]result.Result, 0, len(found))
	for _, d := range found {
		results = append(results, result.New(d, result.Refined))
	}
	return results, kws
}

func outcomeTier(resp result.Response, err error) string {
	switch {
	case errors.Is(err, domain.ErrNoResults):
		return TierNotFound
	case err != nil:
		return tierError
	default:
		return string(resp.SearchType)
	}
}
