package govdocs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbMongo "github.com/kailas-cloud/govdocs/internal/db/mongo"
	"github.com/kailas-cloud/govdocs/internal/domain"
	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	"github.com/kailas-cloud/govdocs/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/govdocs/internal/logger"
	documentrepo "github.com/kailas-cloud/govdocs/internal/repository/document"
	"github.com/kailas-cloud/govdocs/internal/transport/gemini"
	openaiT "github.com/kailas-cloud/govdocs/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/govdocs/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/govdocs/internal/usecase/health"
	searchuc "github.com/kailas-cloud/govdocs/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	closeTimeout            = 5 * time.Second

	defaultGeminiEmbedding  = "gemini-embedding-001"
	defaultGeminiGeneration = "gemini-2.5-flash"
	// stored vectors are 768-wide; gemini-embedding-001 returns 3072 unless asked
	defaultGeminiDimensions = 768
	defaultOpenAIEmbedding  = "text-embedding-3-small"
	defaultOpenAIGeneration = "gpt-4o-mini"
)

// searchUseCase is the internal interface for the cascade (swapped in tests).
type searchUseCase interface {
	Search(ctx context.Context, query string) (result.Response, error)
}

// Client is the govdocs SDK entry point.
type Client struct {
	mongo     *dbMongo.Client
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
	logger    *zap.Logger
}

// New creates a Client and connects to MongoDB.
// The provided context is used for the connection and readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.mongoURI == "" || cfg.database == "" {
		return nil, errors.New("govdocs: mongo uri and database required (use WithMongo)")
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	emb, gen, health, err := buildAI(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mc, err := dbMongo.Connect(ctx, dbMongo.Config{URI: cfg.mongoURI, Database: cfg.database, AppName: "govdocs-sdk"})
	if err != nil {
		return nil, fmt.Errorf("govdocs: %w", err)
	}
	if err := mc.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		_ = mc.Close(closeCtx)
		return nil, fmt.Errorf("govdocs: database not ready: %w", err)
	}

	names := make(map[domdoc.Collection]string, len(cfg.collectionNames))
	for c, n := range cfg.collectionNames {
		names[domdoc.Collection(c)] = n
	}
	docs := documentrepo.New(mc.Database(), names)

	c := wireClient(docs, emb, gen, health, cfg, obs)
	c.mongo = mc
	return c, nil
}

func wireClient(
	docs searchuc.Store,
	emb domain.Embedder,
	gen domain.Generator,
	health healthuc.EmbeddingChecker,
	cfg *clientConfig,
	obs *observer,
) *Client {
	tuning := searchuc.DefaultTuning()
	if cfg.threshold != nil {
		tuning.Threshold = *cfg.threshold
	}
	if cfg.topK > 0 {
		tuning.TopK = cfg.topK
	}
	scfg := searchuc.DefaultConfig()
	scfg.Timeout = cfg.timeout

	searchSvc := searchuc.New(docs, emb, gen, scfg, searchuc.WithTuning(tuning))

	var pinger healthuc.Pinger = noopPinger{}
	if p, ok := docs.(healthuc.Pinger); ok {
		pinger = p
	}
	healthSvc := healthuc.New(pinger, health, nil)

	return &Client{searchSvc: searchSvc, healthSvc: healthSvc, obs: obs, logger: cfg.logger}
}

// buildAI resolves the embedder and generator: custom implementations win,
// otherwise the configured provider wrapped in retry and rate limiting.
func buildAI(
	ctx context.Context, cfg *clientConfig,
) (domain.Embedder, domain.Generator, healthuc.EmbeddingChecker, error) {
	provider := cfg.provider
	if provider == "" {
		provider = "gemini"
	}
	embModel, genModel := cfg.embeddingModel, cfg.generationModel

	var (
		baseEmb domain.Embedder
		baseGen domain.Generator
		health  healthuc.EmbeddingChecker
	)
	switch provider {
	case "openai":
		if embModel == "" {
			embModel = defaultOpenAIEmbedding
		}
		if genModel == "" {
			genModel = defaultOpenAIGeneration
		}
		oc := &openaiT.Config{
			APIKey:          cfg.apiKey,
			BaseURL:         cfg.baseURL,
			EmbeddingModel:  embModel,
			GenerationModel: genModel,
			Dimensions:      cfg.dimensions,
			Logger:          cfg.logger,
		}
		e := openaiT.NewEmbedder(oc)
		baseEmb, baseGen, health = e, openaiT.NewGenerator(oc), e
	default:
		if embModel == "" {
			embModel = defaultGeminiEmbedding
		}
		if genModel == "" {
			genModel = defaultGeminiGeneration
		}
		dims := cfg.dimensions
		if dims == 0 {
			dims = defaultGeminiDimensions
		}
		gc := &gemini.Config{
			APIKey:          cfg.apiKey,
			BaseURL:         cfg.baseURL,
			EmbeddingModel:  embModel,
			GenerationModel: genModel,
			Dimensions:      dims,
			Logger:          cfg.logger,
		}
		e, err := gemini.NewEmbedder(ctx, gc)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("govdocs: %w", err)
		}
		g, err := gemini.NewGenerator(ctx, gc)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("govdocs: %w", err)
		}
		baseEmb, baseGen, health = e, g, e
	}

	if cfg.embedder != nil {
		baseEmb = &embedderAdapter{inner: cfg.embedder}
		health = nil
		if hc, ok := cfg.embedder.(healthuc.EmbeddingChecker); ok {
			health = hc
		}
	}
	if cfg.generator != nil {
		baseGen = cfg.generator
	}

	policy := embeddinguc.DefaultRetryPolicy()
	if cfg.retryAttempts > 0 {
		policy.MaxAttempts = cfg.retryAttempts
	}
	if cfg.retryBaseDelay > 0 {
		policy.BaseDelay = cfg.retryBaseDelay
		policy.MaxDelay = 4 * cfg.retryBaseDelay
	}
	limiter := embeddinguc.NewLimiter(cfg.rateLimitRPS)

	emb := embeddinguc.ChainEmbedder(baseEmb, embeddinguc.ChainConfig{
		Provider: provider, Model: embModel, Limiter: limiter, Retry: policy, Logger: cfg.logger,
	})
	gen := embeddinguc.ChainGenerator(baseGen, embeddinguc.ChainConfig{
		Provider: provider, Model: genModel, Limiter: limiter, Retry: policy, Logger: cfg.logger,
	})
	return emb, gen, health, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.mongo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	_ = c.mongo.Close(ctx)
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if c.mongo == nil {
		return errors.New("govdocs: not connected")
	}
	if err = c.mongo.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs the cascade. ErrNoResults means every tier came back empty;
// ErrInvalidQuery means the query is blank or too long.
func (c *Client) Search(ctx context.Context, query string) (_ Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	if c.logger != nil {
		ctx = logpkg.ContextWithLogger(ctx, c.logger)
	}
	resp, err := c.searchSvc.Search(ctx, query)
	if err != nil {
		return Response{}, fmt.Errorf("search: %w", err)
	}
	return toResponse(resp), nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

type noopPinger struct{}

func (noopPinger) Ping(context.Context) error { return nil }
