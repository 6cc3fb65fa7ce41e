package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/govdocs/internal/config"
	dbMongo "github.com/kailas-cloud/govdocs/internal/db/mongo"
	dbRedis "github.com/kailas-cloud/govdocs/internal/db/redis"
	"github.com/kailas-cloud/govdocs/internal/domain"
	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	logpkg "github.com/kailas-cloud/govdocs/internal/logger"
	"github.com/kailas-cloud/govdocs/internal/metrics"
	analyticsrepo "github.com/kailas-cloud/govdocs/internal/repository/analytics"
	documentrepo "github.com/kailas-cloud/govdocs/internal/repository/document"
	"github.com/kailas-cloud/govdocs/internal/repository/embcache"
	"github.com/kailas-cloud/govdocs/internal/transport/gemini"
	openaiT "github.com/kailas-cloud/govdocs/internal/transport/openai"
	analyticsuc "github.com/kailas-cloud/govdocs/internal/usecase/analytics"
	embeddinguc "github.com/kailas-cloud/govdocs/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/govdocs/internal/usecase/health"
	searchuc "github.com/kailas-cloud/govdocs/internal/usecase/search"
	"github.com/kailas-cloud/govdocs/internal/version"
)

// app is the composition root shared by every command.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger

	mongo *dbMongo.Client
	redis *dbRedis.Store // nil when redis is not configured or unreachable
	docs  *documentrepo.Repo

	// docEmbedder is the uncached chain used by backfill; queryEmbedder
	// adds the optional cache in front of it.
	docEmbedder   domain.Embedder
	queryEmbedder domain.Embedder
	generator     domain.Generator
	embedHealth   domain.HealthChecker

	analytics *analyticsuc.Service // nil when disabled
}

func newApp(ctx context.Context, env, logLevel string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel == "" {
		logLevel = cfg.Logging.Level
	}
	logger, err := logpkg.NewLogger(env, logLevel)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Starting govdocs",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("database", cfg.Database.Name),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterAIMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	a := &app{env: env, cfg: cfg, logger: logger}

	names, err := collectionNames(cfg.Database.Collections)
	if err != nil {
		return nil, err
	}

	a.mongo, err = dbMongo.Connect(ctx, dbMongo.Config{
		URI:      cfg.Database.URI,
		Database: cfg.Database.Name,
		AppName:  "govdocs",
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := a.mongo.WaitForReady(ctx, cfg.Database.ReadinessTimeoutDuration()); err != nil {
		a.close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")
	a.docs = documentrepo.New(a.mongo.Database(), names)

	a.connectRedis(ctx)

	if err := a.buildAI(ctx); err != nil {
		a.close()
		return nil, err
	}

	if cfg.Analytics.Enabled && a.redis != nil {
		retention := time.Duration(cfg.Analytics.RetentionDays) * 24 * time.Hour
		store := analyticsrepo.New(a.redis, retention)
		a.analytics = analyticsuc.New(store, searchuc.Tiers(), cfg.Analytics.TopQueries, logger)
		logger.Info("Search analytics enabled", zap.Int("retention_days", cfg.Analytics.RetentionDays))
	}

	return a, nil
}

// connectRedis is best effort: analytics and the cache are optional, search is not.
func (a *app) connectRedis(ctx context.Context) {
	if !a.cfg.Redis.Enabled() {
		return
	}
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    a.cfg.Redis.Addrs,
		Password: a.cfg.Redis.Password,
	})
	if err != nil {
		a.logger.Warn("Redis unavailable, analytics and cache disabled", zap.Error(err))
		return
	}
	if err := store.WaitForReady(ctx, a.cfg.Database.ReadinessTimeoutDuration()); err != nil {
		store.Close()
		a.logger.Warn("Redis not ready, analytics and cache disabled", zap.Error(err))
		return
	}
	a.redis = store
	a.logger.Info("Connected to redis", zap.Strings("addrs", a.cfg.Redis.Addrs))
}

// buildAI assembles the provider and its decorator chain:
// Cached -> Instrumented -> Retrying -> RateLimited -> provider.
func (a *app) buildAI(ctx context.Context) error {
	ai := a.cfg.AI

	var (
		baseEmb domain.Embedder
		baseGen domain.Generator
		health  domain.HealthChecker
	)
	switch ai.Provider {
	case "openai":
		oc := &openaiT.Config{
			APIKey:          ai.APIKey,
			BaseURL:         ai.BaseURL,
			EmbeddingModel:  ai.EmbeddingModel,
			GenerationModel: ai.GenerationModel,
			Dimensions:      ai.Dimensions,
			Logger:          a.logger,
		}
		emb := openaiT.NewEmbedder(oc)
		baseEmb, baseGen, health = emb, openaiT.NewGenerator(oc), emb
	default:
		gc := &gemini.Config{
			APIKey:          ai.APIKey,
			BaseURL:         ai.BaseURL,
			EmbeddingModel:  ai.EmbeddingModel,
			GenerationModel: ai.GenerationModel,
			Dimensions:      ai.Dimensions,
			HTTPClient:      &http.Client{Timeout: ai.Timeout()},
			Logger:          a.logger,
		}
		emb, err := gemini.NewEmbedder(ctx, gc)
		if err != nil {
			return fmt.Errorf("create gemini embedder: %w", err)
		}
		gen, err := gemini.NewGenerator(ctx, gc)
		if err != nil {
			return fmt.Errorf("create gemini generator: %w", err)
		}
		baseEmb, baseGen, health = emb, gen, emb
	}
	if ai.APIKey == "" {
		a.logger.Warn("AI API key not configured, semantic and refined tiers are disabled",
			zap.String("provider", ai.Provider))
	}

	policy := embeddinguc.RetryPolicy{
		MaxAttempts: ai.Retry.MaxAttempts,
		BaseDelay:   time.Duration(ai.Retry.BaseDelayMs) * time.Millisecond,
		Multiplier:  ai.Retry.Multiplier,
		MaxDelay:    time.Duration(ai.Retry.MaxDelayMs) * time.Millisecond,
	}
	// One limiter for both operations: the provider quota is per key.
	limiter := embeddinguc.NewLimiter(ai.RateLimitRPS)

	a.docEmbedder = embeddinguc.ChainEmbedder(baseEmb, embeddinguc.ChainConfig{
		Provider: ai.Provider,
		Model:    ai.EmbeddingModel,
		Limiter:  limiter,
		Retry:    policy,
		Logger:   a.logger,
	})
	a.generator = embeddinguc.ChainGenerator(baseGen, embeddinguc.ChainConfig{
		Provider: ai.Provider,
		Model:    ai.GenerationModel,
		Limiter:  limiter,
		Retry:    policy,
		Logger:   a.logger,
	})
	a.embedHealth = health

	a.queryEmbedder = a.docEmbedder
	if a.cfg.Cache.Enabled && a.redis != nil {
		ttl := time.Duration(a.cfg.Cache.TTLSec) * time.Second
		a.queryEmbedder = embcache.New(a.docEmbedder, a.redis, ai.EmbeddingModel, ttl,
			metrics.EmbeddingCacheTotal, a.logger)
		a.logger.Info("Embedding cache enabled", zap.Duration("ttl", ttl))
	}

	a.logger.Info("AI provider configured",
		zap.String("provider", ai.Provider),
		zap.String("embedding_model", ai.EmbeddingModel),
		zap.String("generation_model", ai.GenerationModel),
		zap.Float64("rate_limit_rps", ai.RateLimitRPS),
	)
	return nil
}

func (a *app) searchService() *searchuc.Service {
	s := a.cfg.Search
	opts := []searchuc.Option{searchuc.WithTuning(tuningFromConfig(s.Semantic))}
	if a.analytics != nil {
		opts = append(opts, searchuc.WithRecorder(a.analytics))
	}
	return searchuc.New(a.docs, a.queryEmbedder, a.generator, searchuc.Config{
		MaxQueryLength:    s.MaxQueryLength,
		KeywordLimit:      s.KeywordLimit,
		SampleSize:        s.SampleSize,
		RefineSampleLimit: s.RefineSampleLimit,
		RefinedLimit:      s.RefinedLimit,
		Timeout:           s.Timeout(),
	}, opts...)
}

func (a *app) healthService() *healthuc.Service {
	// Pass nil interfaces, not typed nil pointers.
	var redis healthuc.Pinger
	if a.redis != nil {
		redis = a.redis
	}
	var emb healthuc.EmbeddingChecker
	if a.embedHealth != nil {
		emb = a.embedHealth
	}
	return healthuc.New(a.docs, emb, redis)
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongo.Close(ctx); err != nil {
			a.logger.Warn("Failed to close database connection", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// collectionNames maps configured store names onto known collections.
func collectionNames(raw map[string]string) (map[domdoc.Collection]string, error) {
	names := make(map[domdoc.Collection]string, len(raw))
	for k, v := range raw {
		c, err := domdoc.ParseCollection(k)
		if err != nil {
			return nil, fmt.Errorf("database.collections: %w", err)
		}
		names[c] = v
	}
	return names, nil
}

func tuningFromConfig(s config.SemanticConfig) searchuc.Tuning {
	fw := s.FieldWeights
	return searchuc.Tuning{
		CandidateLimit: s.CandidateLimit,
		Threshold:      *s.Threshold,
		SemanticWeight: *s.SemanticWeight,
		TextWeight:     *s.TextWeight,
		TopK:           s.TopK,
		Prefilter:      *s.Prefilter,
		Weights: searchuc.FieldWeights{
			Title:      *fw.Title,
			Content:    *fw.Content,
			Categories: *fw.Categories,
			Keywords:   *fw.Keywords,
			Summary:    *fw.Summary,
		},
	}
}
