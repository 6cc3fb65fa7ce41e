package govdocs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	mongoURI        string
	database        string
	collectionNames map[Collection]string

	provider        string // "gemini" or "openai"
	apiKey          string
	baseURL         string
	embeddingModel  string
	generationModel string
	dimensions      int
	rateLimitRPS    float64
	retryAttempts   int
	retryBaseDelay  time.Duration

	embedder  Embedder
	generator Generator

	threshold *float64
	topK      int
	timeout   time.Duration

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithMongo sets the document store connection. Required.
func WithMongo(uri, database string) Option {
	return optionFunc(func(c *clientConfig) {
		c.mongoURI = uri
		c.database = database
	})
}

// WithCollectionName overrides the stored collection name for one collection.
// Defaults follow the lowercase plural convention (Tender -> "tenders").
func WithCollectionName(coll Collection, name string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.collectionNames == nil {
			c.collectionNames = make(map[Collection]string)
		}
		c.collectionNames[coll] = name
	})
}

// WithGemini uses the Gemini API for embeddings and refinement.
// An empty key disables the semantic and refined tiers.
func WithGemini(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = "gemini"
		c.apiKey = apiKey
	})
}

// WithOpenAI uses an OpenAI-compatible API. baseURL may be empty.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = "openai"
		c.apiKey = apiKey
		c.baseURL = baseURL
	})
}

// WithModels overrides the provider's embedding and generation models.
func WithModels(embedding, generation string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = embedding
		c.generationModel = generation
	})
}

// WithDimensions makes the embedder reject vectors of any other size.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithEmbedder replaces the built-in embedding provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator replaces the built-in generation provider.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithRateLimit caps AI calls per second. 0 disables the limit (default).
func WithRateLimit(rps float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.rateLimitRPS = rps
	})
}

// WithRetry sets the attempts and base backoff for transient AI failures.
// Default: 3 attempts from 1s.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.retryAttempts = attempts
		c.retryBaseDelay = baseDelay
	})
}

// WithSemanticThreshold sets the minimum blended score for semantic hits.
// Default: 0.7.
func WithSemanticThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = &t
	})
}

// WithTopK caps the number of semantic hits. Default: 10.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithTimeout bounds one search across all tiers. 0 = no deadline (default).
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
