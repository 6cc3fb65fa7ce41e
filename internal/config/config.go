package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the govdocs configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	AI        AIConfig        `yaml:"ai"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds MongoDB connection settings.
type DatabaseConfig struct {
	URI              string            `yaml:"uri"`
	Name             string            `yaml:"name"`
	ReadinessTimeout int               `yaml:"readiness_timeout_sec"`
	Collections      map[string]string `yaml:"collections"` // EmploymentNotice -> store collection name
}

// RedisConfig holds the optional Redis connection used by analytics and the embedding cache.
type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
}

// Enabled reports whether a Redis endpoint is configured.
func (r RedisConfig) Enabled() bool { return len(r.Addrs) > 0 }

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"`
}

// AnalyticsConfig holds search analytics settings.
type AnalyticsConfig struct {
	Enabled       bool     `yaml:"enabled"`
	TopQueries    int      `yaml:"top_queries"`
	RetentionDays int      `yaml:"retention_days"`
	APIKeys       []string `yaml:"api_keys"` // bearer tokens for /api/analytics, empty = open
}

// AIConfig holds embedding and generation provider settings.
type AIConfig struct {
	Provider        string      `yaml:"provider"` // gemini, openai (default: gemini)
	APIKey          string      `yaml:"api_key"`
	BaseURL         string      `yaml:"base_url"`
	EmbeddingModel  string      `yaml:"embedding_model"`
	GenerationModel string      `yaml:"generation_model"`
	Dimensions      int         `yaml:"dimensions"` // 0 = accept any size
	RateLimitRPS    float64     `yaml:"rate_limit_rps"`
	TimeoutSec      int         `yaml:"timeout_sec"`
	Retry           RetryConfig `yaml:"retry"`
}

// RetryConfig holds the backoff policy for transient AI failures.
type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts"`
	BaseDelayMs int     `yaml:"base_delay_ms"`
	Multiplier  float64 `yaml:"multiplier"`
	MaxDelayMs  int     `yaml:"max_delay_ms"`
}

// SearchConfig holds cascade tuning.
type SearchConfig struct {
	MaxQueryLength    int            `yaml:"max_query_length"`
	KeywordLimit      int            `yaml:"keyword_limit"`
	SampleSize        int            `yaml:"sample_size"`
	RefineSampleLimit int            `yaml:"refine_sample_limit"`
	RefinedLimit      int            `yaml:"refined_limit"`
	TimeoutSec        int            `yaml:"timeout_sec"`
	Semantic          SemanticConfig `yaml:"semantic"`
}

// SemanticConfig holds the semantic ranker constants.
type SemanticConfig struct {
	CandidateLimit int          `yaml:"candidate_limit"`
	Threshold      *float64     `yaml:"threshold"`
	SemanticWeight *float64     `yaml:"semantic_weight"`
	TextWeight     *float64     `yaml:"text_weight"`
	TopK           int          `yaml:"top_k"`
	Prefilter      *bool        `yaml:"prefilter"`
	FieldWeights   FieldWeights `yaml:"field_weights"`
}

// FieldWeights are the lexical boosts per document field.
type FieldWeights struct {
	Title      *float64 `yaml:"title"`
	Content    *float64 `yaml:"content"`
	Categories *float64 `yaml:"categories"`
	Keywords   *float64 `yaml:"keywords"`
	Summary    *float64 `yaml:"summary"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML with env expansion, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

func floatPtr(v float64) *float64 { return &v }

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Worst case a request waits on three tiers plus embedding retries.
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 7 * 24 * 3600
	}
	if c.Analytics.TopQueries <= 0 {
		c.Analytics.TopQueries = 10
	}
	if c.Analytics.RetentionDays <= 0 {
		c.Analytics.RetentionDays = 30
	}

	c.applyAIDefaults()
	c.applySearchDefaults()
}

func (c *Config) applyAIDefaults() {
	ai := &c.AI
	if ai.Provider == "" {
		ai.Provider = "gemini"
	}
	if ai.EmbeddingModel == "" {
		ai.EmbeddingModel = "gemini-embedding-001"
	}
	if ai.GenerationModel == "" {
		ai.GenerationModel = "gemini-2.5-flash"
	}
	if ai.TimeoutSec <= 0 {
		ai.TimeoutSec = 15
	}
	if ai.Retry.MaxAttempts <= 0 {
		ai.Retry.MaxAttempts = 3
	}
	if ai.Retry.BaseDelayMs <= 0 {
		ai.Retry.BaseDelayMs = 1000
	}
	if ai.Retry.Multiplier <= 0 {
		ai.Retry.Multiplier = 2
	}
	if ai.Retry.MaxDelayMs <= 0 {
		ai.Retry.MaxDelayMs = 4000
	}
}

func (c *Config) applySearchDefaults() {
	s := &c.Search
	if s.MaxQueryLength <= 0 {
		s.MaxQueryLength = 500
	}
	if s.KeywordLimit <= 0 {
		s.KeywordLimit = 50
	}
	if s.SampleSize <= 0 {
		s.SampleSize = 5
	}
	if s.RefineSampleLimit <= 0 {
		s.RefineSampleLimit = 10
	}
	if s.RefinedLimit <= 0 {
		s.RefinedLimit = 20
	}

	sem := &s.Semantic
	if sem.CandidateLimit <= 0 {
		sem.CandidateLimit = 100
	}
	if sem.TopK <= 0 {
		sem.TopK = 10
	}
	if sem.Threshold == nil {
		sem.Threshold = floatPtr(0.7)
	}
	if sem.SemanticWeight == nil {
		sem.SemanticWeight = floatPtr(0.7)
	}
	if sem.TextWeight == nil {
		sem.TextWeight = floatPtr(0.3)
	}
	if sem.Prefilter == nil {
		on := true
		sem.Prefilter = &on
	}

	fw := &sem.FieldWeights
	if fw.Title == nil {
		fw.Title = floatPtr(2)
	}
	if fw.Content == nil {
		fw.Content = floatPtr(1)
	}
	if fw.Categories == nil {
		fw.Categories = floatPtr(1.5)
	}
	if fw.Keywords == nil {
		fw.Keywords = floatPtr(1.5)
	}
	if fw.Summary == nil {
		fw.Summary = floatPtr(1.8)
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.URI == "" {
		return fmt.Errorf("database.uri is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	switch c.AI.Provider {
	case "gemini", "openai":
		// ok
	default:
		return fmt.Errorf("ai.provider must be \"gemini\" or \"openai\", got %q", c.AI.Provider)
	}
	if c.AI.RateLimitRPS < 0 {
		return fmt.Errorf("ai.rate_limit_rps must be >= 0, got %v", c.AI.RateLimitRPS)
	}
	if c.Cache.Enabled && !c.Redis.Enabled() {
		return fmt.Errorf("cache.enabled requires redis.addrs")
	}
	if c.Analytics.Enabled && !c.Redis.Enabled() {
		return fmt.Errorf("analytics.enabled requires redis.addrs")
	}
	return c.Search.Semantic.validate()
}

func (s *SemanticConfig) validate() error {
	checks := []struct {
		name string
		v    *float64
	}{
		{"threshold", s.Threshold},
		{"semantic_weight", s.SemanticWeight},
		{"text_weight", s.TextWeight},
		{"field_weights.title", s.FieldWeights.Title},
		{"field_weights.content", s.FieldWeights.Content},
		{"field_weights.categories", s.FieldWeights.Categories},
		{"field_weights.keywords", s.FieldWeights.Keywords},
		{"field_weights.summary", s.FieldWeights.Summary},
	}
	for _, ch := range checks {
		if ch.v != nil && *ch.v < 0 {
			return fmt.Errorf("search.semantic.%s must be >= 0, got %v", ch.name, *ch.v)
		}
	}
	return nil
}

// ReadinessTimeoutDuration returns the database readiness wait.
func (d DatabaseConfig) ReadinessTimeoutDuration() time.Duration {
	return time.Duration(d.ReadinessTimeout) * time.Second
}

// Timeout returns the per-search deadline, zero when unset.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

// Timeout returns the per-call AI timeout.
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests and `go run` from subdirectories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
