package embedding

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for the embedding pipeline. The batch size is the provider's
// per-request ceiling.
const (
	DefaultBatchSize         = 100
	DefaultCacheSize         = 1000
	DefaultCacheTTL          = time.Hour
	DefaultMaxConcurrency    = 5
	DefaultRequestsPerSecond = 20
	DefaultHTTPTimeoutS      = 30
)

// EMBEDDING_ENDPOINT must point to the root of the OpenAI-compatible inference
// service (no /embeddings appended). The provider appends paths
// automatically, so callers only need to supply the base URL.

// Config holds the inference endpoint settings and the pipeline limits.
type Config struct {
	// Inference endpoint and auth
	Endpoint     string `yaml:"endpoint" mapstructure:"endpoint"`           // Base URL of the inference API
	ServiceToken string `yaml:"service_token" mapstructure:"service_token"` // Bearer token, optional for local servers
	HTTPTimeoutS int    `yaml:"http_timeout_seconds" mapstructure:"http_timeout_seconds"`

	// Model is used when a caller passes an empty model name
	Model string `yaml:"model" mapstructure:"model"`

	// Pipeline limits
	BatchSize         int           `yaml:"batch_size" mapstructure:"batch_size"`
	CacheSize         int           `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTL          time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	MaxConcurrency    int           `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// DefaultConfig returns a Config with every pipeline limit at its default
// and no endpoint.
func DefaultConfig() *Config {
	return &Config{
		HTTPTimeoutS:      DefaultHTTPTimeoutS,
		BatchSize:         DefaultBatchSize,
		CacheSize:         DefaultCacheSize,
		CacheTTL:          DefaultCacheTTL,
		MaxConcurrency:    DefaultMaxConcurrency,
		RequestsPerSecond: DefaultRequestsPerSecond,
	}
}

// NewConfig reads from environment variables, falling back to defaults.
//
//   - EMBEDDING_ENDPOINT, EMBEDDING_SERVICE_TOKEN, EMBEDDING_MODEL
//   - EMBEDDING_HTTP_TIMEOUT_SECONDS (default 30)
//   - EMBEDDING_BATCH_SIZE (100), EMBEDDING_CACHE_SIZE (1000),
//     EMBEDDING_CACHE_TTL (1h), EMBEDDING_MAX_CONCURRENCY (5),
//     EMBEDDING_REQUESTS_PER_SECOND (20)
func NewConfig() *Config {
	cfg := DefaultConfig()
	cfg.Endpoint = os.Getenv("EMBEDDING_ENDPOINT")
	cfg.ServiceToken = os.Getenv("EMBEDDING_SERVICE_TOKEN")
	cfg.Model = os.Getenv("EMBEDDING_MODEL")

	cfg.HTTPTimeoutS = envInt("EMBEDDING_HTTP_TIMEOUT_SECONDS", cfg.HTTPTimeoutS)
	cfg.BatchSize = envInt("EMBEDDING_BATCH_SIZE", cfg.BatchSize)
	cfg.CacheSize = envInt("EMBEDDING_CACHE_SIZE", cfg.CacheSize)
	cfg.MaxConcurrency = envInt("EMBEDDING_MAX_CONCURRENCY", cfg.MaxConcurrency)

	if v := os.Getenv("EMBEDDING_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CacheTTL = d
		}
	}
	if v := os.Getenv("EMBEDDING_REQUESTS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RequestsPerSecond = f
		}
	}

	return cfg
}

// Validate checks the pipeline limits.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("embedding: batch size must be positive, got %d", c.BatchSize)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("embedding: cache size must be positive, got %d", c.CacheSize)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("embedding: cache TTL must be positive, got %s", c.CacheTTL)
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("embedding: max concurrency must be positive, got %d", c.MaxConcurrency)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("embedding: requests per second must be positive, got %v", c.RequestsPerSecond)
	}
	return nil
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// Logger is an interface that matches the vecdocs/v1/logger.Logger
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
