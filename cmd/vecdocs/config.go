package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Aleph-Alpha/vecdocs/v1/collection"
	"github.com/Aleph-Alpha/vecdocs/v1/embedding"
	"github.com/Aleph-Alpha/vecdocs/v1/logger"
	"github.com/Aleph-Alpha/vecdocs/v1/metrics"
	"github.com/Aleph-Alpha/vecdocs/v1/postgres"
	"github.com/Aleph-Alpha/vecdocs/v1/tracer"
)

// envPrefix namespaces environment overrides, e.g. VECDOCS_POSTGRES_CONNECTION_HOST.
const envPrefix = "VECDOCS"

// Config holds all CLI configuration.
type Config struct {
	Postgres   postgres.Config   `mapstructure:"postgres"`
	Embedding  embedding.Config  `mapstructure:"embedding"`
	Collection collection.Config `mapstructure:"collection"`
	Logger     logger.Config     `mapstructure:"logger"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Tracer     tracer.Config     `mapstructure:"tracer"`
}

// MetricsConfig adds an on/off switch to the metrics server settings.
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	metrics.Config `mapstructure:",squash"`
}

// defaults registers every key so that environment variables can override
// keys absent from the config file.
var defaults = map[string]any{
	"postgres.connection.host":                      "localhost",
	"postgres.connection.port":                      "5432",
	"postgres.connection.user":                      "postgres",
	"postgres.connection.password":                  "",
	"postgres.connection.db_name":                   "postgres",
	"postgres.connection.ssl_mode":                  "disable",
	"postgres.connection_details.max_open_conns":    postgres.DefaultMaxOpenConns,
	"postgres.connection_details.max_idle_conns":    postgres.DefaultMaxIdleConns,
	"postgres.connection_details.conn_max_lifetime": postgres.DefaultConnMaxLifetime,

	"embedding.endpoint":             "",
	"embedding.service_token":        "",
	"embedding.model":                "",
	"embedding.http_timeout_seconds": embedding.DefaultHTTPTimeoutS,
	"embedding.batch_size":           embedding.DefaultBatchSize,
	"embedding.cache_size":           embedding.DefaultCacheSize,
	"embedding.cache_ttl":            embedding.DefaultCacheTTL,
	"embedding.max_concurrency":      embedding.DefaultMaxConcurrency,
	"embedding.requests_per_second":  embedding.DefaultRequestsPerSecond,

	"collection.hnsw.m":               collection.DefaultHNSWM,
	"collection.hnsw.ef_construction": collection.DefaultHNSWEfConstruction,
	"collection.skip_index":           false,

	"logger.level":          logger.Warning,
	"logger.service_name":   "vecdocs",
	"logger.enable_tracing": false,

	"metrics.enabled":                   false,
	"metrics.address":                   metrics.DefaultMetricsAddress,
	"metrics.enable_default_collectors": true,
	"metrics.namespace":                 metrics.DefaultNamespace,
	"metrics.service_name":              "vecdocs",

	"tracer.service_name":  "vecdocs",
	"tracer.app_env":       "",
	"tracer.enable_export": false,
	"tracer.endpoint":      "",
	"tracer.insecure":      false,
}

// loadConfig reads path (optional) and applies VECDOCS_* overrides.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs every section's own validation.
func (c *Config) Validate() error {
	return errors.Join(
		c.Postgres.Validate(),
		c.Embedding.Validate(),
		c.Collection.Validate(),
		c.Logger.Validate(),
		c.Metrics.Validate(),
		c.Tracer.Validate(),
	)
}
