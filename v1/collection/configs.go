package collection

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
)

// Default index settings. They match the pgvector defaults.
const (
	DefaultHNSWM              = 16
	DefaultHNSWEfConstruction = 64

	// MaxIndexedDimension is the largest dimension pgvector can build an HNSW
	// index for. Larger collections are searched by sequential scan.
	MaxIndexedDimension = 2000
)

// Config controls how collection tables are created.
type Config struct {
	// HNSW holds the index build parameters
	HNSW HNSWConfig `yaml:"hnsw" mapstructure:"hnsw"`

	// SkipIndex disables HNSW index creation, e.g. for bulk loads
	SkipIndex bool `yaml:"skip_index" mapstructure:"skip_index"`
}

// HNSWConfig are the pgvector HNSW build parameters.
type HNSWConfig struct {
	M              int `yaml:"m" mapstructure:"m"`
	EfConstruction int `yaml:"ef_construction" mapstructure:"ef_construction"`
}

// DefaultConfig returns the pgvector defaults.
func DefaultConfig() Config {
	return Config{
		HNSW: HNSWConfig{
			M:              DefaultHNSWM,
			EfConstruction: DefaultHNSWEfConstruction,
		},
	}
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.HNSW.M == 0 {
		c.HNSW.M = DefaultHNSWM
	}
	if c.HNSW.EfConstruction == 0 {
		c.HNSW.EfConstruction = DefaultHNSWEfConstruction
	}
	return c
}

// Validate checks the index parameters against pgvector's accepted ranges.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.HNSW.M < 2 || c.HNSW.M > 100 {
		return fmt.Errorf("collection: hnsw.m must be between 2 and 100, got %d", c.HNSW.M)
	}
	if c.HNSW.EfConstruction < 2*c.HNSW.M || c.HNSW.EfConstruction > 1000 {
		return fmt.Errorf("collection: hnsw.ef_construction must be between 2*m and 1000, got %d", c.HNSW.EfConstruction)
	}
	return nil
}

// Embedder turns texts into vectors. *embedding.Pipeline implements it.
type Embedder interface {
	Embed(ctx context.Context, texts []string, model string) ([][]float32, error)
}

// Tracer starts spans for collection operations. *tracer.Tracer implements it.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, trace.Span)
	RecordErrorOnSpan(span trace.Span, err error)
}

// Logger defines the interface for logging operations within the collection package.
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
