package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/vecdocs/v1/embedding"
)

const testConfig = `
postgres:
  connection:
    host: db.internal
    port: "5433"
    user: vec
    password: secret
    db_name: vectors
embedding:
  endpoint: http://inference:8080
  model: all-minilm
  cache_ttl: 10m
collection:
  hnsw:
    m: 32
    ef_construction: 128
metrics:
  enabled: true
  address: ":9191"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vecdocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Postgres.Connection.Host)
	assert.Equal(t, "5433", cfg.Postgres.Connection.Port)
	assert.Equal(t, "disable", cfg.Postgres.Connection.SSLMode)
	assert.Equal(t, "http://inference:8080", cfg.Embedding.Endpoint)
	assert.Equal(t, 10*time.Minute, cfg.Embedding.CacheTTL)
	assert.Equal(t, embedding.DefaultBatchSize, cfg.Embedding.BatchSize)
	assert.Equal(t, float64(embedding.DefaultRequestsPerSecond), cfg.Embedding.RequestsPerSecond)
	assert.Equal(t, 32, cfg.Collection.HNSW.M)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9191", cfg.Metrics.Address)
	assert.Equal(t, "vecdocs", cfg.Metrics.ServiceName)
	assert.Equal(t, "warning", cfg.Logger.Level)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("VECDOCS_POSTGRES_CONNECTION_HOST", "from-env")
	t.Setenv("VECDOCS_EMBEDDING_MAX_CONCURRENCY", "2")
	t.Setenv("VECDOCS_LOGGER_LEVEL", "debug")

	cfg, err := loadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Postgres.Connection.Host)
	assert.Equal(t, 2, cfg.Embedding.MaxConcurrency)
	assert.Equal(t, "debug", cfg.Logger.Level)

	cfg, err = loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Postgres.Connection.Host)
	assert.Equal(t, "", cfg.Embedding.Endpoint)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loadConfig(writeConfig(t, "collection:\n  hnsw:\n    m: 1\n"))
	assert.ErrorContains(t, err, "hnsw.m")

	_, err = loadConfig(writeConfig(t, "logger:\n  level: loud\n"))
	assert.ErrorContains(t, err, "unknown level")
}
