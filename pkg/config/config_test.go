package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendBleve, cfg.Indexer.Backend)
	assert.Equal(t, StemmerPorter, cfg.Preprocess.Stemmer)
	assert.Equal(t, 100, cfg.Search.MaxResults)
	assert.True(t, cfg.Indexer.Overwrite)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boolir.yaml")
	yml := `
indexer:
  dataDir: /tmp/boolir-index
  backend: segment
preprocess:
  stemmer: snowball
redis:
  addr: localhost:6379
  cacheTTL: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/boolir-index", cfg.Indexer.DataDir)
	assert.Equal(t, BackendSegment, cfg.Indexer.Backend)
	assert.Equal(t, StemmerSnowball, cfg.Preprocess.Stemmer)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	// untouched sections keep their defaults
	assert.Equal(t, 100, cfg.Search.MaxResults)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("BOOLIR_INDEX_BACKEND", "segment")
	t.Setenv("BOOLIR_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("BOOLIR_SEARCH_MAX_RESULTS", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendSegment, cfg.Indexer.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 7, cfg.Search.MaxResults)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad backend", func(c *Config) { c.Indexer.Backend = "lucene" }, "unknown index backend"},
		{"bad stemmer", func(c *Config) { c.Preprocess.Stemmer = "lancaster" }, "unknown stemmer"},
		{"empty data dir", func(c *Config) { c.Indexer.DataDir = "" }, "dataDir"},
		{"negative limit", func(c *Config) { c.Search.MaxResults = -1 }, "maxResults"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=disable", p.DSN())
}
