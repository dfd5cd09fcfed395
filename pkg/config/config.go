// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Corpus, Preprocess, Indexer, Search, Cache, Redis, Kafka,
// Postgres, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported index backends.
const (
	BackendBleve   = "bleve"
	BackendSegment = "segment"
)

// Supported stemmers.
const (
	StemmerPorter   = "porter"
	StemmerSnowball = "snowball"
	StemmerNone     = "none"
)

// Config is the top-level application configuration.
type Config struct {
	Corpus     CorpusConfig     `yaml:"corpus"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Indexer    IndexerConfig    `yaml:"indexer"`
	Search     SearchConfig     `yaml:"search"`
	Cache      CacheConfig      `yaml:"cache"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// CorpusConfig locates the raw corpus and the processed JSON-lines file.
// An empty RawPath selects the embedded sample corpus.
type CorpusConfig struct {
	RawPath   string `yaml:"rawPath"`
	JSONLPath string `yaml:"jsonlPath"`
}

// PreprocessConfig selects the stemming algorithm.
type PreprocessConfig struct {
	Stemmer string `yaml:"stemmer"`
}

// IndexerConfig controls where and how the index is built.
type IndexerConfig struct {
	DataDir   string `yaml:"dataDir"`
	Backend   string `yaml:"backend"`
	Overwrite bool   `yaml:"overwrite"`
}

// SearchConfig controls query execution limits.
type SearchConfig struct {
	MaxResults int `yaml:"maxResults"`
}

// CacheConfig controls the in-process query result cache.
type CacheConfig struct {
	Enabled   bool `yaml:"enabled"`
	LocalSize int  `yaml:"localSize"`
}

// RedisConfig holds Redis connection and caching parameters. An empty Addr
// disables the remote cache tier.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings. No brokers disables
// analytics export.
type KafkaConfig struct {
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	BatchSize int      `yaml:"batchSize"`
}

// PostgresConfig holds PostgreSQL connection parameters. An empty Host
// disables analytics snapshots.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server. Port 0 keeps the
// collectors in-process without serving them.
type MetricsConfig struct {
	Port int `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config suitable for running against the sample corpus
// with every external service disabled.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			JSONLPath: "data/documents.jsonl",
		},
		Preprocess: PreprocessConfig{
			Stemmer: StemmerPorter,
		},
		Indexer: IndexerConfig{
			DataDir:   "index",
			Backend:   BackendBleve,
			Overwrite: true,
		},
		Search: SearchConfig{
			MaxResults: 100,
		},
		Cache: CacheConfig{
			Enabled:   true,
			LocalSize: 256,
		},
		Redis: RedisConfig{
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Kafka: KafkaConfig{
			Topic:     "boolir-analytics",
			BatchSize: 50,
		},
		Postgres: PostgresConfig{
			Port:            5432,
			Database:        "boolir",
			User:            "boolir",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    1,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Validate rejects settings the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.Indexer.Backend {
	case BackendBleve, BackendSegment:
	default:
		return fmt.Errorf("unknown index backend %q (want %s or %s)", c.Indexer.Backend, BackendBleve, BackendSegment)
	}
	switch c.Preprocess.Stemmer {
	case StemmerPorter, StemmerSnowball, StemmerNone:
	default:
		return fmt.Errorf("unknown stemmer %q (want %s, %s or %s)", c.Preprocess.Stemmer, StemmerPorter, StemmerSnowball, StemmerNone)
	}
	if c.Indexer.DataDir == "" {
		return fmt.Errorf("indexer.dataDir must not be empty")
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.maxResults must not be negative")
	}
	return nil
}

// applyEnvOverrides reads BOOLIR_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOOLIR_CORPUS_RAW_PATH"); v != "" {
		cfg.Corpus.RawPath = v
	}
	if v := os.Getenv("BOOLIR_CORPUS_JSONL_PATH"); v != "" {
		cfg.Corpus.JSONLPath = v
	}
	if v := os.Getenv("BOOLIR_STEMMER"); v != "" {
		cfg.Preprocess.Stemmer = v
	}
	if v := os.Getenv("BOOLIR_INDEX_DIR"); v != "" {
		cfg.Indexer.DataDir = v
	}
	if v := os.Getenv("BOOLIR_INDEX_BACKEND"); v != "" {
		cfg.Indexer.Backend = v
	}
	if v := os.Getenv("BOOLIR_SEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxResults = n
		}
	}
	if v := os.Getenv("BOOLIR_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("BOOLIR_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("BOOLIR_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("BOOLIR_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("BOOLIR_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("BOOLIR_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("BOOLIR_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("BOOLIR_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("BOOLIR_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("BOOLIR_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("BOOLIR_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BOOLIR_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("BOOLIR_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
