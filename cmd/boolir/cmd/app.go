package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/analytics/collector"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ui"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/redis"
)

const (
	checkTimeout    = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

// app holds everything one command invocation needs. Optional services
// (Redis, Kafka, Postgres) are connected on demand and degrade to disabled
// when they cannot be reached.
type app struct {
	cfg        *config.Config
	metrics    *metrics.Metrics
	out        *ui.Printer
	aggregator *analytics.Aggregator
	collector  *analytics.Collector
	checker    *health.Checker
	sessionID  string
	logger     *slog.Logger

	pre   *tokenizer.Preprocessor
	store indexer.Store

	connected bool
	redis     *pkgredis.Client
	redisErr  error
	producer  *kafka.Producer
	kafkaErr  error
	pg        *postgres.Client
	pgErr     error
	snapshots *aggregator.Store

	stopMetrics func(context.Context) error
}

// init prepares a for cfg. Health checks read a's fields when they run,
// so a must not be copied afterwards.
func (a *app) init(cfg *config.Config, out *ui.Printer) error {
	pre, err := tokenizer.New(cfg.Preprocess.Stemmer)
	if err != nil {
		return err
	}
	*a = app{
		cfg:        cfg,
		metrics:    metrics.New(),
		out:        out,
		aggregator: analytics.NewAggregator(),
		checker:    health.NewChecker(),
		sessionID:  uuid.NewString(),
		pre:        pre,
		logger:     logger.WithComponent("cli"),
	}
	a.collector = analytics.NewCollector(a.aggregator)
	a.registerChecks()
	return nil
}

// serveMetrics starts the scrape server when a port is configured.
func (a *app) serveMetrics() error {
	if a.cfg.Metrics.Port <= 0 {
		return nil
	}
	extra := map[string]http.Handler{
		"/health/ready":    a.checker.ReadyHandler(),
		"/analytics/stats": analytics.NewHandler(a.aggregator),
	}
	for route, h := range extra {
		extra[route] = middleware.Chain(h, middleware.Metrics(a.metrics, route), middleware.Deadline(checkTimeout+time.Second))
	}
	stop, err := metrics.StartServer(a.cfg.Metrics.Port, a.metrics, extra)
	if err != nil {
		return err
	}
	a.stopMetrics = stop
	return nil
}

// connect dials the optional services named in the configuration.
func (a *app) connect(ctx context.Context) {
	if a.connected {
		return
	}
	a.connected = true

	if a.cfg.Redis.Addr != "" && a.cfg.Cache.Enabled {
		a.redis, a.redisErr = pkgredis.NewClient(ctx, a.cfg.Redis)
		if a.redisErr != nil {
			a.logger.Warn("redis unavailable, remote cache disabled", "error", a.redisErr)
		} else {
			a.logger.Info("remote cache enabled", "addr", a.cfg.Redis.Addr, "ttl", a.cfg.Redis.CacheTTL)
		}
	}

	var exporters []analytics.Tracker
	if len(a.cfg.Kafka.Brokers) > 0 {
		a.producer, a.kafkaErr = kafka.NewProducer(a.cfg.Kafka)
		if a.kafkaErr != nil {
			a.logger.Warn("kafka misconfigured, analytics export disabled", "error", a.kafkaErr)
		} else {
			exporters = append(exporters, collector.NewBatchCollector(a.producer, a.cfg.Kafka.BatchSize, a.metrics))
			a.logger.Info("analytics export enabled", "topic", a.cfg.Kafka.Topic)
		}
	}
	a.collector = analytics.NewCollector(a.aggregator, exporters...)

	if a.cfg.Postgres.Host != "" {
		a.pg, a.pgErr = postgres.New(ctx, a.cfg.Postgres)
		if a.pgErr == nil {
			a.snapshots = aggregator.NewStore(a.pg)
			a.pgErr = a.snapshots.EnsureSchema(ctx)
		}
		if a.pgErr != nil {
			a.logger.Warn("postgres unavailable, analytics snapshots disabled", "error", a.pgErr)
			a.snapshots = nil
		}
	}
}

// openStore opens the built index once per invocation.
func (a *app) openStore() (indexer.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := indexer.Open(a.cfg.Indexer)
	if err != nil {
		return nil, err
	}
	a.store = store
	if stats, err := store.Stats(context.Background()); err == nil {
		a.metrics.IndexDocuments.Set(float64(stats.Documents))
		a.metrics.IndexTerms.Set(float64(stats.UniqueTerms))
	}
	return store, nil
}

// searcher opens the index and wires the cache and analytics around it.
func (a *app) searcher(ctx context.Context) (*searcher.Service, error) {
	a.connect(ctx)
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	opts := []searcher.Option{
		searcher.WithMetrics(a.metrics),
		searcher.WithTracker(a.collector),
		searcher.WithMaxResults(a.cfg.Search.MaxResults),
	}
	if a.cfg.Cache.Enabled {
		cacheOpts := cache.Options{
			LocalSize: a.cfg.Cache.LocalSize,
			TTL:       a.cfg.Redis.CacheTTL,
			Metrics:   a.metrics,
		}
		if a.redis != nil {
			cacheOpts.Remote = a.redis
		}
		qc, err := cache.New(cacheOpts)
		if err != nil {
			return nil, fmt.Errorf("creating query cache: %w", err)
		}
		opts = append(opts, searcher.WithCache(qc))
	}
	pre, err := a.queryPreprocessor(ctx, store)
	if err != nil {
		return nil, err
	}
	return searcher.New(store, pre, opts...), nil
}

// queryPreprocessor returns a preprocessor using the stemmer the index was
// built with, so query words normalise to the indexed terms. Indexes that
// predate the manifest field use the configured one.
func (a *app) queryPreprocessor(ctx context.Context, store indexer.Store) (*tokenizer.Preprocessor, error) {
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index stats: %w", err)
	}
	if stats.Stemmer == "" || stats.Stemmer == a.pre.StemmerName() {
		return a.pre, nil
	}
	pre, err := tokenizer.New(stats.Stemmer)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrIndexCorrupt, apperrors.ExitIndex,
			"index was built with stemmer %q: %v", stats.Stemmer, err)
	}
	a.logger.Warn("index was built with a different stemmer, normalising queries with it",
		"configured", a.pre.StemmerName(),
		"index", stats.Stemmer,
	)
	a.pre = pre
	return pre, nil
}

func (a *app) registerChecks() {
	a.checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if a.store != nil {
			stats, err := a.store.Stats(ctx)
			if err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp, Message: describeIndex(stats.Backend, stats.Documents, stats.UniqueTerms)}
		}
		m, err := indexer.ReadManifest(a.cfg.Indexer.DataDir)
		if err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: describeIndex(m.Backend, m.Documents, m.UniqueTerms)}
	})
	a.checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		switch {
		case a.cfg.Redis.Addr == "" || !a.cfg.Cache.Enabled:
			return health.Disabled("remote cache not configured")(ctx)
		case a.redis == nil:
			return unreachable(a.redisErr)
		}
		return health.PingCheck("redis", checkTimeout, true, a.redis.Ping)(ctx)
	})
	a.checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		switch {
		case len(a.cfg.Kafka.Brokers) == 0:
			return health.Disabled("analytics export not configured")(ctx)
		case a.producer == nil:
			return unreachable(a.kafkaErr)
		}
		return health.PingCheck("kafka", checkTimeout, true, a.producer.Ping)(ctx)
	})
	a.checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		switch {
		case a.cfg.Postgres.Host == "":
			return health.Disabled("analytics snapshots not configured")(ctx)
		case a.pg == nil:
			return unreachable(a.pgErr)
		}
		return health.PingCheck("postgres", checkTimeout, true, a.pg.Ping)(ctx)
	})
}

func unreachable(err error) health.ComponentHealth {
	msg := "not connected"
	if err != nil {
		msg = err.Error()
	}
	return health.ComponentHealth{Status: health.StatusDegraded, Message: msg}
}

func describeIndex(backend string, docs, terms int) string {
	return fmt.Sprintf("%s index, %d documents, %d terms", backend, docs, terms)
}

// close flushes analytics, persists the session snapshot and releases
// every connection. It is safe to call more than once.
func (a *app) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	a.collector.Close(ctx)
	if a.snapshots != nil {
		stats := a.aggregator.Stats()
		if stats.TotalSearches > 0 || stats.IndexBuilds > 0 || stats.SyntaxErrors > 0 {
			id, err := a.snapshots.SaveSnapshot(ctx, a.sessionID, stats)
			if err != nil {
				a.logger.Warn("saving analytics snapshot failed", "error", err)
			} else {
				a.logger.Info("analytics snapshot saved", "snapshot_id", id, "session_id", a.sessionID)
			}
		}
		a.snapshots = nil
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("closing kafka producer", "error", err)
		}
		a.producer = nil
	}
	if a.redis != nil {
		a.redis.Close()
		a.redis = nil
	}
	if a.pg != nil {
		a.pg.Close()
		a.pg = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing index", "error", err)
		}
		a.store = nil
	}
	if a.stopMetrics != nil {
		if err := a.stopMetrics(ctx); err != nil {
			a.logger.Warn("metrics server shutdown", "error", err)
		}
		a.stopMetrics = nil
	}
}
