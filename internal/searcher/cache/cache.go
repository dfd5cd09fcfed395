// Package cache memoises query results. An in-process LRU answers repeats
// within a session; an optional Redis tier shares results across runs.
// Entries are keyed by canonical expression and index generation, so a
// rebuilt index never serves stale answers.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/resilience"
)

const (
	keyPrefix        = "boolir:query:"
	defaultLocalSize = 256
	defaultTTL       = 10 * time.Minute
	remoteTimeout    = 250 * time.Millisecond
)

// Remote is the shared cache tier. *redis.Client satisfies it.
type Remote interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Options configures a QueryCache. A nil Remote keeps the cache local.
type Options struct {
	LocalSize int
	TTL       time.Duration
	Remote    Remote
	Metrics   *metrics.Metrics
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Hits         int64  `json:"hits"`
	Misses       int64  `json:"misses"`
	LocalEntries int    `json:"local_entries"`
	Remote       bool   `json:"remote"`
	RemoteState  string `json:"remote_state,omitempty"`
}

type QueryCache struct {
	local   *lru.Cache[string, *executor.Result]
	remote  Remote
	breaker *resilience.Breaker
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(opts Options) (*QueryCache, error) {
	if opts.LocalSize <= 0 {
		opts.LocalSize = defaultLocalSize
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	local, err := lru.New[string, *executor.Result](opts.LocalSize)
	if err != nil {
		return nil, fmt.Errorf("creating local cache: %w", err)
	}
	c := &QueryCache{
		local:   local,
		remote:  opts.Remote,
		ttl:     opts.TTL,
		metrics: opts.Metrics,
		logger:  slog.Default().With("component", "query-cache"),
	}
	if opts.Remote != nil {
		c.breaker = resilience.NewBreaker("redis-cache", resilience.BreakerConfig{
			Threshold: 3,
			Cooldown:  30 * time.Second,
			Timeout:   remoteTimeout,
			OnStateChange: func(name string, _, to resilience.State) {
				if c.metrics != nil {
					c.metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				}
			},
		})
	}
	return c, nil
}

// Key derives the cache key of a query. limit is part of the key because
// cached id lists are already truncated.
func Key(canonical, generation string, limit int) string {
	h := sha256.New()
	h.Write([]byte(canonical))
	h.Write([]byte{0})
	h.Write([]byte(generation))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(limit)))
	return keyPrefix + hex.EncodeToString(h.Sum(nil)[:16])
}

// Get looks the query up in the local tier, then the remote one. Remote
// hits are copied into the local tier. Failures count as misses.
func (c *QueryCache) Get(ctx context.Context, canonical, generation string, limit int) (*executor.Result, bool) {
	key := Key(canonical, generation, limit)
	if result, ok := c.local.Get(key); ok {
		c.hit("local")
		return cachedCopy(result), true
	}
	if result, ok := c.getRemote(ctx, key); ok {
		c.local.Add(key, result)
		c.hit("redis")
		return cachedCopy(result), true
	}
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
	return nil, false
}

func (c *QueryCache) getRemote(ctx context.Context, key string) (*executor.Result, bool) {
	if c.remote == nil {
		return nil, false
	}
	var data []byte
	var found bool
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		data, found, err = c.remote.Get(ctx, key)
		return err
	})
	if err != nil {
		c.remoteError("get", key, err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var result executor.Result
	if err := json.Unmarshal(data, &result); err != nil {
		c.remoteError("decode", key, err)
		return nil, false
	}
	return &result, true
}

// Set stores result in both tiers. Remote failures are logged and counted.
func (c *QueryCache) Set(ctx context.Context, canonical, generation string, limit int, result *executor.Result) {
	key := Key(canonical, generation, limit)
	c.local.Add(key, clone(result))
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.remoteError("encode", key, err)
		return
	}
	err = c.breaker.Do(ctx, func(ctx context.Context) error {
		return c.remote.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.remoteError("set", key, err)
	}
}

// GetOrCompute returns the cached result for the query or computes it with
// computeFn. Concurrent misses for one key share a single computation.
// The boolean reports whether the result came from the cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	canonical, generation string,
	limit int,
	computeFn func() (*executor.Result, error),
) (*executor.Result, bool, error) {
	if result, ok := c.Get(ctx, canonical, generation, limit); ok {
		return result, true, nil
	}
	key := Key(canonical, generation, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.local.Peek(key); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		result.Generation = generation
		c.Set(ctx, canonical, generation, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return clone(val.(*executor.Result)), false, nil
}

// Invalidate empties the local tier and deletes every query key from the
// remote one.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	c.local.Purge()
	if c.remote == nil {
		return nil
	}
	var deleted int64
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = c.remote.FlushByPattern(ctx, keyPrefix+"*")
		return err
	})
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() Stats {
	s := Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		LocalEntries: c.local.Len(),
		Remote:       c.remote != nil,
	}
	if c.breaker != nil {
		s.RemoteState = c.breaker.State().String()
	}
	return s
}

func (c *QueryCache) hit(tier string) {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	}
}

func (c *QueryCache) remoteError(op, key string, err error) {
	c.logger.Warn("remote cache operation failed", "op", op, "key", key, "error", err)
	if c.metrics != nil {
		c.metrics.CacheErrorsTotal.WithLabelValues(op).Inc()
	}
}

// clone copies r deeply enough that callers may modify the result without
// touching a cached entry.
func clone(r *executor.Result) *executor.Result {
	cp := *r
	cp.DocIDs = slices.Clone(r.DocIDs)
	cp.TermStats = maps.Clone(r.TermStats)
	return &cp
}

func cachedCopy(r *executor.Result) *executor.Result {
	cp := clone(r)
	cp.Cached = true
	return cp
}
