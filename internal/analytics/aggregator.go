package analytics

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	maxLatencySamples = 10000
	defaultTopQueries = 10
)

type AggregatedStats struct {
	SessionStart      time.Time    `json:"session_start"`
	TotalSearches     int64        `json:"total_searches"`
	SyntaxErrors      int64        `json:"syntax_errors"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	IndexBuilds       int64        `json:"index_builds"`
	DocsIndexed       int64        `json:"docs_indexed"`
	AvgLatencyUs      float64      `json:"avg_latency_us"`
	P50LatencyUs      int64        `json:"p50_latency_us"`
	P95LatencyUs      int64        `json:"p95_latency_us"`
	P99LatencyUs      int64        `json:"p99_latency_us"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator keeps in-process totals for the current session. Queries are
// grouped by canonical form, so "dog and cat" and "(dog AND cat)" count
// as the same query.
type Aggregator struct {
	mu                sync.RWMutex
	stats             AggregatedStats
	latencies         []int64
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	now               func() time.Time
	logger            *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		stats:             AggregatedStats{SessionStart: time.Now()},
		latencies:         make([]int64, 0, 256),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		now:               time.Now,
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// Track records a SearchEvent or IndexEvent; anything else is ignored.
func (a *Aggregator) Track(_ context.Context, event any) {
	switch e := event.(type) {
	case SearchEvent:
		a.recordSearchEvent(e)
	case *SearchEvent:
		a.recordSearchEvent(*e)
	case IndexEvent:
		a.recordIndexEvent(e)
	case *IndexEvent:
		a.recordIndexEvent(*e)
	default:
		a.logger.Debug("ignoring unknown analytics event", "type", fmt.Sprintf("%T", event))
	}
}

func (a *Aggregator) recordSearchEvent(event SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if event.Type == EventSyntaxError {
		a.stats.SyntaxErrors++
		return
	}
	a.stats.TotalSearches++
	if event.CacheHit {
		a.stats.CacheHits++
	} else {
		a.stats.CacheMisses++
	}
	key := event.Canonical
	if key == "" {
		key = event.Query
	}
	a.queryCounts[key]++
	if event.TotalHits == 0 {
		a.stats.ZeroResultCount++
		a.zeroResultQueries[key]++
	}
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyUs)
	}
}

func (a *Aggregator) recordIndexEvent(event IndexEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.IndexBuilds++
	a.stats.DocsIndexed += int64(event.Documents)
}

// Stats returns a snapshot of the session totals with the ten most
// frequent queries.
func (a *Aggregator) Stats() AggregatedStats {
	return a.StatsTop(defaultTopQueries)
}

// StatsTop is Stats with the query listings cut to n entries.
func (a *Aggregator) StatsTop(n int) AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := a.stats
	stats.AvgLatencyUs, stats.P50LatencyUs, stats.P95LatencyUs, stats.P99LatencyUs = summarize(a.latencies)
	stats.TopQueries = topN(a.queryCounts, n)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, n)
	if minutes := a.now().Sub(stats.SessionStart).Minutes(); minutes > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / minutes
	}
	return stats
}

// summarize returns the mean and the nearest-rank p50, p95 and p99 of
// samples without reordering them.
func summarize(samples []int64) (mean float64, p50, p95, p99 int64) {
	if len(samples) == 0 {
		return 0, 0, 0, 0
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	var sum int64
	for _, v := range sorted {
		sum += v
	}
	rank := func(pct int) int64 {
		return sorted[min(pct*len(sorted)/100, len(sorted)-1)]
	}
	return float64(sum) / float64(len(sorted)), rank(50), rank(95), rank(99)
}

// topN orders by count, then query text for a stable listing.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	slices.SortFunc(result, func(x, y QueryCount) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return strings.Compare(x.Query, y.Query)
	})
	return result[:min(n, len(result))]
}
