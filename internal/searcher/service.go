// Package searcher answers boolean queries over an opened index. It ties
// the parser, the query cache, the executor and the verifier together and
// reports every query to metrics and analytics.
package searcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/verifier"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/tracing"
)

type Service struct {
	store      indexer.Store
	parser     *parser.Parser
	executor   *executor.Executor
	cache      *cache.QueryCache
	metrics    *metrics.Metrics
	tracker    analytics.Tracker
	maxResults int
	logger     *slog.Logger

	docTermsOnce sync.Once
	docTerms     verifier.DocTerms
	docTermsErr  error
}

type Option func(*Service)

// WithCache serves repeated queries from c.
func WithCache(c *cache.QueryCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracker reports every query to t.
func WithTracker(t analytics.Tracker) Option {
	return func(s *Service) { s.tracker = t }
}

// WithMaxResults sets the limit used when a search passes none.
func WithMaxResults(n int) Option {
	return func(s *Service) { s.maxResults = n }
}

// New returns a Service over store. Query words are normalised with pre,
// which must match the preprocessor the corpus was built with.
func New(store indexer.Store, pre *tokenizer.Preprocessor, opts ...Option) *Service {
	s := &Service{
		store:      store,
		parser:     parser.New(pre),
		executor:   executor.New(store),
		tracker:    analytics.Nop{},
		maxResults: executor.DefaultLimit,
		logger:     slog.Default().With("component", "searcher"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Store() indexer.Store {
	return s.store
}

func (s *Service) Parse(query string) (*parser.Query, error) {
	return s.parser.Parse(query)
}

// Execute evaluates an already parsed query, through the cache when one is
// configured.
func (s *Service) Execute(ctx context.Context, q *parser.Query, limit int) (*executor.Result, error) {
	compute := func() (*executor.Result, error) {
		evalCtx, span := tracing.StartChild(ctx, "evaluate")
		defer span.End()
		return s.executor.Execute(evalCtx, q, limit)
	}
	generation := s.store.Generation()
	if s.cache == nil {
		res, err := compute()
		if err != nil {
			return nil, err
		}
		res.Generation = generation
		return res, nil
	}
	res, _, err := s.cache.GetOrCompute(ctx, q.Canonical(), generation, limit, compute)
	return res, err
}

// Search parses and evaluates query. A zero limit selects the configured
// maximum; a negative one returns every match. Malformed queries return a
// *parser.SyntaxError.
func (s *Service) Search(ctx context.Context, query string, limit int) (*executor.Result, error) {
	start := time.Now()
	queryID := uuid.NewString()
	ctx = logger.WithQueryID(ctx, queryID)
	log := logger.FromContext(ctx).With("component", "searcher")
	if limit == 0 {
		limit = s.maxResults
	}
	ctx, span := tracing.StartSpan(ctx, "search", queryID)
	defer func() {
		span.End()
		span.Log(ctx, log)
	}()

	_, parseSpan := tracing.StartChild(ctx, "parse")
	q, err := s.parser.Parse(query)
	parseSpan.End()
	if err != nil {
		s.record(ctx, analytics.SearchEvent{
			Type:  analytics.EventSyntaxError,
			Query: query,
			Error: err.Error(),
		}, "syntax_error", start)
		log.Info("rejected malformed query", "query", query, "error", err)
		return nil, err
	}

	res, err := s.Execute(ctx, q, limit)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		}
		log.Error("search execution failed", "query", query, "error", err)
		return nil, fmt.Errorf("evaluating %q: %w", query, err)
	}
	if res.Cached {
		res.Took = time.Since(start)
	}
	span.SetAttr("cache_hit", res.Cached)
	span.SetAttr("total_hits", res.TotalHits)

	eventType, resultType := analytics.EventSearch, "match"
	if res.TotalHits == 0 {
		eventType, resultType = analytics.EventZeroResult, "zero_result"
	}
	s.record(ctx, analytics.SearchEvent{
		Type:       eventType,
		Query:      query,
		Canonical:  res.Canonical,
		Terms:      q.Root.Terms(),
		TotalHits:  res.TotalHits,
		Returned:   len(res.DocIDs),
		CacheHit:   res.Cached,
		Generation: res.Generation,
	}, resultType, start)
	if s.metrics != nil {
		cacheStatus := "miss"
		if res.Cached {
			cacheStatus = "hit"
		}
		s.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
		s.metrics.SearchResultsCount.Observe(float64(res.TotalHits))
	}

	log.Info("search completed",
		"query", query,
		"canonical", res.Canonical,
		"total_hits", res.TotalHits,
		"returned", len(res.DocIDs),
		"cache_hit", res.Cached,
		"took", time.Since(start),
	)
	return res, nil
}

func (s *Service) record(ctx context.Context, event analytics.SearchEvent, resultType string, start time.Time) {
	event.LatencyUs = time.Since(start).Microseconds()
	event.Timestamp = time.Now().UTC()
	event.QueryID, _ = logger.QueryID(ctx)
	s.tracker.Track(ctx, event)
	if s.metrics != nil {
		s.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
}

// DocTerms loads the per-document term sets once per Service.
func (s *Service) DocTerms(ctx context.Context) (verifier.DocTerms, error) {
	s.docTermsOnce.Do(func() {
		s.docTerms, s.docTermsErr = verifier.LoadDocTerms(ctx, s.store)
	})
	return s.docTerms, s.docTermsErr
}

// Verify re-evaluates q document by document and compares the outcome
// with the index answer.
func (s *Service) Verify(ctx context.Context, q *parser.Query) (verifier.Report, error) {
	res, err := s.executor.Execute(ctx, q, -1)
	if err != nil {
		return verifier.Report{}, err
	}
	docs, err := s.DocTerms(ctx)
	if err != nil {
		return verifier.Report{}, err
	}
	return verifier.Verify(q, res.DocIDs, docs), nil
}

// RunBattery runs queries (the built-in battery when nil) and verifies
// each one.
func (s *Service) RunBattery(ctx context.Context, queries []ingestion.TestQuery) (*verifier.BatteryReport, error) {
	if queries == nil {
		queries = ingestion.SampleBattery
	}
	report, err := verifier.RunBattery(ctx, s, queries)
	if err != nil {
		return nil, err
	}
	s.logger.Info("test battery finished",
		"passed", report.Passed,
		"total", report.Total,
	)
	return report, nil
}

// Postings returns the documents containing word after normalisation.
func (s *Service) Postings(ctx context.Context, word string) (string, []string, error) {
	q, err := s.parser.Parse(word)
	if err != nil {
		return "", nil, err
	}
	if q.Root.Op != parser.OpTerm {
		return "", nil, errors.New("expected a single term")
	}
	if q.Root.Term == "" {
		return "", []string{}, nil
	}
	ids, err := s.store.Postings(ctx, q.Root.Term)
	return q.Root.Term, ids, err
}
