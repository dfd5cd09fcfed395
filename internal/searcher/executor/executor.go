// Package executor evaluates parsed boolean queries against an index by
// set algebra over posting sets.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/tracing"
)

// DefaultLimit caps the ids returned when the caller passes no limit.
const DefaultLimit = 100

// Source is what evaluation needs from an index: the posting set of a
// normalised term and the ids of every document.
type Source interface {
	Postings(ctx context.Context, term string) ([]string, error)
	DocIDs(ctx context.Context) ([]string, error)
}

// Result is the outcome of one query.
type Result struct {
	Query      string         `json:"query"`
	Canonical  string         `json:"canonical"`
	DocIDs     []string       `json:"doc_ids"`
	TotalHits  int            `json:"total_hits"`
	TermStats  map[string]int `json:"term_stats"`
	Generation string         `json:"generation,omitempty"`
	Took       time.Duration  `json:"took"`
	Cached     bool           `json:"cached"`
}

type Executor struct {
	source Source
	logger *slog.Logger
}

func New(source Source) *Executor {
	return &Executor{
		source: source,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute evaluates q and returns at most limit ids in natural order.
// TotalHits counts every match. A zero limit selects DefaultLimit and a
// negative one returns every match.
func (e *Executor) Execute(ctx context.Context, q *parser.Query, limit int) (*Result, error) {
	start := time.Now()
	if limit == 0 {
		limit = DefaultLimit
	}

	ev := NewEvaluator(ctx, e.source)
	matches, err := ev.Eval(q.Root)
	if err != nil {
		return nil, err
	}

	ids := matches.Sorted()
	total := len(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	result := &Result{
		Query:     q.Raw,
		Canonical: q.Canonical(),
		DocIDs:    ids,
		TotalHits: total,
		TermStats: ev.TermStats(),
		Took:      time.Since(start),
	}
	e.logger.Debug("query executed",
		"query", q.Raw,
		"canonical", result.Canonical,
		"terms", q.Root.Terms(),
		"results", total,
		"took", result.Took,
	)
	return result, nil
}

// Evaluator computes the document set of an expression. Posting sets are
// fetched once per term and the full id set only when a NOT is reached.
type Evaluator struct {
	ctx      context.Context
	source   Source
	postings map[string]DocSet
	universe DocSet
}

func NewEvaluator(ctx context.Context, source Source) *Evaluator {
	return &Evaluator{
		ctx:      ctx,
		source:   source,
		postings: make(map[string]DocSet),
	}
}

// Eval returns the set of documents satisfying n.
func (ev *Evaluator) Eval(n *parser.Node) (DocSet, error) {
	if err := ev.ctx.Err(); err != nil {
		return nil, err
	}
	switch n.Op {
	case parser.OpTerm:
		return ev.term(n.Term)
	case parser.OpNot:
		operand, err := ev.Eval(n.Left)
		if err != nil {
			return nil, err
		}
		all, err := ev.Universe()
		if err != nil {
			return nil, err
		}
		return Difference(all, operand), nil
	case parser.OpAnd, parser.OpOr:
		left, err := ev.Eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := ev.Eval(n.Right)
		if err != nil {
			return nil, err
		}
		if n.Op == parser.OpAnd {
			return Intersect(left, right), nil
		}
		return Union(left, right), nil
	default:
		return nil, fmt.Errorf("unknown operator %v", n.Op)
	}
}

func (ev *Evaluator) term(term string) (DocSet, error) {
	if term == "" {
		return DocSet{}, nil
	}
	if set, ok := ev.postings[term]; ok {
		return set, nil
	}
	_, span := tracing.StartChild(ev.ctx, "postings")
	ids, err := ev.source.Postings(ev.ctx, term)
	span.SetAttr("term", term)
	span.SetAttr("docs", len(ids))
	span.End()
	if err != nil {
		return nil, fmt.Errorf("looking up term %q: %w", term, err)
	}
	set := NewDocSet(ids...)
	ev.postings[term] = set
	return set, nil
}

// Universe returns the ids of every indexed document.
func (ev *Evaluator) Universe() (DocSet, error) {
	if ev.universe != nil {
		return ev.universe, nil
	}
	_, span := tracing.StartChild(ev.ctx, "universe")
	ids, err := ev.source.DocIDs(ev.ctx)
	span.SetAttr("docs", len(ids))
	span.End()
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	ev.universe = NewDocSet(ids...)
	return ev.universe, nil
}

// TermStats returns the posting set size of every term looked up so far.
func (ev *Evaluator) TermStats() map[string]int {
	stats := make(map[string]int, len(ev.postings))
	for term, set := range ev.postings {
		stats[term] = set.Len()
	}
	return stats
}
