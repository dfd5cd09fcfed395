package analytics

import (
	"context"
	"time"
)

type EventType string

const (
	EventSearch      EventType = "search"
	EventZeroResult  EventType = "zero_result"
	EventSyntaxError EventType = "syntax_error"
	EventIndexBuild  EventType = "index_build"
)

// SearchEvent describes one evaluated (or rejected) query.
type SearchEvent struct {
	Type       EventType `json:"type"`
	Query      string    `json:"query"`
	Canonical  string    `json:"canonical,omitempty"`
	Terms      []string  `json:"terms,omitempty"`
	TotalHits  int       `json:"total_hits"`
	Returned   int       `json:"returned"`
	LatencyUs  int64     `json:"latency_us"`
	CacheHit   bool      `json:"cache_hit"`
	Generation string    `json:"generation,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	QueryID    string    `json:"query_id,omitempty"`
}

// IndexEvent describes one index build.
type IndexEvent struct {
	Type        EventType `json:"type"`
	Backend     string    `json:"backend"`
	Generation  string    `json:"generation"`
	Documents   int       `json:"documents"`
	Skipped     int       `json:"skipped"`
	UniqueTerms int       `json:"unique_terms"`
	LatencyMs   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// Tracker receives analytics events. Implementations must not fail the
// caller; export problems are theirs to log.
type Tracker interface {
	Track(ctx context.Context, event any)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Track(context.Context, any) {}
