package analytics

import (
	"context"
	"log/slog"
	"sync"
)

// Collector fans every event out to the session aggregator and to any
// exporters. Events are delivered synchronously and in order.
type Collector struct {
	mu         sync.Mutex
	aggregator *Aggregator
	exporters  []Tracker
	logger     *slog.Logger
}

func NewCollector(aggregator *Aggregator, exporters ...Tracker) *Collector {
	if aggregator == nil {
		aggregator = NewAggregator()
	}
	return &Collector{
		aggregator: aggregator,
		exporters:  exporters,
		logger:     slog.Default().With("component", "analytics-collector"),
	}
}

func (c *Collector) Track(ctx context.Context, event any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aggregator.Track(ctx, event)
	for _, exp := range c.exporters {
		exp.Track(ctx, event)
	}
}

// Aggregator returns the session aggregator.
func (c *Collector) Aggregator() *Aggregator {
	return c.aggregator
}

// Close flushes exporters that buffer events.
func (c *Collector) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, exp := range c.exporters {
		f, ok := exp.(interface{ Flush(context.Context) error })
		if !ok {
			continue
		}
		if err := f.Flush(ctx); err != nil {
			c.logger.Warn("final analytics flush failed", "error", err)
		}
	}
}
