// Package collector exports analytics events to Kafka in batches.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/resilience"
)

// Publisher writes a batch of events. *kafka.Producer satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// BatchCollector accumulates analytics events and publishes them once the
// buffer reaches the batch size, and on Flush. Publishing happens on the
// caller's goroutine. A circuit breaker stops a dead broker from slowing
// every query; while it is open events are dropped.
type BatchCollector struct {
	publisher Publisher
	breaker   *resilience.Breaker
	metrics   *metrics.Metrics
	mu        sync.Mutex
	buffer    []kafka.Event
	batchSize int
	logger    *slog.Logger
}

// NewBatchCollector creates a BatchCollector. m may be nil.
func NewBatchCollector(publisher Publisher, batchSize int, m *metrics.Metrics) *BatchCollector {
	if batchSize <= 0 {
		batchSize = 100
	}
	bc := &BatchCollector{
		publisher: publisher,
		metrics:   m,
		buffer:    make([]kafka.Event, 0, batchSize),
		batchSize: batchSize,
		logger:    slog.Default().With("component", "batch-collector"),
	}
	bc.breaker = resilience.NewBreaker("kafka-analytics", resilience.BreakerConfig{
		Threshold: 2,
		OnStateChange: func(name string, _, to resilience.State) {
			if m != nil {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return bc
}

// Track adds an event to the buffer, flushing when it is full.
func (bc *BatchCollector) Track(ctx context.Context, event any) {
	bc.mu.Lock()
	bc.buffer = append(bc.buffer, kafka.Event{Key: string(eventType(event)), Value: event})
	full := len(bc.buffer) >= bc.batchSize
	bc.mu.Unlock()

	if full {
		if err := bc.Flush(ctx); err != nil {
			bc.logger.Warn("analytics batch dropped", "error", err)
		}
	}
}

// BufferLen returns the current number of buffered events.
func (bc *BatchCollector) BufferLen() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.buffer)
}

// Flush publishes everything buffered. A failed batch is dropped and
// counted, never retried.
func (bc *BatchCollector) Flush(ctx context.Context) error {
	bc.mu.Lock()
	if len(bc.buffer) == 0 {
		bc.mu.Unlock()
		return nil
	}
	batch := bc.buffer
	bc.buffer = make([]kafka.Event, 0, bc.batchSize)
	bc.mu.Unlock()

	err := bc.breaker.Do(ctx, func(ctx context.Context) error {
		return bc.publisher.PublishBatch(ctx, batch)
	})
	status := "published"
	if err != nil {
		status = "dropped"
	}
	bc.count(batch, status)
	if err != nil {
		return fmt.Errorf("publishing %d analytics events: %w", len(batch), err)
	}
	bc.logger.Debug("batch flushed", "events", len(batch))
	return nil
}

func (bc *BatchCollector) count(batch []kafka.Event, status string) {
	if bc.metrics == nil {
		return
	}
	for _, e := range batch {
		bc.metrics.AnalyticsEvents.WithLabelValues(e.Key, status).Inc()
	}
}

func eventType(event any) analytics.EventType {
	switch e := event.(type) {
	case analytics.SearchEvent:
		return e.Type
	case *analytics.SearchEvent:
		return e.Type
	case analytics.IndexEvent:
		return e.Type
	case *analytics.IndexEvent:
		return e.Type
	default:
		return "unknown"
	}
}
