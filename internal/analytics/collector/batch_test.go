package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/metrics"
)

type fakePublisher struct {
	batches [][]kafka.Event
	err     error
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, events)
	return nil
}

func TestBatchCollector_FlushesAtBatchSize(t *testing.T) {
	pub := &fakePublisher{}
	bc := NewBatchCollector(pub, 2, metrics.New())
	ctx := context.Background()

	bc.Track(ctx, analytics.SearchEvent{Type: analytics.EventSearch, Query: "dog"})
	assert.Equal(t, 1, bc.BufferLen())
	assert.Empty(t, pub.batches)

	bc.Track(ctx, &analytics.SearchEvent{Type: analytics.EventZeroResult, Query: "unicorn"})
	assert.Equal(t, 0, bc.BufferLen())
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "search", pub.batches[0][0].Key)
	assert.Equal(t, "zero_result", pub.batches[0][1].Key)

	bc.Track(ctx, analytics.IndexEvent{Type: analytics.EventIndexBuild})
	require.NoError(t, bc.Flush(ctx))
	require.Len(t, pub.batches, 2)
	assert.Equal(t, "index_build", pub.batches[1][0].Key)

	require.NoError(t, bc.Flush(ctx), "empty flush")
	assert.Len(t, pub.batches, 2)
}

func TestBatchCollector_DropsOnFailure(t *testing.T) {
	boom := errors.New("broker down")
	pub := &fakePublisher{err: boom}
	bc := NewBatchCollector(pub, 10, nil)
	ctx := context.Background()

	bc.Track(ctx, analytics.SearchEvent{Type: analytics.EventSearch})
	assert.ErrorIs(t, bc.Flush(ctx), boom)
	assert.Equal(t, 0, bc.BufferLen())

	bc.Track(ctx, analytics.SearchEvent{Type: analytics.EventSearch})
	assert.ErrorIs(t, bc.Flush(ctx), boom)

	// breaker is now open: the publisher is no longer called
	pub.err = nil
	bc.Track(ctx, analytics.SearchEvent{Type: analytics.EventSearch})
	assert.Error(t, bc.Flush(ctx))
	assert.Empty(t, pub.batches)
}

func TestEventType(t *testing.T) {
	assert.Equal(t, analytics.EventType("unknown"), eventType(42))
	assert.Equal(t, analytics.EventIndexBuild, eventType(&analytics.IndexEvent{Type: analytics.EventIndexBuild}))
}
