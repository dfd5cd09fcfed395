package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "search", "q-1")
	_, parse := StartChild(ctx, "parse")
	parse.End()
	evalCtx, eval := StartChild(ctx, "evaluate")
	_, postings := StartChild(evalCtx, "postings")
	postings.SetAttr("term", "dog")
	postings.End()
	eval.End()
	root.End()

	require.Len(t, root.Children, 2)
	assert.Equal(t, "q-1", postings.TraceID)
	assert.Same(t, postings, root.Find("postings"))
	assert.Nil(t, root.Find("cache"))
	assert.Same(t, root, FromContext(ctx))
}

func TestStartChild_WithoutParent(t *testing.T) {
	ctx, span := StartChild(context.Background(), "orphan")
	span.End()

	assert.Empty(t, span.TraceID)
	assert.Same(t, span, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

func TestLog(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "search", "q-2")
	_, child := StartChild(ctx, "parse")
	child.SetAttr("canonical", "dog")
	child.End()
	root.End()

	var buf bytes.Buffer
	root.Log(ctx, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "span=search")
	assert.Contains(t, lines[0], "depth=0")
	assert.Contains(t, lines[1], "trace_id=q-2")
	assert.Contains(t, lines[1], "canonical=dog")

	buf.Reset()
	root.Log(ctx, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	assert.Empty(t, buf.String())
}
