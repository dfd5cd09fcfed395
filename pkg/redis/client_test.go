package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/config"
)

// testClient connects to the Redis named by BOOLIR_TEST_REDIS_ADDR or skips.
func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("BOOLIR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BOOLIR_TEST_REDIS_ADDR not set")
	}
	c, err := NewClient(context.Background(), config.RedisConfig{Addr: addr, PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewClient_EmptyAddr(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{})
	assert.Error(t, err)
}

func TestClient_GetSetFlush(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	prefix := fmt.Sprintf("boolir-test-%d:", time.Now().UnixNano())

	_, ok, err := c.Get(ctx, prefix+"absent")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, prefix+"a", []byte("one"), time.Minute))
	require.NoError(t, c.Set(ctx, prefix+"b", []byte("two"), time.Minute))
	value, ok, err := c.Get(ctx, prefix+"a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "one", string(value))

	deleted, err := c.FlushByPattern(ctx, prefix+"*")
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	_, ok, err = c.Get(ctx, prefix+"b")
	require.NoError(t, err)
	assert.False(t, ok)
}
