// file: internal/cache/cache_test.go
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(zap.NewNop())
	defer c.Close()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))
	got, ok := c.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, []byte("value"), got)

	require.NoError(t, c.Delete(ctx, "key"))
	_, ok = c.Get(ctx, "key")
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(zap.NewNop())
	defer c.Close()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)
}

func TestMemoryCacheRejectsZeroTTL(t *testing.T) {
	c := NewMemoryCache(zap.NewNop())
	defer c.Close()

	assert.Error(t, c.Set(context.Background(), "key", []byte("value"), 0))
}

func TestRedisCache(t *testing.T) {
	server := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewRedisCache(&Config{Provider: "redis", RedisAddr: server.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Health(ctx))

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))
	got, ok := c.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, []byte("value"), got)

	// miniredis needs an explicit clock advance for TTL expiry.
	server.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "key")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))
	require.NoError(t, c.Delete(ctx, "key"))
	_, ok = c.Get(ctx, "key")
	assert.False(t, ok)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(&Config{Provider: "memcached"}, zap.NewNop())
	assert.Error(t, err)
}
