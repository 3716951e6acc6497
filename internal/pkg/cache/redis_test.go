package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	Total int `json:"total"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestFetchJSON_CachesUntilBump(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (interface{}, error) {
		calls++
		return summary{Total: calls}, nil
	}

	key, err := c.Key(ctx, "reports", "history", "12")
	require.NoError(t, err)
	assert.Equal(t, "reports:history:12:v1", key)

	var first, second summary
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	require.NoError(t, c.Bump(ctx))
	key, err = c.Key(ctx, "reports", "history", "12")
	require.NoError(t, err)
	assert.Equal(t, "reports:history:12:v2", key)

	var third summary
	require.NoError(t, c.FetchJSON(ctx, key, &third, loader))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, third.Total)
}

func TestFetchJSON_ExpiresWithTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (interface{}, error) {
		calls++
		return summary{Total: calls}, nil
	}

	var out summary
	require.NoError(t, c.FetchJSON(ctx, "k", &out, loader))
	mr.FastForward(2 * time.Minute)
	require.NoError(t, c.FetchJSON(ctx, "k", &out, loader))
	assert.Equal(t, 2, calls)
}

func TestNilCache_CallsLoader(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	key, err := c.Key(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a:b", key)

	var out summary
	require.NoError(t, c.FetchJSON(ctx, key, &out, func(context.Context) (interface{}, error) {
		return summary{Total: 7}, nil
	}))
	assert.Equal(t, 7, out.Total)
	assert.NoError(t, c.Bump(ctx))
}
