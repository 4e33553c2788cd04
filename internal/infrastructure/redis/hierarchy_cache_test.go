package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

const testRedisAddr = "localhost:6379"

func setupCache(t *testing.T) *HierarchyCache {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis no disponible en %s: %v", testRedisAddr, err)
	}
	c := NewHierarchyCache(client, time.Minute, logger.Nop())
	c.prefix = "test:" + t.Name() + ":"
	require.NoError(t, c.Invalidate(ctx))
	t.Cleanup(func() {
		_ = c.Invalidate(context.Background())
		_ = client.Del(context.Background(), c.prefix+genKey).Err()
		_ = client.Close()
	})
	return c
}

func TestHierarchyCache_GetOrLoad_CachesResult(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	var calls int32
	loader := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return map[string]any{"series": []any{map[string]any{"_id": "s1"}}}, nil
	}

	var first map[string]any
	require.NoError(t, c.GetOrLoad(ctx, "depth:5", &first, loader))
	var second map[string]any
	require.NoError(t, c.GetOrLoad(ctx, "depth:5", &second, loader))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, first, second)
}

func TestHierarchyCache_Invalidate(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	var calls int32
	loader := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"a"}, nil
	}
	var out []string
	require.NoError(t, c.GetOrLoad(ctx, "k", &out, loader))
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.GetOrLoad(ctx, "k", &out, loader))

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHierarchyCache_InvalidateDuringLoadDropsStaleTree(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		var out string
		assert.NoError(t, c.GetOrLoad(ctx, "full", &out, func(context.Context) (any, error) {
			close(started)
			<-release
			return "viejo", nil
		}))
		assert.Equal(t, "viejo", out)
	}()

	<-started
	require.NoError(t, c.Invalidate(ctx))
	close(release)
	<-done

	var out string
	require.NoError(t, c.GetOrLoad(ctx, "full", &out, func(context.Context) (any, error) { return "nuevo", nil }))
	assert.Equal(t, "nuevo", out)
}

func TestHierarchyCache_LoaderErrorNotCached(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()
	boom := errors.New("boom")

	var out any
	err := c.GetOrLoad(ctx, "k", &out, func(context.Context) (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	require.NoError(t, c.GetOrLoad(ctx, "k", &out, func(context.Context) (any, error) { return "ok", nil }))
	assert.Equal(t, "ok", out)
}

func TestHierarchyCache_ConcurrentMissesShareLoader(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	loader := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.GetOrLoad(ctx, "same", &results[i], loader))
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
	for _, r := range results {
		assert.Equal(t, 42, r)
	}
}

func TestHierarchyCache_UnreachableFallsBackToLoader(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	c := NewHierarchyCache(client, time.Minute, logger.Nop())

	var out string
	err := c.GetOrLoad(context.Background(), "k", &out, func(context.Context) (any, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", out)
}
