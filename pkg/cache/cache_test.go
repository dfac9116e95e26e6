package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/assetvault/pkg/cache"
	"github.com/yeisme/assetvault/pkg/internal/storage/kv"
)

type catalogEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newCache(t *testing.T, opts ...cache.Option) (*cache.Cache, kv.KVStore) {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	return cache.NewCache(store, opts...), store
}

func TestGetSetRoundTrip(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	_, err := cache.Get[catalogEntry](ctx, c, "catalog:m-slime")
	require.ErrorIs(t, err, kv.ErrKeyNotFound)

	want := catalogEntry{ID: "m-slime", Name: "史莱姆"}
	require.NoError(t, cache.Set(ctx, c, "catalog:m-slime", want, 0))

	got, err := cache.Get[catalogEntry](ctx, c, "catalog:m-slime")
	require.NoError(t, err)
	require.Equal(t, want, got)

	ok, err := c.Exists(ctx, "catalog:m-slime")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Delete(ctx, "catalog:m-slime"))

	ok, err = c.Exists(ctx, "catalog:m-slime")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNamespace(t *testing.T) {
	c, store := newCache(t, cache.WithNamespace("av"))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, c, "asset:1", 42, 0))

	raw, err := store.Get(ctx, "av:asset:1")
	require.NoError(t, err)
	require.Equal(t, "42", string(raw))
}

func TestGetOrSetCallsGetterOnce(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	var calls atomic.Int32

	getter := func() ([]string, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)

		return []string{"a", "b"}, nil
	}

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			v, err := cache.GetOrSet(ctx, c, "catalog:skill", getter, time.Minute)
			require.NoError(t, err)
			require.Equal(t, []string{"a", "b"}, v)
		}()
	}

	wg.Wait()

	v, err := cache.GetOrSet(ctx, c, "catalog:skill", getter, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, v)
	require.Equal(t, int32(1), calls.Load())
}

func TestGetOrSetGetterError(t *testing.T) {
	c, _ := newCache(t)
	boom := errors.New("getter error")

	_, err := cache.GetOrSet(context.Background(), c, "k", func() (int, error) { return 0, boom }, 0)
	require.ErrorIs(t, err, boom)

	ok, err := c.Exists(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeletePatternAndClear(t *testing.T) {
	c, store := newCache(t, cache.WithNamespace("av"))
	ctx := context.Background()

	for _, k := range []string{"assets:list:1", "assets:list:2", "catalog:monster"} {
		require.NoError(t, cache.Set(ctx, c, k, k, 0))
	}

	require.NoError(t, store.Set(ctx, "other:key", []byte("x"), 0))

	n, err := c.DeletePattern(ctx, "assets:list:*")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, c.Clear(ctx))

	keys, err := store.Keys(ctx, "*")
	require.NoError(t, err)
	require.Equal(t, []string{"other:key"}, keys)
}
