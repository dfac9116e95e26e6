package kv_test

import (
	"context"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/assetvault/pkg/configs"
	"github.com/yeisme/assetvault/pkg/internal/storage/kv"
)

// backend 描述一个待测后端，open 返回 nil 时跳过.
type backend struct {
	name string
	open func(t testing.TB) kv.KVStore
}

func backends() []backend {
	return []backend{
		{"memory", func(t testing.TB) kv.KVStore {
			client, err := kv.NewKVClient(context.Background(), configs.KVConfig{Type: "memory"})
			require.NoError(t, err)

			return client
		}},
		{"redis", func(t testing.TB) kv.KVStore {
			addr := os.Getenv("ASSETVAULT_TEST_REDIS")
			if addr == "" {
				t.Skip("ASSETVAULT_TEST_REDIS not set")
			}

			client, err := kv.NewKVClient(context.Background(), configs.KVConfig{
				Type:  "redis",
				Redis: configs.RedisKVConfig{Addr: addr, DB: 15},
			})
			require.NoError(t, err)

			return client
		}},
		{"nats", func(t testing.TB) kv.KVStore {
			url := os.Getenv("ASSETVAULT_TEST_NATS")
			if url == "" {
				t.Skip("ASSETVAULT_TEST_NATS not set")
			}

			client, err := kv.NewKVClient(context.Background(), configs.KVConfig{
				Type: "nats",
				NATS: configs.NATSKVConfig{URL: url, Bucket: "assetvault-test", History: 1},
			})
			require.NoError(t, err)

			return client
		}},
	}
}

// TestBackendContract 对每个可用后端跑同一套缓存语义，键形如服务实际写入的 "av:..." 键.
func TestBackendContract(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			store := b.open(t)
			t.Cleanup(func() { _ = store.Close() })

			ctx := context.Background()
			prefix := fmt.Sprintf("av:test-%d:", time.Now().UnixNano())

			catalog := prefix + "catalog:monster"
			list := prefix + "assets:list:page=1"

			require.NoError(t, store.Set(ctx, catalog, []byte(`[{"id":"m-bat"}]`), time.Minute))
			require.NoError(t, store.Set(ctx, list, []byte(`{"total":0}`), 0))

			got, err := store.Get(ctx, catalog)
			require.NoError(t, err)
			require.JSONEq(t, `[{"id":"m-bat"}]`, string(got))

			keys, err := store.Keys(ctx, prefix+"*")
			require.NoError(t, err)
			sort.Strings(keys)
			require.Equal(t, []string{list, catalog}, keys)

			bd, ok := store.(kv.BatchDeleter)
			require.True(t, ok)
			require.NoError(t, bd.DeleteMany(ctx, catalog, list))

			_, err = store.Get(ctx, catalog)
			require.ErrorIs(t, err, kv.ErrKeyNotFound)

			exists, err := store.Exists(ctx, list)
			require.NoError(t, err)
			require.False(t, exists)
		})
	}
}

func TestNewKVStore_BadConfig(t *testing.T) {
	for _, typ := range []kv.KVType{kv.KVTypeRedis, kv.KVTypeNATS, kv.KVTypeGroupcache} {
		_, err := kv.NewKVStore(context.Background(), typ, "not a config")
		require.ErrorContains(t, err, "config", typ)
	}
}

func BenchmarkCacheKeys(b *testing.B) {
	store := backends()[0].open(b)
	ctx := context.Background()

	for i := range 1000 {
		require.NoError(b, store.Set(ctx, fmt.Sprintf("av:assets:list:%d", i), []byte("{}"), time.Minute))
	}

	for b.Loop() {
		if _, err := store.Keys(ctx, "av:assets:list:*"); err != nil {
			b.Fatal(err)
		}
	}
}
