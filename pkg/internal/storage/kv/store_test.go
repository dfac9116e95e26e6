package kv

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/assetvault/pkg/configs"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newStores(t *testing.T) map[string]KVStore {
	t.Helper()

	mem, err := NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	gc, err := NewGroupcacheKV(context.Background(), &configs.GroupcacheConfig{
		Name:       "kv-test",
		CacheBytes: 1 << 20,
	})
	require.NoError(t, err)

	return map[string]KVStore{"memory": mem, "groupcache": gc}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, "asset:m-slime", []byte("v1"), 0))

			got, err := store.Get(ctx, "asset:m-slime")
			require.NoError(t, err)
			require.Equal(t, []byte("v1"), got)

			// 覆盖后必须读到新值
			require.NoError(t, store.Set(ctx, "asset:m-slime", []byte("v2"), 0))
			got, err = store.Get(ctx, "asset:m-slime")
			require.NoError(t, err)
			require.Equal(t, []byte("v2"), got)

			require.NoError(t, store.Delete(ctx, "asset:m-slime"))
			_, err = store.Get(ctx, "asset:m-slime")
			require.ErrorIs(t, err, ErrKeyNotFound)

			ok, err := store.Exists(ctx, "asset:m-slime")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStoreKeysPattern(t *testing.T) {
	ctx := context.Background()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"catalog:monster", "catalog:skill", "asset:1"} {
				require.NoError(t, store.Set(ctx, k, []byte("x"), 0))
			}

			keys, err := store.Keys(ctx, "catalog:*")
			require.NoError(t, err)
			sort.Strings(keys)
			require.Equal(t, []string{"catalog:monster", "catalog:skill"}, keys)

			all, err := store.Keys(ctx, "")
			require.NoError(t, err)
			require.Len(t, all, 3)
		})
	}
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := &MemoryKV{now: c.now}

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 10*time.Second))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	c.t = c.t.Add(11 * time.Second)

	_, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, ErrKeyNotFound)

	keys, err := store.Keys(ctx, "*")
	require.NoError(t, err)
	require.Empty(t, keys)
}

// TestMemoryEvictsExpired 过期或损坏的条目在读取时被移除，之后重新写入的值不受影响.
func TestMemoryEvictsExpired(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := &MemoryKV{now: c.now}

	require.NoError(t, store.Set(ctx, "av:assets:list:page=1", []byte("{}"), 30*time.Second))
	store.data.Store("av:catalog:monster", &memEntry{sealed: append(bytes.Clone(envelopeMagic), '{')})

	c.t = c.t.Add(31 * time.Second)

	require.NotPanics(t, func() {
		_, err := store.Get(ctx, "av:assets:list:page=1")
		require.ErrorIs(t, err, ErrKeyNotFound)

		ok, err := store.Exists(ctx, "av:catalog:monster")
		require.NoError(t, err)
		require.False(t, ok)
	})

	_, loaded := store.data.Load("av:assets:list:page=1")
	require.False(t, loaded)
	_, loaded = store.data.Load("av:catalog:monster")
	require.False(t, loaded)

	require.NoError(t, store.Set(ctx, "av:assets:list:page=1", []byte(`{"total":1}`), 30*time.Second))
	got, err := store.Get(ctx, "av:assets:list:page=1")
	require.NoError(t, err)
	require.JSONEq(t, `{"total":1}`, string(got))
}

func TestGroupcacheTTL(t *testing.T) {
	ctx := context.Background()

	s, err := NewGroupcacheKV(ctx, &configs.GroupcacheConfig{Name: "kv-ttl", CacheBytes: 1 << 20})
	require.NoError(t, err)

	store := s.(*GroupcacheKV)
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store.now = c.now

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 5*time.Second))

	ok, err := store.Exists(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	c.t = c.t.Add(6 * time.Second)

	ok, err = store.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewKVClient(t *testing.T) {
	client, err := NewKVClient(context.Background(), configs.KVConfig{Type: string(KVTypeMemory)})
	require.NoError(t, err)
	require.NotNil(t, client.KVStore)

	_, err = NewKVClient(context.Background(), configs.KVConfig{Type: "etcd"})
	require.Error(t, err)

	require.Contains(t, GetRegisteredKVTypes(), KVTypeMemory)
}

func TestSealOpen(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	plain, err := seal([]byte("plain"), 0, now)
	require.NoError(t, err)
	require.Equal(t, []byte("plain"), plain)

	sealed, err := seal([]byte("v"), 1500*time.Millisecond, now)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(sealed, envelopeMagic))

	val, live, err := open(sealed, now.Add(time.Second))
	require.NoError(t, err)
	require.True(t, live)
	require.Equal(t, []byte("v"), val)

	// 毫秒精度，1.5s 时刻恰好过期
	_, live, err = open(sealed, now.Add(1500*time.Millisecond))
	require.NoError(t, err)
	require.False(t, live)

	_, _, err = open(append(bytes.Clone(envelopeMagic), '{'), now)
	require.Error(t, err)
}

func TestMemoryDeleteMany(t *testing.T) {
	ctx := context.Background()
	client := &Client{KVStore: &MemoryKV{now: time.Now}}

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, client.Set(ctx, k, []byte(k), 0))
	}

	require.NoError(t, client.DeleteMany(ctx, "a", "c", "missing"))

	keys, err := client.Keys(ctx, "*")
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, keys)
}

func TestNATSKeyEncoding(t *testing.T) {
	for _, key := range []string{"av:catalog:monster", "av:assets:list:page=2&type=", "plain"} {
		stored := encodeKey(key)
		require.Regexp(t, `^[-_a-zA-Z0-9]+$`, stored)

		got, ok := decodeKey(stored)
		require.True(t, ok)
		require.Equal(t, key, got)
	}

	_, ok := decodeKey("not base64!")
	require.False(t, ok)
}
