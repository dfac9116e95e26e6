// Package cache 提供基于键值存储的泛型缓存.
//
// 值使用 sonic 序列化为 JSON，所有键自动加上命名空间前缀.
// GetOrSet 通过 singleflight 合并同一个键的并发回源.
//
//	c := cache.NewCache(kvClient, cache.WithNamespace("av"))
//	items, err := cache.GetOrSet(ctx, c, "catalog:monster", loadMonsters, 5*time.Minute)
//
// 缓存未命中返回 kv.ErrKeyNotFound，调用方可以用 errors.Is 判断.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/assetvault/pkg/internal/storage/kv"
)

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore   kv.KVStore
	namespace string
	group     singleflight.Group
}

// Option 缓存选项.
type Option func(*Cache)

// WithNamespace 为所有键加上 "ns:" 前缀.
func WithNamespace(ns string) Option {
	return func(c *Cache) { c.namespace = ns }
}

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore, opts ...Option) *Cache {
	c := &Cache{kvStore: kvStore}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) key(k string) string {
	if c.namespace == "" {
		return k
	}

	return c.namespace + ":" + k
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, c.key(key))
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, c.key(key), data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, c.key(key))
}

// GetOrSet 获取缓存值，未命中时调用 getter 并回填. 同一个键的并发调用只执行一次 getter.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	var zero T

	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := getter()
		if err != nil {
			return nil, err
		}

		// 回填失败不影响返回值
		_ = Set(ctx, c, key, value, ttl)

		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected cache value type %T", v)
	}

	return value, nil
}

// DeletePattern 删除匹配 glob 模式的键，返回删除数量.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	keys, err := c.kvStore.Keys(ctx, c.key(pattern))
	if err != nil {
		return 0, err
	}

	if bd, ok := c.kvStore.(kv.BatchDeleter); ok {
		if err := bd.DeleteMany(ctx, keys...); err != nil {
			return 0, err
		}

		return len(keys), nil
	}

	n := 0

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return n, delErr
		}

		n++
	}

	return n, nil
}

// Clear 清空当前命名空间下的缓存.
func (c *Cache) Clear(ctx context.Context) error {
	_, err := c.DeletePattern(ctx, "*")

	return err
}
