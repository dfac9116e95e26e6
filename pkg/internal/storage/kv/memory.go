package kv

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// MemoryKV 单进程缓存，过期在读取时惰性检查.
type MemoryKV struct {
	data sync.Map // string -> *memEntry
	now  func() time.Time
}

// memEntry 包一层指针，CompareAndDelete 只删除读到的那一份.
type memEntry struct {
	sealed []byte
}

// NewMemoryKV 不需要配置，config 被忽略.
func NewMemoryKV(_ context.Context, _ any) (KVStore, error) {
	return &MemoryKV{now: time.Now}, nil
}

func (m *MemoryKV) load(key string) ([]byte, bool) {
	raw, ok := m.data.Load(key)
	if !ok {
		return nil, false
	}

	value, live, err := open(raw.(*memEntry).sealed, m.now())
	if err != nil || !live {
		m.data.CompareAndDelete(key, raw)

		return nil, false
	}

	return value, true
}

// Get 返回值的副本.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := m.load(key)
	if !ok {
		return nil, notFound(key)
	}

	return bytes.Clone(value), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	sealed, err := seal(bytes.Clone(value), ttl, m.now())
	if err != nil {
		return err
	}

	m.data.Store(key, &memEntry{sealed: sealed})

	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.data.Delete(key)

	return nil
}

// DeleteMany 删除多个键，不存在的键忽略.
func (m *MemoryKV) DeleteMany(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.data.Delete(key)
	}

	return nil
}

func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.load(key)

	return ok, nil
}

func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys := []string{}

	m.data.Range(func(k, _ any) bool {
		key := k.(string)
		if !matchKey(pattern, key) {
			return true
		}

		if _, ok := m.load(key); ok {
			keys = append(keys, key)
		}

		return true
	})

	return keys, nil
}

func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
