package kv

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/assetvault/pkg/configs"
)

// groupSeq 避免同名 group 重复注册时 panic.
var groupSeq atomic.Int64

// GroupcacheKV 基于 Groupcache 的 KV 实现.
//
// groupcache 的条目不可变，因此每个键带版本号：Set 和 Delete 会递增版本，
// 旧版本的缓存条目不再被访问.
type GroupcacheKV struct {
	cache    *groupcache.Group    // Groupcache 缓存组
	peers    *groupcache.HTTPPool // 对等节点池
	data     map[string][]byte    // 本地存储数据，值为 TTL 包装格式
	versions map[string]uint64    // 每个键的当前版本
	mu       sync.RWMutex         // 保护 data 和 versions
	now      func() time.Time
}

// NewGroupcacheKV 创建 Groupcache KV 实例.
func NewGroupcacheKV(ctx context.Context, config any) (KVStore, error) {
	gcConfig, ok := config.(*configs.GroupcacheConfig)
	if !ok {
		return nil, fmt.Errorf("invalid Groupcache config")
	}

	kv := &GroupcacheKV{
		data:     make(map[string][]byte),
		versions: make(map[string]uint64),
		now:      time.Now,
	}

	name := gcConfig.Name
	if groupcache.GetGroup(name) != nil {
		name = name + "-" + strconv.FormatInt(groupSeq.Add(1), 10)
	}

	kv.cache = groupcache.NewGroup(name, gcConfig.CacheBytes, groupcache.GetterFunc(kv.load))

	// 如果有对等节点，设置 HTTP 池
	if len(gcConfig.Peers) > 0 {
		kv.peers = groupcache.NewHTTPPoolOpts(gcConfig.Self, &groupcache.HTTPPoolOptions{})
		kv.peers.Set(gcConfig.Peers...)
	}

	return kv, nil
}

// load 是 groupcache 的回源函数，versioned 形如 "key@3".
func (g *GroupcacheKV) load(_ context.Context, versioned string, dest groupcache.Sink) error {
	idx := strings.LastIndexByte(versioned, '@')
	if idx < 0 {
		return notFound(versioned)
	}

	key := versioned[:idx]

	g.mu.RLock()
	value, exists := g.data[key]
	g.mu.RUnlock()

	if !exists {
		return notFound(key)
	}

	if err := dest.SetBytes(value); err != nil {
		return fmt.Errorf("failed to set bytes to sink: %w", err)
	}

	return nil
}

func (g *GroupcacheKV) versionedKey(key string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.data[key]; !ok {
		return "", false
	}

	return key + "@" + strconv.FormatUint(g.versions[key], 10), true
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	vk, ok := g.versionedKey(key)
	if !ok {
		return nil, notFound(key)
	}

	var data []byte

	err := g.cache.Get(ctx, vk, groupcache.AllocatingByteSliceSink(&data))
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	val, live, err := open(data, g.now())
	if err != nil {
		return nil, err
	}

	if !live {
		_ = g.Delete(ctx, key)

		return nil, notFound(key)
	}

	// 返回副本
	result := make([]byte, len(val))
	copy(result, val)

	return result, nil
}

// Set 设置键的值.
func (g *GroupcacheKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := seal(value, ttl, g.now())
	if err != nil {
		return err
	}

	data := make([]byte, len(encoded))
	copy(data, encoded)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.data[key] = data
	g.versions[key]++

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.data, key)
	g.versions[key]++

	return nil
}

// Exists 检查键是否存在.
func (g *GroupcacheKV) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := g.Get(ctx, key); err != nil {
		return false, nil
	}

	return true, nil
}

// Keys 获取匹配模式的键.
func (g *GroupcacheKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	now := g.now()

	keys := make([]string, 0, len(g.data))
	for key, value := range g.data {
		if !matchKey(pattern, key) {
			continue
		}

		if _, live, err := open(value, now); err == nil && !live {
			continue
		}

		keys = append(keys, key)
	}

	return keys, nil
}

// Close 关闭缓存.
func (g *GroupcacheKV) Close() error {
	// Groupcache 没有显式的关闭方法
	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
