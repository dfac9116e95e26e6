package kv

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/assetvault/pkg/configs"
)

// NATSKV 基于 JetStream KV bucket.
//
// bucket 只支持整体 TTL，条目级过期通过 seal/open 包装并在读取时惰性删除.
// NATS 键不允许出现冒号，存储前统一做 base64url 编码.
type NATSKV struct {
	conn   *nats.Conn
	bucket nats.KeyValue
	now    func() time.Time
}

// NewNATSKV 连接 NATS，bucket 不存在时按配置创建.
func NewNATSKV(_ context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.NATSKVConfig)
	if !ok {
		return nil, fmt.Errorf("nats kv: unexpected config %T", config)
	}

	opts := []nats.Option{nats.Name("assetvault-kv")}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats kv: connect %s: %w", cfg.URL, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("nats kv: jetstream: %w", err)
	}

	bucket, err := openBucket(js, cfg)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("nats kv: bucket %s: %w", cfg.Bucket, err)
	}

	return &NATSKV{conn: nc, bucket: bucket, now: time.Now}, nil
}

func openBucket(js nats.JetStreamContext, cfg *configs.NATSKVConfig) (nats.KeyValue, error) {
	bucket, err := js.KeyValue(cfg.Bucket)
	if err == nil {
		return bucket, nil
	}

	if !errors.Is(err, nats.ErrBucketNotFound) {
		return nil, err
	}

	history := cfg.History
	if history == 0 {
		history = 1
	}

	return js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "assetvault cache",
		History:     history,
		MaxBytes:    cfg.MaxBytes,
	})
}

func encodeKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

func decodeKey(stored string) (string, bool) {
	b, err := base64.RawURLEncoding.DecodeString(stored)
	if err != nil {
		return "", false
	}

	return string(b), true
}

// lookup 返回未过期的值，过期条目顺手删除.
func (n *NATSKV) lookup(key string) ([]byte, bool, error) {
	stored := encodeKey(key)

	entry, err := n.bucket.Get(stored)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("nats kv: get %q: %w", key, err)
	}

	value, live, err := open(entry.Value(), n.now())
	if err != nil {
		return nil, false, err
	}

	if !live {
		_ = n.bucket.Delete(stored)

		return nil, false, nil
	}

	return value, true, nil
}

func (n *NATSKV) Get(_ context.Context, key string) ([]byte, error) {
	value, ok, err := n.lookup(key)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, notFound(key)
	}

	return value, nil
}

func (n *NATSKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	sealed, err := seal(value, ttl, n.now())
	if err != nil {
		return err
	}

	if _, err := n.bucket.Put(encodeKey(key), sealed); err != nil {
		return fmt.Errorf("nats kv: put %q: %w", key, err)
	}

	return nil
}

func (n *NATSKV) Delete(_ context.Context, key string) error {
	err := n.bucket.Delete(encodeKey(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("nats kv: delete %q: %w", key, err)
	}

	return nil
}

func (n *NATSKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok, err := n.lookup(key)

	return ok, err
}

// Keys 遍历 bucket 全部键，过滤与惰性过期都在客户端完成.
func (n *NATSKV) Keys(_ context.Context, pattern string) ([]string, error) {
	stored, err := n.bucket.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return []string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("nats kv: list keys: %w", err)
	}

	keys := make([]string, 0, len(stored))

	for _, s := range stored {
		key, ok := decodeKey(s)
		if !ok || !matchKey(pattern, key) {
			continue
		}

		if _, live, err := n.lookup(key); err != nil || !live {
			continue
		}

		keys = append(keys, key)
	}

	return keys, nil
}

func (n *NATSKV) Close() error {
	return n.conn.Drain()
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
