package configs

import (
	"time"

	"github.com/spf13/viper"
)

// KVConfig 缓存后端配置，只读取 Type 对应的子配置.
//
// 目录缓存与列表缓存都落在这里，memory 适合单实例部署，
// 多实例时用 redis 或 nats 共享缓存.
type KVConfig struct {
	Type       string           `mapstructure:"type"       rule:"oneof=memory redis nats groupcache"`
	Redis      RedisKVConfig    `mapstructure:"redis"`
	NATS       NATSKVConfig     `mapstructure:"nats"`
	Groupcache GroupcacheConfig `mapstructure:"groupcache"`
}

// RedisKVConfig Redis 连接参数.
type RedisKVConfig struct {
	Addr        string        `mapstructure:"addr"         rule:"hostname_port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"           rule:"min=0,max=15"`
	PoolSize    int           `mapstructure:"pool_size"    rule:"min=0"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// NATSKVConfig JetStream KV bucket 参数.
type NATSKVConfig struct {
	URL      string `mapstructure:"url"      rule:"required"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Bucket   string `mapstructure:"bucket"   rule:"required"`
	// History 每个键保留的历史版本数，缓存场景 1 即可
	History uint8 `mapstructure:"history" rule:"min=1,max=64"`
	// MaxBytes bucket 容量上限，0 表示不限
	MaxBytes int64 `mapstructure:"max_bytes" rule:"min=0"`
}

// GroupcacheConfig 进程内 groupcache，配置 Peers 后通过 HTTP 池共享.
type GroupcacheConfig struct {
	Name       string   `mapstructure:"name"        rule:"required"`
	CacheBytes int64    `mapstructure:"cache_bytes" rule:"min=1048576"`
	Peers      []string `mapstructure:"peers"       rule:"dive,url"`
	Self       string   `mapstructure:"self"        rule:"omitempty,url"`
}

func (c *KVConfig) setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"kv.type": "memory",

		"kv.redis.addr":         "localhost:6379",
		"kv.redis.db":           0,
		"kv.redis.pool_size":    0,
		"kv.redis.dial_timeout": "5s",

		"kv.nats.url":       "nats://localhost:4222",
		"kv.nats.bucket":    "assetvault-cache",
		"kv.nats.history":   1,
		"kv.nats.max_bytes": 0,

		"kv.groupcache.name":        "assetvault-cache",
		"kv.groupcache.cache_bytes": 64 << 20,
		"kv.groupcache.peers":       []string{},
		"kv.groupcache.self":        "http://localhost:8080",
	}

	for key, val := range defaults {
		v.SetDefault(key, val)
	}
}
