package configs

import (
	"time"

	"github.com/spf13/viper"
)

// RateLimitConfig 令牌桶限流.
//
// Key 选择限流维度：
//   - global 全局共用一个桶
//   - ip 按客户端 IP
//   - apikey 按 auth.header 携带的密钥，缺失时按 IP
//   - header:Name 按指定请求头
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	RPS     float64       `mapstructure:"rps"      rule:"min=0"`
	Burst   int           `mapstructure:"burst"    rule:"min=1"`
	Key     string        `mapstructure:"key"`
	IdleTTL time.Duration `mapstructure:"idle_ttl"` // 按 key 限流时闲置桶的回收时间
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 50.0)
	v.SetDefault("rate_limit.burst", 100)
	v.SetDefault("rate_limit.key", "ip")
	v.SetDefault("rate_limit.idle_ttl", "10m")
}
