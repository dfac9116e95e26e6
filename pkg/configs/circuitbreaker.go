package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CircuitBreakerConfig /api 路由的熔断器，5xx 比例超过阈值后短路一段时间.
type CircuitBreakerConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	FailureRate float64 `mapstructure:"failure_rate" rule:"min=0,max=1"`
	// MinRequests 窗口内请求数达到该值才判断
	MinRequests uint32 `mapstructure:"min_requests"`
	// Interval 闭合状态下清零计数的周期
	Interval time.Duration `mapstructure:"interval"`
	// OpenTimeout 打开后多久进入半开
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	// HalfOpenRequests 半开状态放行的请求数
	HalfOpenRequests uint32 `mapstructure:"half_open_requests"`
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.failure_rate", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 20)
	v.SetDefault("circuit_breaker.interval", "1m")
	v.SetDefault("circuit_breaker.open_timeout", "30s")
	v.SetDefault("circuit_breaker.half_open_requests", 5)
}
