package configs

import "github.com/spf13/viper"

// DefaultMetricsPath Prometheus 抓取路径.
const DefaultMetricsPath = "/metrics"

// MetricsConfig Prometheus 指标配置.
type MetricsConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	Path           string            `mapstructure:"path"            rule:"omitempty,startswith=/"`
	RuntimeMetrics bool              `mapstructure:"runtime_metrics"` // Go 运行时与进程指标
	Pprof          bool              `mapstructure:"pprof"`           // 同时暴露 /debug/pprof
	Labels         map[string]string `mapstructure:"labels"`          // 附加到 HTTP 指标上的常量标签
}

func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", DefaultMetricsPath)
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.pprof", false)
	v.SetDefault("metrics.labels", map[string]string{})
}
