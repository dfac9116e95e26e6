// Package metrics 维护进程内唯一的 Prometheus 注册表.
//
// HTTP 指标在 InitMetrics 时注册，业务包通过 NewCounter 在包初始化阶段登记自己的指标:
//
//	var savedBytes = metrics.NewCounter("revision_bytes_total", "...", []string{"ext"})
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 注册到 http.DefaultServeMux
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/assetvault/pkg/configs"
)

// Namespace 所有自定义指标的前缀.
const Namespace = "assetvault"

var (
	// RequestCounter 按方法、路由模板与状态码统计请求数.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration 请求耗时，上传接口落在较大的桶里.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 当前打开的连接数.
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "active_connections",
		Help:      "Open HTTP connections.",
	})

	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// InitMetrics 注册 HTTP 与运行时指标，config.Labels 作为常量标签附加.
// 重复调用只生效一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error

	initOnce.Do(func() {
		reg := prometheus.WrapRegistererWith(config.Labels, registry)

		if config.RuntimeMetrics {
			if err = reg.Register(collectors.NewGoCollector()); err != nil {
				return
			}

			if err = reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
				return
			}
		}

		for _, c := range []prometheus.Collector{RequestCounter, RequestDuration, ActiveConnections} {
			if err = reg.Register(c); err != nil {
				return
			}
		}
	})

	return err
}

// StartMetricsServer 在引擎上挂载指标端点，按配置附带 pprof.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	path := config.Path
	if path == "" {
		path = configs.DefaultMetricsPath
	}

	engine.GET(path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 返回共享注册表，供 gorm 与 watermill 的指标插件使用.
func GetRegistry() *prometheus.Registry {
	return registry
}

// NewCounter 创建并注册一个带 Namespace 前缀的计数器.
func NewCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      name,
		Help:      help,
	}, labels)
	registry.MustRegister(counter)

	return counter
}

// NewHistogram 创建并注册一个带 Namespace 前缀的直方图.
func NewHistogram(name, help string, buckets []float64, labels []string) *prometheus.HistogramVec {
	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	registry.MustRegister(histogram)

	return histogram
}
