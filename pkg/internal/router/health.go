package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/assetvault/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册依赖组件的探活路由，客户端从 StorageMiddleware 注入的 context 获取.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	checks := map[string]gin.HandlerFunc{
		"db": handle.HealthDB,
		"kv": handle.HealthKV,
		"s3": handle.HealthS3,
		"mq": handle.HealthMQ,
	}

	health := g.Group("/health")
	for component, h := range checks {
		health.GET("/"+component, h)
	}
}
