package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/assetvault/pkg/internal/handle"
)

// RegisterCatalogRoutes 注册目录路由，响应经过缓存中间件.
func RegisterCatalogRoutes(g *gin.RouterGroup, h *handle.Handlers, auth, cache gin.HandlerFunc) {
	g.GET("/catalog/:type", auth, cache, h.GetCatalog)
}
