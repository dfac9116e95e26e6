package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/assetvault/pkg/internal/handle"
)

// RegisterAssetRoutes 注册资产路由，读接口公开，写接口挂上 guards（认证、只读、请求体限制）.
func RegisterAssetRoutes(g *gin.RouterGroup, h *handle.Handlers, guards ...gin.HandlerFunc) {
	assets := g.Group("/assets")
	{
		assets.GET("", h.ListAssets)
		assets.GET("/:id", h.GetAsset)

		write := assets.Group("", guards...)
		write.POST("", h.CreateAsset)
		write.PATCH("/:id", h.UpdateAsset)
		write.DELETE("/:id", h.DeleteAsset)
	}
}
