package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/assetvault/pkg/internal/handle"
)

// RegisterBackupRoutes 注册备份路由，:file 形如 m-slime.png.
func RegisterBackupRoutes(g *gin.RouterGroup, h *handle.Handlers, auth, readOnly gin.HandlerFunc) {
	backups := g.Group("/backups", auth)
	{
		backups.GET("/:file", h.ListBackups)
		backups.POST("/:file/restore/:ts", readOnly, h.RestoreBackup)
		backups.DELETE("/:file/:ts", readOnly, h.DeleteBackup)
	}
}
