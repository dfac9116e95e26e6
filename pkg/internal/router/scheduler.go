package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/assetvault/pkg/internal/handle"
)

// RegisterSchedulerRoutes 注册调度器路由，手动触发需要密钥.
func RegisterSchedulerRoutes(g *gin.RouterGroup, auth gin.HandlerFunc) {
	g.GET("/scheduler/jobs", handle.SchedulerJobs)
	g.POST("/scheduler/jobs/:name/run", auth, handle.SchedulerRunJob)
}
