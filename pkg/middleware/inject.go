package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/assetvault/pkg/context"
	"github.com/yeisme/assetvault/pkg/internal/storage"
	"github.com/yeisme/assetvault/pkg/scheduler"
)

type schedulerKey struct{}

// StorageMiddleware 把存储管理器放进请求 context，健康检查处理器从中取客户端.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager != nil {
			c.Request = c.Request.WithContext(ctxPkg.WithStorageManager(c.Request.Context(), manager))
		}

		c.Next()
	}
}

// SchedulerMiddleware 把调度器放进请求 context.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sched != nil {
			c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), schedulerKey{}, sched))
		}

		c.Next()
	}
}

// GetScheduler 取出 SchedulerMiddleware 注入的调度器，没有时返回 nil.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	if sched, ok := c.Request.Context().Value(schedulerKey{}).(*scheduler.Scheduler); ok {
		return sched
	}

	return nil
}
