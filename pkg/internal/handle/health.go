package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/assetvault/pkg/context"
)

const healthTimeout = 2 * time.Second

func unhealthy(c *gin.Context, component, reason string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": reason})
}

// Healthz 存活探针.
//
//	@Summary	存活探针
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/healthz [get]
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HealthDB 数据库健康检查.
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.GetDB() == nil {
		unhealthy(c, "db", "db client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := dbc.Ping(ctx); err != nil {
		unhealthy(c, "db", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "db", "status": "ok"})
}

// HealthS3 对象存储健康检查，镜像未启用时没有 S3 客户端.
func HealthS3(c *gin.Context) {
	s3c := ctxPkg.GetS3Client(c.Request.Context())
	if s3c == nil || s3c.Client == nil {
		unhealthy(c, "s3", "s3 client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := s3c.HealthCheck(ctx); err != nil {
		unhealthy(c, "s3", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "s3", "status": "ok"})
}

// HealthMQ 事件总线健康检查.
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil {
		unhealthy(c, "mq", "mq client not initialized")
		return
	}

	if err := mqc.Ping(c.Request.Context()); err != nil {
		unhealthy(c, "mq", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "ok"})
}

// HealthKV 缓存后端健康检查，写入并读回一个短期探针键.
func HealthKV(c *gin.Context) {
	store := ctxPkg.GetKVClient(c.Request.Context())
	if store == nil || store.KVStore == nil {
		unhealthy(c, "kv", "kv client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	const probeKey = "av:health:probe"

	if err := store.Set(ctx, probeKey, []byte("1"), healthTimeout); err != nil {
		unhealthy(c, "kv", err.Error())
		return
	}

	if _, err := store.Get(ctx, probeKey); err != nil {
		unhealthy(c, "kv", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "kv", "status": "ok"})
}
