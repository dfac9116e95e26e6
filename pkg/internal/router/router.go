// Package router 把处理器与中间件绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/assetvault/pkg/configs"
	"github.com/yeisme/assetvault/pkg/internal/handle"
	"github.com/yeisme/assetvault/pkg/internal/service"
	"github.com/yeisme/assetvault/pkg/internal/storage"
	"github.com/yeisme/assetvault/pkg/middleware"
	"github.com/yeisme/assetvault/pkg/scheduler"
)

// Deps 路由需要的依赖，Manager 与 Scheduler 可为 nil.
type Deps struct {
	Config    *configs.AppConfig
	Services  *service.Services
	Manager   *storage.Manager
	Scheduler *scheduler.Scheduler
	Logger    zerolog.Logger
}

// Register 注册全部路由：
//
//	GET    /healthz
//	GET    {public_raw_prefix}/*filepath          资产文件
//	GET    /api/assets, /api/assets/:id          公开
//	POST   /api/assets                           需要密钥，只读模式拒绝
//	PATCH  /api/assets/:id, DELETE /api/assets/:id
//	GET    /api/backups/:file                    需要密钥
//	POST   /api/backups/:file/restore/:ts        需要密钥，只读模式拒绝
//	DELETE /api/backups/:file/:ts
//	GET    /api/catalog/:type                    需要密钥
//	GET    /api/v1/health/{db,kv,s3,mq}, /api/v1/scheduler/jobs
func Register(e *gin.Engine, d Deps) {
	h := handle.New(d.Services, d.Config.Assets, d.Config.Server.PublicBaseURL,
		d.Logger.With().Str("component", "http").Logger())

	auth := middleware.APIKeyMiddleware(d.Config.Auth, d.Config.Assets.APIKey)
	readOnly := middleware.ReadOnlyMiddleware(func() bool { return d.Config.Assets.ReadOnly })

	e.GET("/healthz", handle.Healthz)
	RegisterRawFiles(e, d.Config.Assets)

	api := e.Group("/api", middleware.CircuitBreakerMiddleware(d.Config.CircuitBreaker, d.Logger))
	RegisterAssetRoutes(api, h, auth, readOnly, middleware.BodyLimitMiddleware(d.Config.Server.MaxUploadBytes()))
	RegisterBackupRoutes(api, h, auth, readOnly)
	RegisterCatalogRoutes(api, h, auth, middleware.ResponseCache(middleware.ResponseCacheConfig{
		Cache:  d.Services.Cache,
		TTL:    d.Config.Assets.CatalogTTL(),
		Prefix: service.CatalogResponsePrefix,
	}))

	v1 := api.Group("/v1",
		middleware.StorageMiddleware(d.Manager),
		middleware.SchedulerMiddleware(d.Scheduler),
	)
	RegisterHealthCheckRoute(v1)
	RegisterSchedulerRoutes(v1, auth)

	RegisterSwaggerRoute(e, d.Config.Server)
}

// RegisterRawFiles 以静态文件方式暴露当前资产文件，下载地址由该前缀拼接.
func RegisterRawFiles(e *gin.Engine, assets configs.AssetsConfig) {
	prefix := assets.PublicRawPrefix
	if prefix == "" {
		prefix = configs.DefaultAssetsPublicRawPathPrefix
	}

	e.Static(prefix, assets.RawDir)
}
