package router

import (
	"net"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yeisme/assetvault/docs"
	"github.com/yeisme/assetvault/pkg/configs"
)

// RegisterSwaggerRoute 只在 debug 下暴露 /swagger/，文档里的 host 优先取 public_base_url.
func RegisterSwaggerRoute(r *gin.Engine, cfg configs.ServerConfig) {
	if !cfg.Debug {
		return
	}

	docs.SwaggerInfo.Version = configs.AppVersion
	docs.SwaggerInfo.Host = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	if u, err := url.Parse(cfg.PublicBaseURL); err == nil && u.Host != "" {
		docs.SwaggerInfo.Host = u.Host
		docs.SwaggerInfo.Schemes = []string{u.Scheme}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))
}
