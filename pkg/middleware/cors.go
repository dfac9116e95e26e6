package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/assetvault/pkg/configs"
)

// CORSMiddleware 允许任意来源访问，管理后台前端与 API 通常不同源.
func CORSMiddleware(auth configs.AuthConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"}

	header := auth.Header
	if header == "" {
		header = configs.DefaultAPIKeyHeader
	}

	config.AddAllowHeaders(header, "Authorization")
	config.AddExposeHeaders("ETag", "X-Cache", "X-Request-ID")

	return cors.New(config)
}
