package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/assetvault/pkg/configs"
)

// 认证失败时返回的错误信息.
const (
	msgAuthNotConfigured = "Authentication not configured."
	msgInvalidAPIKey     = "Invalid or missing API key."
)

// APIKeyMiddleware 校验共享密钥请求头，只挂在写接口、备份与目录路由组上.
//   - 服务端没有配置密钥时返回 503
//   - 请求头缺失或与密钥不一致时返回 401
func APIKeyMiddleware(conf configs.AuthConfig, apiKey string) gin.HandlerFunc {
	header := strings.TrimSpace(conf.Header)
	if header == "" {
		header = configs.DefaultAPIKeyHeader
	}

	return func(c *gin.Context) {
		if !conf.Enabled {
			c.Next()
			return
		}

		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": msgAuthNotConfigured})
			return
		}

		got := c.GetHeader(header)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgInvalidAPIKey})
			return
		}

		c.Next()
	}
}
