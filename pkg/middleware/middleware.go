// Package middleware 提供 HTTP 中间件：认证、只读保护、限流、熔断、压缩、缓存与可观测性.
package middleware

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// CompressMiddleware 压缩 JSON 响应，skip 中的前缀（资产原文件、指标）保持原样.
func CompressMiddleware(skip ...string) gin.HandlerFunc {
	excluded := []string{"/swagger/"}
	for _, p := range skip {
		if p != "" {
			excluded = append(excluded, p)
		}
	}

	return gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths(excluded))
}

// BodyLimitMiddleware 限制请求体大小，超出后读取请求体返回 *http.MaxBytesError.
func BodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
