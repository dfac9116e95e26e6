package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const msgReadOnly = "Backend is running in read-only mode."

// ReadOnlyMiddleware 在只读模式下拒绝挂载它的变更接口.
func ReadOnlyMiddleware(readOnly func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if readOnly != nil && readOnly() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgReadOnly})
			return
		}

		c.Next()
	}
}
