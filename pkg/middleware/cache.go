package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/assetvault/pkg/cache"
)

const (
	// DefaultMaxBodyBytes 超过该大小的响应不缓存.
	DefaultMaxBodyBytes = 1 << 20
	// CacheBypassHeader 请求带上该头时直接穿透缓存.
	CacheBypassHeader = "X-Cache-Bypass"
)

// ResponseCacheConfig 响应缓存配置.
type ResponseCacheConfig struct {
	Cache        *appcache.Cache
	TTL          time.Duration
	Prefix       string // 缓存键前缀，失效时按前缀整体删除
	MaxBodyBytes int
}

// cachedResponse 序列化后存入 KV 的响应.
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"c,omitempty"`
	Body        []byte `json:"b,omitempty"`
	ETag        string `json:"e"`
	StoredAt    int64  `json:"t"`
}

// ResponseCache 缓存 GET/HEAD 的 200 响应并附带 ETag，命中 If-None-Match 时返回 304.
// Cache 为 nil 或 TTL 非正时退化为直通.
func ResponseCache(cfg ResponseCacheConfig) gin.HandlerFunc {
	if cfg.Cache == nil || cfg.TTL <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return func(c *gin.Context) {
		method := c.Request.Method
		if (method != http.MethodGet && method != http.MethodHead) || c.GetHeader(CacheBypassHeader) != "" {
			c.Next()
			return
		}

		key := responseKey(cfg.Prefix, c)
		ctx := c.Request.Context()

		if entry, err := appcache.Get[cachedResponse](ctx, cfg.Cache, key); err == nil {
			replay(c, entry)
			return
		}

		bw := &bufferedWriter{ResponseWriter: c.Writer}
		c.Writer = bw

		c.Next()

		c.Writer = bw.ResponseWriter
		status := bw.Status()

		if bw.ResponseWriter.Written() || status != http.StatusOK || bw.buf.Len() > cfg.MaxBodyBytes {
			_, _ = bw.ResponseWriter.Write(bw.buf.Bytes())
			return
		}

		body := bw.buf.Bytes()
		entry := cachedResponse{
			Status:      status,
			ContentType: bw.Header().Get("Content-Type"),
			Body:        append([]byte(nil), body...),
			ETag:        fmt.Sprintf("\"%x\"", xxhash.Sum64(body)),
			StoredAt:    time.Now().UnixNano(),
		}

		// 写缓存失败只影响下一次命中.
		_ = appcache.Set(ctx, cfg.Cache, key, entry, cfg.TTL)

		h := bw.Header()
		h.Set("ETag", entry.ETag)
		h.Set("X-Cache", "MISS")

		if method == http.MethodHead {
			bw.ResponseWriter.WriteHeaderNow()
			return
		}

		_, _ = bw.ResponseWriter.Write(body)
	}
}

// responseKey 由路径与排序后的 query 计算缓存键.
func responseKey(prefix string, c *gin.Context) string {
	raw := c.Request.URL.Path + "?" + c.Request.URL.Query().Encode()
	return prefix + strconv.FormatUint(xxhash.Sum64String(raw), 16)
}

func replay(c *gin.Context, entry cachedResponse) {
	h := c.Writer.Header()
	h.Set("ETag", entry.ETag)
	h.Set("X-Cache", "HIT")
	h.Set("Age", strconv.FormatInt(int64(time.Since(time.Unix(0, entry.StoredAt)).Seconds()), 10))

	if entry.ContentType != "" {
		h.Set("Content-Type", entry.ContentType)
	}

	if c.GetHeader("If-None-Match") == entry.ETag {
		c.AbortWithStatus(http.StatusNotModified)
		return
	}

	c.Status(entry.Status)

	if c.Request.Method != http.MethodHead {
		_, _ = c.Writer.Write(entry.Body)
	}

	c.Abort()
}

// bufferedWriter 暂存响应体，等处理器结束后再决定 ETag 与缓存.
type bufferedWriter struct {
	gin.ResponseWriter

	buf bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}
