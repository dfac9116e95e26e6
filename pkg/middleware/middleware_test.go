package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/assetvault/pkg/cache"
	"github.com/yeisme/assetvault/pkg/configs"
	"github.com/yeisme/assetvault/pkg/internal/storage/kv"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func do(e *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w
}

func TestAPIKeyMiddleware(t *testing.T) {
	enabled := configs.AuthConfig{Enabled: true, Header: "X-API-Key"}

	tests := []struct {
		name    string
		conf    configs.AuthConfig
		key     string
		headers map[string]string
		status  int
	}{
		{name: "valid", conf: enabled, key: "k", headers: map[string]string{"X-API-Key": "k"}, status: http.StatusOK},
		{name: "missing", conf: enabled, key: "k", status: http.StatusUnauthorized},
		{name: "mismatch", conf: enabled, key: "k", headers: map[string]string{"X-API-Key": "kk"}, status: http.StatusUnauthorized},
		{name: "not configured", conf: enabled, key: "", headers: map[string]string{"X-API-Key": "k"}, status: http.StatusServiceUnavailable},
		{name: "disabled", conf: configs.AuthConfig{}, key: "", status: http.StatusOK},
		{name: "custom header", conf: configs.AuthConfig{Enabled: true, Header: "X-Token"}, key: "k", headers: map[string]string{"X-Token": "k"}, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := gin.New()
			e.GET("/", APIKeyMiddleware(tt.conf, tt.key), okHandler)

			w := do(e, http.MethodGet, "/", tt.headers)
			require.Equal(t, tt.status, w.Code)
		})
	}
}

func TestReadOnlyMiddleware(t *testing.T) {
	var readOnly atomic.Bool

	e := gin.New()
	e.POST("/", ReadOnlyMiddleware(readOnly.Load), okHandler)

	require.Equal(t, http.StatusOK, do(e, http.MethodPost, "/", nil).Code)

	readOnly.Store(true)

	w := do(e, http.MethodPost, "/", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.JSONEq(t, `{"error":"Backend is running in read-only mode."}`, w.Body.String())
}

func TestRateLimitMiddleware_Global(t *testing.T) {
	e := gin.New()
	e.Use(RateLimitMiddleware(configs.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1, Key: "global"}, configs.AuthConfig{}))
	e.GET("/", okHandler)

	require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/", nil).Code)

	w := do(e, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_PerAPIKey(t *testing.T) {
	e := gin.New()
	e.Use(RateLimitMiddleware(configs.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1, Key: "apikey"},
		configs.AuthConfig{Header: "X-API-Key"}))
	e.GET("/", okHandler)

	require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/", map[string]string{"X-API-Key": "a"}).Code)
	require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/", map[string]string{"X-API-Key": "b"}).Code)
	require.Equal(t, http.StatusTooManyRequests, do(e, http.MethodGet, "/", map[string]string{"X-API-Key": "a"}).Code)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	e := gin.New()
	e.Use(RateLimitMiddleware(configs.RateLimitConfig{Enabled: false, RPS: 0.001, Burst: 1}, configs.AuthConfig{}))
	e.GET("/", okHandler)

	for range 3 {
		require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/", nil).Code)
	}
}

func TestLimiterSet_Sweep(t *testing.T) {
	ttl := time.Minute
	set := newLimiterSet(1, 1, ttl)
	now := time.Now()

	require.True(t, set.allow("a", now))
	require.True(t, set.allow("b", now.Add(ttl)))

	set.sweep(now.Add(ttl + time.Second))

	require.NotContains(t, set.visitors, "a")
	require.Contains(t, set.visitors, "b")
}

func TestResponseCache(t *testing.T) {
	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	var calls atomic.Int32

	e := gin.New()
	e.GET("/catalog/:type", ResponseCache(ResponseCacheConfig{
		Cache:  cache.NewCache(store),
		TTL:    time.Minute,
		Prefix: "catalog:http:",
	}), func(c *gin.Context) {
		calls.Add(1)
		c.JSON(http.StatusOK, gin.H{"type": c.Param("type")})
	})
	e.GET("/missing", ResponseCache(ResponseCacheConfig{
		Cache: cache.NewCache(store),
		TTL:   time.Minute,
	}), func(c *gin.Context) {
		calls.Add(1)
		c.JSON(http.StatusNotFound, gin.H{"error": "nope"})
	})

	w := do(e, http.MethodGet, "/catalog/monster", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "MISS", w.Header().Get("X-Cache"))
	require.JSONEq(t, `{"type":"monster"}`, w.Body.String())

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = do(e, http.MethodGet, "/catalog/monster", nil)
	require.Equal(t, "HIT", w.Header().Get("X-Cache"))
	require.Equal(t, etag, w.Header().Get("ETag"))
	require.JSONEq(t, `{"type":"monster"}`, w.Body.String())
	require.EqualValues(t, 1, calls.Load())

	w = do(e, http.MethodGet, "/catalog/monster", map[string]string{"If-None-Match": etag})
	require.Equal(t, http.StatusNotModified, w.Code)
	require.Empty(t, w.Body.String())

	w = do(e, http.MethodGet, "/catalog/monster", map[string]string{CacheBypassHeader: "1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 2, calls.Load())

	// 非 200 响应不缓存
	for range 2 {
		require.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/missing", nil).Code)
	}
	require.EqualValues(t, 4, calls.Load())
}

func TestResponseCache_Passthrough(t *testing.T) {
	e := gin.New()
	e.GET("/", ResponseCache(ResponseCacheConfig{}), okHandler)

	w := do(e, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Header().Get("X-Cache"))
}
