package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/assetvault/pkg/configs"
)

const (
	defaultLimiterIdleTTL = 10 * time.Minute
	limiterSweepInterval  = time.Minute
)

// visitor 记录单个维度的令牌桶与最近访问时间.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet 按 key 维护令牌桶，闲置超过 idleTTL 的条目会被回收.
type limiterSet struct {
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
	visitors map[string]*visitor
}

func newLimiterSet(rps float64, burst int, idleTTL time.Duration) *limiterSet {
	if idleTTL <= 0 {
		idleTTL = defaultLimiterIdleTTL
	}

	return &limiterSet{rps: rate.Limit(rps), burst: burst, idleTTL: idleTTL, visitors: make(map[string]*visitor)}
}

func (s *limiterSet) allow(key string, now time.Time) bool {
	s.mu.Lock()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	s.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

func (s *limiterSet) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range s.visitors {
		if now.Sub(v.lastSeen) > s.idleTTL {
			delete(s.visitors, k)
		}
	}
}

// RateLimitMiddleware 返回一个基于配置的限流中间件.
// cfg.Key 支持 global、ip、apikey（按认证请求头，缺失时按 IP）与 header:Name.
func RateLimitMiddleware(cfg configs.RateLimitConfig, auth configs.AuthConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.Key))
	if mode == "global" || mode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if !limiter.Allow() {
				abortTooMany(c)
				return
			}

			c.Next()
		}
	}

	header := ""

	switch {
	case mode == "apikey":
		header = auth.Header
		if header == "" {
			header = configs.DefaultAPIKeyHeader
		}
	case strings.HasPrefix(mode, "header:"):
		// 模式本身被转成了小写，请求头名需要从原配置里取.
		header = strings.TrimSpace(cfg.Key[len("header:"):])
	}

	set := newLimiterSet(cfg.RPS, cfg.Burst, cfg.IdleTTL)

	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()

		for now := range ticker.C {
			set.sweep(now)
		}
	}()

	return func(c *gin.Context) {
		key := ""
		if header != "" {
			key = c.GetHeader(header)
		}

		if key == "" {
			key = clientIP(c)
		}

		if !set.allow(key, time.Now()) {
			abortTooMany(c)
			return
		}

		c.Next()
	}
}

func abortTooMany(c *gin.Context) {
	c.Header("Retry-After", "1")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, please try again later"})
}

func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}

	if c.Request.RemoteAddr != "" {
		return c.Request.RemoteAddr
	}

	return "unknown"
}
