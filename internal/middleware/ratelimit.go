package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"filepanel/internal/util"
)

// LoginLimiter 按来源 IP 做滚动窗口计数。超限请求直接 429，
// 不碰用户存储。计数是防滥用手段，不是安全边界，近似即可。
type LoginLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
}

type bucket struct {
	start time.Time
	count int
}

// NewLoginLimiter 创建限流器：window 内每个来源最多 limit 次。
func NewLoginLimiter(limit int, window time.Duration) *LoginLimiter {
	if limit <= 0 {
		limit = 20
	}
	return &LoginLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
	}
}

// Allow 判断来源 source 的这一次尝试是否放行。
func (l *LoginLimiter) Allow(source string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[source]
	if !ok || now.Sub(b.start) >= l.window {
		// 窗口滚动，顺手清理早已沉寂的来源，防止 map 无限增长
		if len(l.buckets) > 1024 {
			for k, v := range l.buckets {
				if now.Sub(v.start) >= l.window {
					delete(l.buckets, k)
				}
			}
		}
		l.buckets[source] = &bucket{start: now, count: 1}
		return true
	}
	b.count++
	return b.count <= l.limit
}

// Middleware 包装登录接口。
func (l *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			util.Fail(c, http.StatusTooManyRequests, "尝试次数过多，请稍后再试")
			c.Abort()
			return
		}
		c.Next()
	}
}
