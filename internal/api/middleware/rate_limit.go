package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"umap/backend/pkg/redis"
	"umap/backend/pkg/response"
)

// localLimiters 进程内限流器，按调用方分桶
type localLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

func newLocalLimiters(limit int, window time.Duration) *localLimiters {
	return &localLimiters{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
	}
}

func (s *localLimiters) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(s.every, s.burst)
		s.limiters[key] = l
	}
	return l
}

// RateLimit 速率限制中间件
// limit: 窗口内允许的最大请求数；window: 窗口时长
// rdb 不为 nil 时使用 Redis 固定窗口计数，否则（或 Redis 出错时）使用进程内令牌桶
// 已认证请求按 user_id 计数，否则按客户端 IP
func RateLimit(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if limit <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	local := newLocalLimiters(limit, window)

	return func(c *gin.Context) {
		caller := c.ClientIP()
		if uid := c.GetString(ContextUserID); uid != "" {
			caller = uid
		}
		key := c.FullPath() + ":" + caller

		if rdb != nil {
			allowed, count, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
			if err == nil {
				c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
				if !allowed {
					logger.Warn("请求频率超限", zap.String("caller", caller), zap.Int64("count", count))
					response.TooManyRequests(c, 10004, "请求过于频繁，请稍后再试")
					c.Abort()
					return
				}
				c.Next()
				return
			}
			logger.Warn("Redis 限流失败，使用进程内限流", zap.Error(err))
		}

		if !local.get(key).Allow() {
			logger.Warn("请求频率超限", zap.String("caller", caller))
			response.TooManyRequests(c, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Next()
	}
}
