package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"spamguard/backend/internal/monitoring"
)

// RateLimiter 基于令牌桶的单IP限流器
//
// 用于保护登录/注册端点免受凭证爆破，限流状态只在单实例内存中维护。
type RateLimiter struct {
	limiters  map[string]*ipLimiter
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	metrics   *monitoring.Metrics
	lastSweep time.Time
}

const (
	sweepInterval = 10 * time.Minute
	entryIdleTTL  = 30 * time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter 创建限流器（r: 每秒补充令牌数, burst: 突发上限）
func NewRateLimiter(r rate.Limit, burst int, metrics *monitoring.Metrics) *RateLimiter {
	return &RateLimiter{
		limiters:  make(map[string]*ipLimiter),
		rate:      r,
		burst:     burst,
		metrics:   metrics,
		lastSweep: time.Now(),
	}
}

// Limit 限流中间件
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		if !rl.allow(ip) {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitBlock(c.FullPath())
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code": http.StatusTooManyRequests,
				"msg":  "请求过于频繁，请稍后重试",
			})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	if time.Since(rl.lastSweep) > sweepInterval {
		rl.sweepLocked()
	}
	l, exists := rl.limiters[ip]
	if !exists {
		l = &ipLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[ip] = l
	}
	l.lastSeen = time.Now()
	rl.mu.Unlock()

	return l.limiter.Allow()
}

// sweepLocked 回收长时间不活跃的IP条目，调用方必须持有 mu
func (rl *RateLimiter) sweepLocked() {
	for ip, l := range rl.limiters {
		if time.Since(l.lastSeen) > entryIdleTTL {
			delete(rl.limiters, ip)
		}
	}
	rl.lastSweep = time.Now()
}
