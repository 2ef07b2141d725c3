package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", rl.Limit(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": http.StatusOK})
	})
	return router
}

func doFrom(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	t.Run("超过突发上限返回429", func(t *testing.T) {
		rl := NewRateLimiter(rate.Limit(0.001), 2, nil)
		router := newLimitedRouter(rl)

		assert.Equal(t, http.StatusOK, doFrom(router, "10.0.0.1:1234").Code)
		assert.Equal(t, http.StatusOK, doFrom(router, "10.0.0.1:1234").Code)
		assert.Equal(t, http.StatusTooManyRequests, doFrom(router, "10.0.0.1:1234").Code)
	})

	t.Run("不同IP互不影响", func(t *testing.T) {
		rl := NewRateLimiter(rate.Limit(0.001), 1, nil)
		router := newLimitedRouter(rl)

		assert.Equal(t, http.StatusOK, doFrom(router, "10.0.0.1:1234").Code)
		assert.Equal(t, http.StatusTooManyRequests, doFrom(router, "10.0.0.1:1234").Code)
		assert.Equal(t, http.StatusOK, doFrom(router, "10.0.0.2:1234").Code)
	})

	t.Run("令牌补充后恢复放行", func(t *testing.T) {
		rl := NewRateLimiter(rate.Every(20*time.Millisecond), 1, nil)
		router := newLimitedRouter(rl)

		assert.Equal(t, http.StatusOK, doFrom(router, "10.0.0.3:1234").Code)
		assert.Equal(t, http.StatusTooManyRequests, doFrom(router, "10.0.0.3:1234").Code)

		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, http.StatusOK, doFrom(router, "10.0.0.3:1234").Code)
	})

	t.Run("不活跃条目被惰性回收", func(t *testing.T) {
		rl := NewRateLimiter(rate.Limit(1), 1, nil)
		router := newLimitedRouter(rl)

		doFrom(router, "10.0.0.4:1234")
		rl.mu.Lock()
		rl.limiters["10.0.0.4"].lastSeen = time.Now().Add(-time.Hour)
		rl.lastSweep = time.Now().Add(-time.Hour)
		rl.mu.Unlock()

		doFrom(router, "10.0.0.5:1234")

		rl.mu.Lock()
		_, stale := rl.limiters["10.0.0.4"]
		rl.mu.Unlock()
		assert.False(t, stale)
	})
}
