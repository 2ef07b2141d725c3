package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	jwtpkg "spamguard/backend/internal/auth/jwt"
	"spamguard/backend/internal/config"
	"spamguard/backend/internal/middleware"
	"spamguard/backend/internal/monitoring"
	"spamguard/backend/internal/service"
	"spamguard/backend/internal/websocket"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config          *config.Config
	AuthService     *service.AuthService
	ClassifyService *service.ClassificationService
	JWTManager      *jwtpkg.Manager
	WebSocketHub    *websocket.Hub // 可选
	Metrics         *monitoring.Metrics
	HealthHandler   healthcheck.Handler // 可选
	Logger          *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	var onPanic func()
	if deps.Metrics != nil {
		onPanic = deps.Metrics.RecordPanic
	}
	router.Use(middleware.Recovery(log, onPanic))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(1 * 1024 * 1024))

	if deps.Metrics != nil {
		router.Use(middleware.HTTPMetrics(deps.Metrics))
	}

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	authHandler := NewAuthHandler(deps.AuthService, log)
	classifyHandler := NewClassifyHandler(deps.ClassifyService, log)
	jwtAuth := middleware.NewJWTAuth(deps.JWTManager, log)

	// 登录/注册限流：每IP每秒1次，突发5次
	authRateLimit := middleware.NewRateLimiter(rate.Limit(1), 5, deps.Metrics)

	// 公开端点
	router.POST("/signup", authRateLimit.Limit(), authHandler.Signup)
	router.POST("/login", authRateLimit.Limit(), authHandler.Login)

	// 认证端点
	authed := router.Group("", jwtAuth.RequireAuth())
	{
		authed.GET("/protected", classifyHandler.Protected)
		authed.POST("/classify", classifyHandler.Classify)
		authed.GET("/history", classifyHandler.History)
		authed.POST("/feedback", classifyHandler.Feedback)
	}

	// WebSocket 分类事件流
	if deps.WebSocketHub != nil {
		router.GET("/ws", websocket.HandleWebSocket(deps.WebSocketHub))
	}

	// 运维端点
	if deps.HealthHandler != nil {
		router.GET("/health/live", gin.WrapF(deps.HealthHandler.LiveEndpoint))
		router.GET("/health/ready", gin.WrapF(deps.HealthHandler.ReadyEndpoint))
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	return router
}
