package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	jwtpkg "spamguard/backend/internal/auth/jwt"
	"spamguard/backend/internal/classifier"
	"spamguard/backend/internal/config"
	"spamguard/backend/internal/health"
	"spamguard/backend/internal/identity"
	"spamguard/backend/internal/identity/httpapi"
	"spamguard/backend/internal/identity/local"
	"spamguard/backend/internal/logger"
	"spamguard/backend/internal/monitoring"
	"spamguard/backend/internal/service"
	"spamguard/backend/internal/smtp"
	"spamguard/backend/internal/storage"
	"spamguard/backend/internal/storage/memory"
	redisstore "spamguard/backend/internal/storage/redis"
	sqlstore "spamguard/backend/internal/storage/sql"
	httptransport "spamguard/backend/internal/transport/http"
	"spamguard/backend/internal/websocket"
)

// main 启动包含 HTTP API（及可选 SMTP 接收）的分类服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.LogFile,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting spamguard server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层
	var store storage.Store
	if cfg.Database.Type != "" && cfg.Database.DSN != "" {
		store, err = sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize database storage: %v", err))
		}
		log.Info("using database storage", zap.String("type", cfg.Database.Type))
	} else {
		store = memory.NewStore()
		log.Info("using memory storage (development mode)")
	}
	defer store.Close()

	// 加载分类模型（加载失败不阻断启动，分类请求将返回500）
	var model classifier.Classifier
	loaded, err := classifier.Load(cfg.Classifier.VectorizerPath, cfg.Classifier.ModelPath)
	if err != nil {
		log.Warn("failed to load classification model, classify requests will fail",
			zap.String("vectorizer", cfg.Classifier.VectorizerPath),
			zap.String("model", cfg.Classifier.ModelPath),
			zap.Error(err))
	} else {
		model = loaded
		log.Info("classification model loaded",
			zap.String("vectorizer", cfg.Classifier.VectorizerPath),
			zap.String("model", cfg.Classifier.ModelPath))
	}

	// 初始化分类结果缓存（可选）
	var cache service.ResultCache
	var redisCache *redisstore.Cache
	if cfg.Redis.Address != "" {
		redisCache, err = redisstore.NewCache(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Classifier.CacheTTL,
		)
		if err != nil {
			log.Warn("failed to connect to redis, classification cache disabled", zap.Error(err))
		} else {
			cache = redisCache
			defer redisCache.Close()
			log.Info("classification cache enabled", zap.String("redis", cfg.Redis.Address))
		}
	}

	// 初始化身份提供方
	var provider identity.Provider
	switch cfg.Identity.Mode {
	case "remote":
		provider = httpapi.New(&cfg.Identity, log)
		log.Info("using remote identity provider", zap.String("base_url", cfg.Identity.BaseURL))
	default:
		provider = local.New(store)
		log.Info("using local identity provider")
	}

	// 监控指标
	metrics := monitoring.NewMetrics()

	// JWT 令牌管理器
	jwtManager := jwtpkg.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessExpiry)
	log.Info("JWT configuration",
		zap.String("issuer", cfg.JWT.Issuer),
		zap.Duration("access_expiry", cfg.JWT.AccessExpiry),
	)

	// WebSocket Hub
	wsHub := websocket.NewHub(cfg.CORS.AllowedOrigins, jwtManager, log)

	// 服务层
	authService := service.NewAuthService(provider, jwtManager, store, metrics, log)
	classifyService := service.NewClassificationService(model, store, cache, wsHub, metrics, log)

	// HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:          cfg,
		AuthService:     authService,
		ClassifyService: classifyService,
		JWTManager:      jwtManager,
		WebSocketHub:    wsHub,
		Metrics:         metrics,
		HealthHandler:   health.New(store, model),
		Logger:          log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// SMTP 服务器（可选）
	var smtpServer *gosmtp.Server
	if cfg.SMTP.Enabled {
		smtpBackend := smtp.NewBackend(classifyService, store, cfg.SMTP.Domain, log)
		smtpServer = gosmtp.NewServer(smtpBackend)
		smtpServer.Addr = cfg.SMTP.BindAddr
		smtpServer.Domain = cfg.SMTP.Domain
		smtpServer.AllowInsecureAuth = cfg.Log.Development
		smtpServer.ReadTimeout = 10 * time.Second
		smtpServer.WriteTimeout = 10 * time.Second
		smtpServer.MaxMessageBytes = 1 * 1024 * 1024
		smtpServer.MaxRecipients = 10
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	if smtpServer != nil {
		group.Go(func() error {
			log.Info("starting SMTP server",
				zap.String("address", cfg.SMTP.BindAddr),
				zap.String("domain", cfg.SMTP.Domain),
			)
			if err := smtpServer.ListenAndServe(); err != nil {
				log.Error("SMTP server error", zap.Error(err))
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		log.Info("starting WebSocket hub")
		wsHub.Run(groupCtx)
		return nil
	})

	// 优雅关闭
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		if smtpServer != nil {
			if err := smtpServer.Close(); err != nil {
				log.Warn("SMTP server close warning", zap.Error(err))
			}
		}

		log.Info("servers stopped")
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}
