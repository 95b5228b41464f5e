package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carecircle/backend/internal/auth"
	"github.com/carecircle/backend/internal/cache"
	"github.com/carecircle/backend/internal/config"
	"github.com/carecircle/backend/internal/database"
	"github.com/carecircle/backend/internal/handlers"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/middleware"
	"github.com/carecircle/backend/internal/notifications"
	"github.com/carecircle/backend/internal/storage"
	"github.com/carecircle/backend/internal/telemetry"
	"github.com/carecircle/backend/internal/websocket"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const serviceName = "carecircle-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("=== CareCircle server starting ===", zap.String("environment", cfg.Environment))

	ctx := context.Background()
	tp, err := telemetry.InitTracer(ctx, telemetry.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.Tracing.Endpoint,
		Enabled:      cfg.Tracing.Enabled,
		SamplingRate: cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.WarnWithFields("Tracing disabled", err)
	}
	if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.WarnWithFields("Tracer shutdown", err)
			}
		}()
	}

	if err := database.Initialize(cfg.Database.DSN(), cfg.IsDevelopment()); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()
	if tp != nil {
		if err := database.DB.Use(telemetry.GORMTracingPlugin()); err != nil {
			logger.WarnWithFields("Failed to install gorm tracing", err)
		}
	}
	if err := database.Migrate(database.DB); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	// Redis is optional: without it rate limits and the stats cache stay in process
	var redisClient *cache.RedisClient
	var store cache.Store = cache.NewMemoryStore()
	if cfg.Redis.Enabled() {
		rc, err := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
		if err != nil {
			logger.WarnWithFields("Redis unavailable, using in-memory cache", err)
		} else {
			redisClient = rc
			store = cache.NewRedisStore(rc)
			defer rc.Close()
		}
	}

	var uploader storage.ImageUploader
	if cfg.S3.Enabled() {
		s3Uploader, err := storage.NewS3Uploader(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.BaseURL)
		if err != nil {
			logger.WarnWithFields("Failed to initialize S3 uploader", err)
		} else {
			if err := s3Uploader.CheckBucketAccess(ctx); err != nil {
				logger.WarnWithFields("S3 bucket access check failed", err)
			}
			uploader = s3Uploader
		}
	} else {
		logger.Log.Warn("S3_BUCKET not set - image uploads will return 503")
	}

	authService := auth.NewService(database.DB, []byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)

	hub := websocket.NewHub()

	dispatcher := notifications.NewDispatcher(database.DB, hub, cfg.NotificationWorkers, cfg.NotificationBuffer)
	dispatcher.Start()

	h := handlers.NewHandlers(handlers.Deps{
		DB:       database.DB,
		Auth:     authService,
		Notifier: dispatcher,
		Emitter:  hub,
		Uploader: uploader,
		Cache:    store,
	})
	websocket.RegisterChatHandlers(hub, h.Messaging())
	wsHandler := websocket.NewHandler(hub, authService, cfg.CORSOrigins)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if tp != nil {
		r.Use(middleware.TracingMiddleware(serviceName)...)
	}

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/ws", "/metrics"})))

	r.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if err := database.Health(); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		redisStatus := "disabled"
		if redisClient != nil {
			redisStatus = "ok"
			if err := redisClient.Ping(c.Request.Context()); err != nil {
				redisStatus = "unreachable"
			}
		}
		c.JSON(code, gin.H{
			"status":    status,
			"redis":     redisStatus,
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
			"websocket": hub.Stats(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(redisClient, middleware.RateLimitConfig{
		Limit:  cfg.RateLimit,
		Window: cfg.RateLimitWindow,
	}))
	api.GET("/ws", wsHandler.HandleWebSocket)
	api.POST("/ws/online", middleware.Required(authService), wsHandler.HandleOnlineStatus)
	api.GET("/ws/metrics", middleware.Required(authService), middleware.RequireAdmin(), wsHandler.HandleMetrics)

	h.RegisterRoutes(api, handlers.RouteConfig{
		Required:    middleware.Required(authService),
		Optional:    middleware.Optional(authService),
		AuthLimit:   middleware.RateLimit(redisClient, middleware.AuthRateLimitConfig()),
		UploadLimit: middleware.RateLimit(redisClient, middleware.UploadRateLimitConfig()),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("CareCircle backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}
	if err := hub.Shutdown(shutdownCtx); err != nil {
		logger.WarnWithFields("WebSocket shutdown", err)
	}
	dispatcher.Stop()

	logger.Log.Info("Server exited")
}
