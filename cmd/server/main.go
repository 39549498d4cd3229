// Package main runs the business management HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/richhabits/backend/config"
	"github.com/richhabits/backend/internal/auth"
	"github.com/richhabits/backend/internal/health"
	"github.com/richhabits/backend/internal/middleware"
	"github.com/richhabits/backend/internal/orders"
	"github.com/richhabits/backend/internal/organizations"
	"github.com/richhabits/backend/internal/realtime"
	"github.com/richhabits/backend/internal/sports"
	"github.com/richhabits/backend/internal/titlecard"
	"github.com/richhabits/backend/internal/worker"
	"github.com/richhabits/backend/pkg/database"
	"github.com/richhabits/backend/pkg/queue"
	"github.com/richhabits/backend/pkg/redis"
	"github.com/richhabits/backend/pkg/storage"
	"github.com/richhabits/backend/pkg/telemetry"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			BrandBucket:     cfg.AWS.BrandBucket,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub)
	cancelSub, err := redisPubSub.Subscribe(hub)
	if err != nil {
		logger.Fatal("pubsub subscribe", zap.Error(err))
	}
	defer cancelSub()

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	var titleCards organizations.TitleCardGenerator
	var generator *titlecard.Generator
	if s3Client != nil && cfg.TitleCard.RenderURL != "" {
		generator = titlecard.NewGenerator(cfg.TitleCard.RenderURL,
			time.Duration(cfg.TitleCard.TimeoutSeconds)*time.Second, s3Client, logger)
		titleCards = generator
	} else {
		logger.Warn("title card generation disabled")
	}

	var defaultActor *uuid.UUID
	if cfg.Service.DefaultActorID != "" {
		id, err := uuid.Parse(cfg.Service.DefaultActorID)
		if err != nil {
			logger.Fatal("invalid DEFAULT_ACTOR_ID", zap.Error(err))
		}
		defaultActor = &id
	}

	// Organizations
	orgRepo := organizations.NewRepository(pool)
	orgService := organizations.NewService(orgRepo, titleCards, hub, jobQueue, metrics, defaultActor, logger)
	orgHandler := organizations.NewHandler(orgService)

	// Sports programs
	sportRepo := sports.NewRepository(pool)
	sportHandler := sports.NewHandler(sportRepo, orgRepo, hub)

	// Clothing orders
	orderRepo := orders.NewRepository(pool)
	orderHandler := orders.NewHandler(orderRepo, orgRepo, hub)

	healthHandler := health.NewHandler(pool, orgRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(metrics))

	router.GET("/api/health", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(middleware.Actor(jwtService))
	{
		orgHandler.Register(api)
		sportHandler.Register(api)
		orderHandler.Register(api)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWS(hub, jwtService, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (deferred title card rendering)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if generator != nil {
		processor := worker.NewTitleCardProcessor(orgRepo, generator, jobQueue, hub, logger)
		go processor.Run(workerCtx)
		logger.Info("title card worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
