// Package main runs the background job worker (deferred title card rendering).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/richhabits/backend/config"
	"github.com/richhabits/backend/internal/organizations"
	"github.com/richhabits/backend/internal/realtime"
	"github.com/richhabits/backend/internal/titlecard"
	"github.com/richhabits/backend/internal/worker"
	"github.com/richhabits/backend/pkg/database"
	"github.com/richhabits/backend/pkg/queue"
	"github.com/richhabits/backend/pkg/redis"
	"github.com/richhabits/backend/pkg/storage"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Cfg := storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		BrandBucket:     cfg.AWS.BrandBucket,
	}
	s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}
	if cfg.TitleCard.RenderURL == "" {
		logger.Fatal("TITLE_CARD_RENDER_URL is required")
	}

	generator := titlecard.NewGenerator(cfg.TitleCard.RenderURL,
		time.Duration(cfg.TitleCard.TimeoutSeconds)*time.Second, s3Client, logger)

	orgRepo := organizations.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Events still reach connected clients: the worker publishes to Redis and
	// the API instances fan out to their sockets.
	notifier := realtime.NewHub(logger, realtime.NewRedisPubSub(rdb.Client, logger))

	processor := worker.NewTitleCardProcessor(orgRepo, generator, jobQueue, notifier, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
