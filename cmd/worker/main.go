// Command worker consumes sales order events and keeps the Redis order view
// cache warm.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-sales-orders/internal/config"
	kafkax "github.com/ariefcatur/go-sales-orders/internal/kafka"
	"github.com/ariefcatur/go-sales-orders/internal/logging"
	"github.com/ariefcatur/go-sales-orders/internal/ordercache"
	"github.com/ariefcatur/go-sales-orders/internal/postgres"
	"github.com/ariefcatur/go-sales-orders/internal/redisx"
	"github.com/ariefcatur/go-sales-orders/internal/salesorders"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if cfg.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required")
	}

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.PoolOptions{MaxConns: int32(cfg.WorkerCount) + 1})
	if err != nil {
		return err
	}
	defer db.Close()

	// Redis
	rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer rdb.Close()

	svc := salesorders.NewService(&salesorders.Repo{DB: db}, logger.Named("salesorders"))
	warmer := ordercache.NewWarmer(svc, ordercache.New(rdb, cfg.CacheTTL), cfg.WorkerGroup, logger.Named("warmer"))
	cons := kafkax.NewConsumer(brokers, cfg.WorkerGroup, cfg.KafkaTopic, cfg.WorkerCount, logger.Named("kafka"))

	logger.Info("order cache worker started",
		zap.String("group", cfg.WorkerGroup),
		zap.String("topic", cfg.KafkaTopic),
		zap.Int("workers", cfg.WorkerCount))
	err = cons.Start(ctx, warmer.HandleMessage)
	logger.Info("order cache worker stopped")
	return err
}
