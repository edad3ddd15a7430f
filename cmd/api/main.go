package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-sales-orders/internal/config"
	"github.com/ariefcatur/go-sales-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-sales-orders/internal/kafka"
	"github.com/ariefcatur/go-sales-orders/internal/logging"
	"github.com/ariefcatur/go-sales-orders/internal/ordercache"
	"github.com/ariefcatur/go-sales-orders/internal/postgres"
	"github.com/ariefcatur/go-sales-orders/internal/redisx"
	"github.com/ariefcatur/go-sales-orders/internal/salesorders"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "apply the schema and exit")
	seed := flag.Bool("seed", false, "insert sample clients and items")
	flag.Parse()

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

	if err := run(ctx, cfg, logger, *migrateOnly, *seed); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrateOnly, seed bool) error {
	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.PoolOptions{})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate || migrateOnly {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("schema applied")
	}
	if seed {
		if err := postgres.Seed(ctx, db); err != nil {
			return err
		}
		logger.Info("sample data seeded")
	}
	if migrateOnly {
		return nil
	}

	svc := salesorders.NewService(&salesorders.Repo{DB: db}, logger.Named("salesorders"))
	oh := &httpx.OrdersHandler{
		Service:     svc,
		ServiceName: cfg.ServiceName,
		Log:         logger,
	}

	// Redis view cache
	if cfg.RedisAddr != "" {
		rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("order view cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			oh.Cache = ordercache.New(rdb, cfg.CacheTTL)
		}
	}

	// Kafka producer
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		prod := kafkax.NewProducer(brokers, cfg.KafkaTopic, 1024, logger.Named("kafka"))
		prod.Start()
		defer func() {
			if err := prod.Close(); err != nil {
				logger.Warn("kafka producer close", zap.Error(err))
			}
		}()
		oh.Producer = prod
	}

	router := httpx.NewRouter(httpx.RouterConfig{
		CORSOrigin:     cfg.CORSOrigin,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	}, oh, &httpx.CatalogHandler{Service: svc, Log: logger})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.Bool("cache", oh.Cache != nil),
			zap.Bool("events", oh.Producer != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
