package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/beanhouse/commerce/internal/adapter/handler"
	"github.com/beanhouse/commerce/internal/adapter/scheduler"
	"github.com/beanhouse/commerce/internal/adapter/storage"
	"github.com/beanhouse/commerce/internal/config"
	"github.com/beanhouse/commerce/internal/core/service"
	"github.com/beanhouse/commerce/internal/pkg/metrics"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.With().Str("service", "commerce").Logger()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open mysql")
	}
	db.SetMaxOpenConns(cfg.MySQLMaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQLMaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping mysql")
	}
	log.Info().Msg("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	log.Info().Msg("connected to redis")

	// Adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)

	// Core services
	coreMetrics := metrics.NewCoreMetrics(prometheus.DefaultRegisterer)
	inventoryService := service.NewInventoryService(mysqlAdapter)
	orderService := service.NewOrderService(mysqlAdapter, mysqlAdapter, mysqlAdapter, coreMetrics, cfg.CutoffHour)
	batchService := service.NewBatchService(mysqlAdapter, coreMetrics, cfg.CutoffHour)
	customerService := service.NewCustomerService(mysqlAdapter, mysqlAdapter, coreMetrics, time.Duration(cfg.PurgeGrace))
	cartService := service.NewCartService(redisAdapter, mysqlAdapter)

	// Schedulers
	sched := scheduler.New(batchService, customerService, cfg.CutoffHour, time.Duration(cfg.PurgeInterval))
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sched.StartSettlementLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		sched.StartPurgeLoop(ctx)
	}()

	// HTTP server
	mux := http.NewServeMux()
	httpHandler := handler.NewHTTPHandler(orderService, batchService, customerService, cartService, inventoryService)
	httpHandler.Register(mux)
	mux.Handle("/metrics", metrics.Handler())

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	cancel()
	wg.Wait()
	log.Info().Msg("schedulers stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info().Msg("http server stopped")

	rdb.Close()
	db.Close()
	log.Info().Msg("connections closed")
}
