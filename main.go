package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carauctiongo/internal/cache/viewcache"
	"carauctiongo/internal/config"
	"carauctiongo/internal/database/db_client"
	"carauctiongo/internal/http/http_server"
	"carauctiongo/internal/redis/redis_client"
	"carauctiongo/internal/repository/auctionrepo"
	"carauctiongo/internal/repository/vehiclerepo"
	"carauctiongo/internal/services/composer"

	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (view cache)
	redisClient, err := redis_client.NewRedisClient(cfg.RedisViewsHost, int(cfg.RedisViewsPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// 4. Postgres db client
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	// 5. Repository adapters with bounded query timeouts
	queryTimeout := time.Duration(cfg.StoreQueryTimeoutMillis) * time.Millisecond
	auctionRepo := auctionrepo.New(pgDb, queryTimeout)
	vehicleRepo := vehiclerepo.New(pgDb, queryTimeout)

	// 6. View cache + composition service
	viewCache := viewcache.New(redisClient)
	composerSvc := composer.NewComposerService(
		auctionRepo,
		vehicleRepo,
		viewCache,
		time.Duration(cfg.CacheDetailTTLSeconds)*time.Second,
		time.Duration(cfg.CacheListTTLSeconds)*time.Second,
		cfg.BidMinIncrement,
	)

	// 7. HTTP server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, composerSvc)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
