// Package main is the entry point for the FurCoin clicker server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MRamiBalles/furcoin-clicker/internal/engine"
	"github.com/MRamiBalles/furcoin-clicker/internal/events"
	"github.com/MRamiBalles/furcoin-clicker/internal/infra/cache"
	"github.com/MRamiBalles/furcoin-clicker/internal/infra/storage"
	"github.com/MRamiBalles/furcoin-clicker/internal/network"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/config"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/logger"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/metrics"
)

func main() {
	configDir := flag.String("config", ".", "Directory containing clicker.env")
	flag.Parse()

	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	appLogger := logger.NewLogger()
	appLogger.Info("Initializing FurCoin clicker server...")

	cfg, err := config.Load(*configDir)
	if err != nil {
		appLogger.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Errorf("Failed to open %s store: %v", cfg.StoreDriver, err)
		os.Exit(1)
	}
	defer closeStore()

	collector := metrics.Get()
	eventLog := events.NewEventLog(events.DefaultCapacity)

	appLogger.Info("Bootstrapping engine...")
	eng := engine.NewEngine(store, eventLog, appLogger,
		engine.WithMetrics(collector),
		engine.WithIntervals(cfg.TickInterval, cfg.LeaderboardInterval),
		engine.WithSaveTimeout(cfg.SaveTimeout),
	)
	report := eng.Bootstrap(ctx)
	if report.Income > 0 {
		appLogger.Infof("Welcome back: %.0f coins earned over %v offline", report.Income, report.Credited)
	}
	eng.Start(ctx)

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(eng, appLogger, collector, network.HubOptions{
		SendBuffer:           cfg.ClientSendBuffer,
		MaxMessagesPerSecond: cfg.MaxMessagesPerSecond,
		MaxClients:           cfg.MaxClients,
	})
	go hub.Run(ctx)
	hub.StartStatePusher(ctx, cfg.TickInterval)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           network.NewAPI(eng, hub, appLogger, collector).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLogger.Infof("HTTP API & WS Server listening on %s (store: %s)", cfg.HTTPAddr, cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Errorf("Server failed: %v", err)
			cancel()
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Warnf("HTTP shutdown: %v", err)
	}
	eng.Stop()
	cancel()
}

// openStore builds the configured persistence backend.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (storage.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		log.Infof("Initializing SQLite database '%s'...", cfg.SQLitePath)
		db, err := storage.InitSQLite(cfg.SQLitePath, cfg.DBMaxOpenConns)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewSQLiteStore(db), func() { db.Close() }, nil

	case config.DriverPostgres:
		log.Info("Connecting to Postgres...")
		db, err := storage.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return storage.NewPostgresStore(db), closeFn, nil

	case config.DriverRedis:
		log.Infof("Connecting to Redis at %s...", cfg.RedisAddr)
		dialCtx, cancel := context.WithTimeout(ctx, cfg.SaveTimeout)
		defer cancel()
		client, closeFn, err := cache.Dial(dialCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPoolSize)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisStore(client, "clicker"), func() { closeFn() }, nil

	default:
		log.Warn("Using in-memory store; progress is lost on exit.")
		return storage.NewMemoryStore(), func() {}, nil
	}
}
