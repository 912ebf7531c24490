// Command adminpanel runs the admin panel API server with audit capture.
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/adminpanel/pkg/api"
	"github.com/platinummonkey/adminpanel/pkg/audit"
	"github.com/platinummonkey/adminpanel/pkg/auth"
	"github.com/platinummonkey/adminpanel/pkg/config"
	"github.com/platinummonkey/adminpanel/pkg/middleware"
	"github.com/platinummonkey/adminpanel/pkg/observability"
	"github.com/platinummonkey/adminpanel/pkg/storage/postgres"
	"github.com/platinummonkey/adminpanel/pkg/users"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("starting adminpanel")

	db, err := postgres.Connect(cfg.Database)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	auditDB, err := postgres.ConnectAuditWriter(cfg.Database)
	if err != nil {
		logger.WithError(err).Error("failed to connect audit writer pool")
		os.Exit(1)
	}
	defer auditDB.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	metrics := observability.NewMetrics(nil)

	// The recorder and query service always count; the flag only gates the
	// scrape endpoint and per-request instrumentation.
	var serverMetrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		serverMetrics = metrics
	}

	userStore, err := users.NewStore(db, logger)
	if err != nil {
		logger.WithError(err).Error("failed to initialize user store")
		os.Exit(1)
	}

	auditStore, err := audit.NewDBStore(auditDB, logger)
	if err != nil {
		logger.WithError(err).Error("failed to initialize audit store")
		os.Exit(1)
	}

	recorder := audit.NewRecorder(auditStore, userStore, logger, metrics, cfg.Audit.MaxConcurrentWrites)
	auditService := audit.NewService(auditStore, logger, metrics)

	validator := auth.NewTokenValidator(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)

	var rateLimiter *middleware.DistributedRateLimiter
	if redisClient != nil {
		rateLimiter = middleware.NewDistributedRateLimiter(redisClient, nil, "adminpanel")
	}

	server := api.NewServer(cfg.Server, api.Deps{
		Logger:      logger,
		Metrics:     serverMetrics,
		Health:      observability.NewHealthChecker(db, redisClient),
		Users:       users.NewHandler(userStore, logger),
		Audit:       audit.NewHandler(auditService, logger),
		Recorder:    recorder,
		Auth:        middleware.NewAuthMiddleware(validator, false),
		RateLimiter: rateLimiter,
	})

	// Audit persistence is best-effort: writes after response commit may be
	// lost on failure or shutdown, and that is accepted.
	logger.Info("audit capture enabled (best-effort, post-response)")

	go reportPoolStats(db, metrics)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("server failed")
			os.Exit(1)
		}
	case sig := <-stop:
		logger.WithField("signal", sig.String()).Info("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("graceful shutdown failed")
			os.Exit(1)
		}
	}

	logger.Info("adminpanel stopped")
}

// reportPoolStats feeds connection pool gauges from sql.DB stats
func reportPoolStats(db *sql.DB, metrics *observability.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats := db.Stats()
		metrics.DBConnectionsActive.Set(float64(stats.InUse))
		metrics.DBConnectionsIdle.Set(float64(stats.Idle))
	}
}
