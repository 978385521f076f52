package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/quotagate/quotagate/configs"
	"github.com/quotagate/quotagate/internal/application/services"
	"github.com/quotagate/quotagate/internal/core/domain/quota"
	"github.com/quotagate/quotagate/internal/core/ports"
	"github.com/quotagate/quotagate/internal/infrastructure/db"
	"github.com/quotagate/quotagate/internal/infrastructure/health"
	"github.com/quotagate/quotagate/internal/infrastructure/httpserver"
	"github.com/quotagate/quotagate/internal/infrastructure/identity"
	"github.com/quotagate/quotagate/internal/infrastructure/metrics"
	"github.com/quotagate/quotagate/internal/infrastructure/redis"
	"github.com/quotagate/quotagate/internal/infrastructure/repositories"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting quotagate...")

	// Initialize database (apply pool settings from config)
	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	logger.Info("Connected to database successfully")

	// Run migrations
	if err := database.Migrate("./migrations"); err != nil {
		logger.Warn("Failed to run migrations:", err)
	}

	// Select the bucket store backend
	var bucketRepo ports.BucketRepository
	healthCheckers := []ports.HealthChecker{health.NewDBHealthChecker(database)}

	switch cfg.Quota.Backend {
	case "redis":
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis:", err)
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis successfully")
		bucketRepo = repositories.NewRedisBucketRepository(redisClient, cfg.Quota.KeyPrefix, cfg.Quota.BucketTTL, logger)
		healthCheckers = append(healthCheckers, health.NewRedisHealthChecker(redisClient))
	case "memory":
		logger.Warn("Using in-memory bucket store; quota counters will not survive a restart")
		bucketRepo = repositories.NewMemoryBucketRepository()
	default:
		bucketRepo = repositories.NewPostgresBucketRepository(database, logger)
	}

	// Repositories
	auditRepo := repositories.NewAuditRepository(database, logger)
	documentStore := repositories.NewDocumentRepository(database, logger)
	accountRepo := repositories.NewAccountRepository(database, logger)

	// Identity provider collaborator
	idProvider := identity.NewJWTProvider(cfg.Identity.JWTSecret, cfg.Identity.Issuer, logger)

	// Services
	registry := quota.DefaultRegistry()
	rateLimiter := services.NewRateLimiterService(bucketRepo, registry, nil, logger)
	resolver := services.NewSecurityContextResolverService(idProvider, accountRepo, logger)
	auditService := services.NewAuditService(auditRepo, logger)
	guard := services.NewGuardService(resolver, rateLimiter, documentStore, auditService, metrics.NewRecorder(), logger)

	// Retention sweep for the bucket store
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go runRetentionSweep(sweepCtx, bucketRepo, cfg.Quota.SweepInterval, cfg.Quota.SweepStaleAfter, logger)

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
	}

	deps := httpserver.ServerDeps{
		Guard:          guard,
		RateLimiter:    rateLimiter,
		Resolver:       resolver,
		AuditService:   auditService,
		HealthCheckers: healthCheckers,
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}

// runRetentionSweep periodically removes stale buckets and clears lapsed
// blocks.
func runRetentionSweep(ctx context.Context, repo ports.BucketRepository, interval, staleAfter time.Duration, logger *logrus.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := repo.PurgeExpired(ctx, staleAfter)
			if err != nil {
				logger.WithError(err).Warn("bucket retention sweep failed")
				continue
			}
			if removed > 0 {
				logger.WithField("removed", removed).Info("bucket retention sweep completed")
			}
		}
	}
}
