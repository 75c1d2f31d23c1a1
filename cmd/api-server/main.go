// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rentdesk/internal/api"
	"rentdesk/internal/auth"
	"rentdesk/internal/common/config"
	"rentdesk/internal/common/crm"
	"rentdesk/internal/common/database"
	"rentdesk/internal/common/geocode"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/common/notify"
	"rentdesk/internal/common/observability"
	"rentdesk/internal/common/storage"
	"rentdesk/internal/service"
	"rentdesk/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting API server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry (geocode cache) ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init External Service Clients ---
	uploader, err := storage.NewUploader(ctx, cfg.Storage.S3, log)
	if err != nil {
		zapLog.Fatal("S3 uploader init failed", zap.Error(err))
	}

	notifier, err := notify.New(ctx, cfg.Notifications, log)
	if err != nil {
		zapLog.Fatal("notifier init failed", zap.Error(err))
	}

	geocoder := geocode.New(cfg.Geocoding, redis.Client, log)
	crmClient := crm.New(cfg.Integrations.CRM, log)

	zapLog.Info("All external service clients initialized")

	// --- Stores and services ---
	db := pg.GetDB()
	properties := store.NewPropertyStore(db, log)
	applications := store.NewApplicationStore(db, log)
	leases := store.NewLeaseStore(db, log)
	users := store.NewUserStore(db, log)

	propertySvc := service.NewPropertyService(db, properties, users, uploader, geocoder, log)
	applicationSvc := service.NewApplicationService(db, applications, leases, users, properties, notifier, log)
	profileSvc := service.NewProfileService(users, crmClient, log)

	gate := auth.NewGate(cfg.Auth, log)

	server := api.NewServer(cfg.Server, gate, api.Handlers{
		Properties:   api.NewPropertyHandler(propertySvc, log),
		Applications: api.NewApplicationHandler(applicationSvc, log),
		Profiles:     api.NewProfileHandler(profileSvc, log),
	}, obs, log)

	go func() {
		if err := server.Start(); err != nil {
			zapLog.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
