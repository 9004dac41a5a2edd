// Command persister runs the Persister & Statement Aggregator stage
// (spec.md §4.6): durably store each rated TollEvent, accumulate it into
// the user's current statement draft, and close drafts out into immutable
// Statements on a daily cron sweep.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/platform/bootstrap"
	"github.com/tollhub/pipeline/internal/platform/bus"
	"github.com/tollhub/pipeline/internal/platform/config"
	"github.com/tollhub/pipeline/internal/platform/telemetry"
	"github.com/tollhub/pipeline/internal/statement"
	"github.com/tollhub/pipeline/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		if tp, err := telemetry.InitTracer(ctx, "persister", endpoint); err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	cfg := config.Load()
	secrets := bootstrap.LoadSecrets(logger, "persister")
	natsURL := bootstrap.SecretOr(secrets, "NATS_URL", bootstrap.GetEnv("NATS_URL", "nats://127.0.0.1:4222"))
	dbURL := bootstrap.SecretOr(secrets, "PG_URL", cfg.DB.URL)

	busClient, err := bus.NewClient(natsURL, logger)
	if err != nil {
		logger.Fatal("NATS connection failed", zap.Error(err))
	}
	defer busClient.Close()
	if err := busClient.ProvisionStreams(); err != nil {
		logger.Fatal("NATS stream provisioning failed", zap.Error(err))
	}

	st, err := store.Open(ctx, dbURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer st.Close()

	persister := statement.NewPersister(busClient, st, cfg.Statement, logger)
	if err := persister.Start(ctx); err != nil {
		logger.Fatal("persister consumer failed to start", zap.Error(err))
	}

	closeHandler := statement.NewCloseHandler(busClient, st, logger)
	if err := closeHandler.Start(ctx); err != nil {
		logger.Fatal("statement close handler failed to start", zap.Error(err))
	}

	scheduler := statement.NewScheduler(busClient, st, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("statement scheduler failed to start", zap.Error(err))
	}
	defer scheduler.Stop()

	logger.Info("persister started")
	<-ctx.Done()
	logger.Info("persister shutting down")
}
