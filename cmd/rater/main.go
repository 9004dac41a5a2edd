// Command rater runs the Rater stage (spec.md §4.5): look up the tariff for
// each matched event's (agency, location, vehicle class) and compute its
// rated_amount, falling through to raw_amount when no tariff is on file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/health"
	"github.com/tollhub/pipeline/internal/platform/bootstrap"
	"github.com/tollhub/pipeline/internal/platform/bus"
	"github.com/tollhub/pipeline/internal/platform/config"
	"github.com/tollhub/pipeline/internal/platform/telemetry"
	"github.com/tollhub/pipeline/internal/rater"
	"github.com/tollhub/pipeline/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		if tp, err := telemetry.InitTracer(ctx, "rater", endpoint); err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	cfg := config.Load()
	secrets := bootstrap.LoadSecrets(logger, "rater")
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

	metrics := health.NewMetrics()
	r := rater.New(st, metrics, logger)
	consumer := rater.NewConsumer(busClient, r, logger)
	if err := consumer.Start(ctx); err != nil {
		logger.Fatal("rater consumer failed to start", zap.Error(err))
	}

	logger.Info("rater started")
	<-ctx.Done()
	logger.Info("rater shutting down")
}
