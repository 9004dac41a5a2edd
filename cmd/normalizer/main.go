// Command normalizer runs the Dedup & Normalizer stage (spec.md §4.3):
// consume raw events, suppress redeliveries via the Redis-backed dedup
// store, map each agency's payload into a canonical NormalizedEvent, and
// republish onto the normalized topic.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/dedup"
	"github.com/tollhub/pipeline/internal/normalize"
	"github.com/tollhub/pipeline/internal/platform/bootstrap"
	"github.com/tollhub/pipeline/internal/platform/bus"
	"github.com/tollhub/pipeline/internal/platform/config"
	"github.com/tollhub/pipeline/internal/platform/telemetry"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		if tp, err := telemetry.InitTracer(ctx, "normalizer", endpoint); err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	cfg := config.Load()
	secrets := bootstrap.LoadSecrets(logger, "normalizer")
	natsURL := bootstrap.SecretOr(secrets, "NATS_URL", bootstrap.GetEnv("NATS_URL", "nats://127.0.0.1:4222"))
	redisAddr := bootstrap.SecretOr(secrets, "REDIS_ADDR", bootstrap.GetEnv("REDIS_ADDR", "127.0.0.1:6379"))
	redisPassword := bootstrap.SecretOr(secrets, "REDIS_PASSWORD", "")

	busClient, err := bus.NewClient(natsURL, logger)
	if err != nil {
		logger.Fatal("NATS connection failed", zap.Error(err))
	}
	defer busClient.Close()
	if err := busClient.ProvisionStreams(); err != nil {
		logger.Fatal("NATS stream provisioning failed", zap.Error(err))
	}

	dedupStore, err := dedup.NewStore(redisAddr, redisPassword, 0, cfg.Dedup.DedupTTL())
	if err != nil {
		logger.Fatal("dedup store connection failed", zap.Error(err))
	}
	defer dedupStore.Close()

	consumer := normalize.NewConsumer(busClient, dedupStore, logger)
	if err := consumer.Start(ctx); err != nil {
		logger.Fatal("normalize consumer failed to start", zap.Error(err))
	}

	logger.Info("normalizer started")
	<-ctx.Done()
	logger.Info("normalizer shutting down")
}
