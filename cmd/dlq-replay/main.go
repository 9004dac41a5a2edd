// Command dlq-replay runs the bounded dead-letter replay tool (spec.md
// §4.7): read dead-letter-queue entries and republish each onto its
// original subject, up to a fixed retry cap, after which an entry is
// acknowledged and dropped with a warning log; the admin API has no
// dead-letter endpoint.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/dlq"
	"github.com/tollhub/pipeline/internal/platform/bootstrap"
	"github.com/tollhub/pipeline/internal/platform/bus"
	"github.com/tollhub/pipeline/internal/platform/telemetry"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		if tp, err := telemetry.InitTracer(ctx, "dlq-replay", endpoint); err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	secrets := bootstrap.LoadSecrets(logger, "dlq-replay")
	natsURL := bootstrap.SecretOr(secrets, "NATS_URL", bootstrap.GetEnv("NATS_URL", "nats://127.0.0.1:4222"))

	busClient, err := bus.NewClient(natsURL, logger)
	if err != nil {
		logger.Fatal("NATS connection failed", zap.Error(err))
	}
	defer busClient.Close()
	if err := busClient.ProvisionStreams(); err != nil {
		logger.Fatal("NATS stream provisioning failed", zap.Error(err))
	}

	replayer := dlq.NewReplayer(busClient, logger)
	if err := replayer.Start(ctx); err != nil {
		logger.Fatal("dlq replayer failed to start", zap.Error(err))
	}

	logger.Info("dlq-replay started", zap.Int("max_retries", dlq.MaxRetries))
	<-ctx.Done()
	logger.Info("dlq-replay shutting down")
}
