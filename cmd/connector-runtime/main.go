// Command connector-runtime polls every configured agency feed on its own
// schedule, authenticating, paginating, and publishing RawEvents onto the
// bus — the Connector Runtime component of spec.md §4.1. Bootstrap follows
// the reference monorepo's cmd/worker/main.go shape (Vault secrets, NATS
// JetStream, signal-based graceful shutdown).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/agency"
	"github.com/tollhub/pipeline/internal/agency/etoll"
	"github.com/tollhub/pipeline/internal/agency/expresstoll"
	"github.com/tollhub/pipeline/internal/model"
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
		if tp, err := telemetry.InitTracer(ctx, "connector-runtime", endpoint); err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	secrets := bootstrap.LoadSecrets(logger, "connector-runtime")
	natsURL := bootstrap.SecretOr(secrets, "NATS_URL", bootstrap.GetEnv("NATS_URL", "nats://127.0.0.1:4222"))

	busClient, err := bus.NewClient(natsURL, logger)
	if err != nil {
		logger.Fatal("NATS connection failed", zap.Error(err))
	}
	defer busClient.Close()
	if err := busClient.ProvisionStreams(); err != nil {
		logger.Fatal("NATS stream provisioning failed", zap.Error(err))
	}

	registry := agency.NewRegistry()
	registry.Register(etoll.New(etoll.Config{
		AgencyID:     model.AgencyID("etoll"),
		BaseURL:      bootstrap.GetEnv("ETOLL_BASE_URL", "https://api.etoll.example.com"),
		TokenURL:     bootstrap.GetEnv("ETOLL_TOKEN_URL", "https://api.etoll.example.com/oauth/token"),
		ClientID:     bootstrap.SecretOr(secrets, "ETOLL_CLIENT_ID", bootstrap.GetEnv("ETOLL_CLIENT_ID", "")),
		ClientSecret: bootstrap.SecretOr(secrets, "ETOLL_CLIENT_SECRET", bootstrap.GetEnv("ETOLL_CLIENT_SECRET", "")),
	}))
	registry.Register(expresstoll.New(expresstoll.Config{
		AgencyID: model.AgencyID("expresstoll"),
		BaseURL:  bootstrap.GetEnv("EXPRESSTOLL_BASE_URL", "https://api.expresstoll.example.com"),
		APIKey:   bootstrap.SecretOr(secrets, "EXPRESSTOLL_API_KEY", bootstrap.GetEnv("EXPRESSTOLL_API_KEY", "")),
	}))

	for _, connector := range registry.All() {
		if err := connector.Initialize(ctx); err != nil {
			logger.Fatal("connector initialize failed",
				zap.String("agency_id", string(connector.AgencyID())), zap.Error(err))
		}
		if err := connector.Authenticate(ctx); err != nil {
			logger.Fatal("connector authenticate failed",
				zap.String("agency_id", string(connector.AgencyID())), zap.Error(err))
		}

		poller := agency.NewPoller(connector, busClient, pollerConfig(connector.AgencyID()), logger)
		go poller.Run(ctx)
	}

	logger.Info("connector-runtime started", zap.Int("agencies", len(registry.All())))
	<-ctx.Done()
	logger.Info("connector-runtime shutting down")
}

func pollerConfig(agencyID model.AgencyID) agency.PollerConfig {
	prefix := envPrefix(agencyID)
	return agency.PollerConfig{
		Interval:          time.Duration(bootstrap.GetEnvInt(prefix+"POLL_INTERVAL_S", 30)) * time.Second,
		RateLimitRPM:      bootstrap.GetEnvInt(prefix+"RATE_LIMIT_RPM", 120),
		RateLimitBurst:    bootstrap.GetEnvInt(prefix+"RATE_LIMIT_BURST", 10),
		BackoffInitial:    200 * time.Millisecond,
		BackoffMax:        30 * time.Second,
		BackoffMaxElapsed: 2 * time.Minute,
		CircuitFailures:   5,
		CircuitCooldown:   60 * time.Second,
	}
}

func envPrefix(agencyID model.AgencyID) string {
	switch agencyID {
	case "etoll":
		return "ETOLL_"
	case "expresstoll":
		return "EXPRESSTOLL_"
	default:
		return ""
	}
}
