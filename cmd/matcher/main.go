// Command matcher runs the Matcher stage (spec.md §4.4): resolve each
// NormalizedEvent to a (user_id, vehicle_id) via exact, fuzzy, or
// time+location matching, publish matched events, and route the rest to
// the manual-review queue. Also runs the vehicle-catalog replica sync that
// keeps the exact-match cache current.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/matcher"
	"github.com/tollhub/pipeline/internal/platform/bootstrap"
	"github.com/tollhub/pipeline/internal/platform/bus"
	"github.com/tollhub/pipeline/internal/platform/config"
	"github.com/tollhub/pipeline/internal/platform/telemetry"
	"github.com/tollhub/pipeline/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		if tp, err := telemetry.InitTracer(ctx, "matcher", endpoint); err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	cfg := config.Load()
	secrets := bootstrap.LoadSecrets(logger, "matcher")
	natsURL := bootstrap.SecretOr(secrets, "NATS_URL", bootstrap.GetEnv("NATS_URL", "nats://127.0.0.1:4222"))
	redisAddr := bootstrap.SecretOr(secrets, "REDIS_ADDR", bootstrap.GetEnv("REDIS_ADDR", "127.0.0.1:6379"))
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

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()
	cache := matcher.NewVehicleCache(rdb)

	m := matcher.New(st, cache, cfg.Matcher, logger)
	consumer := matcher.NewConsumer(busClient, m, st, logger)
	if err := consumer.Start(ctx); err != nil {
		logger.Fatal("matcher consumer failed to start", zap.Error(err))
	}

	sync := matcher.NewVehicleSync(busClient, st, cache, logger)
	if err := sync.Start(ctx); err != nil {
		logger.Fatal("vehicle sync failed to start", zap.Error(err))
	}

	logger.Info("matcher started")
	<-ctx.Done()
	logger.Info("matcher shutting down")
}
