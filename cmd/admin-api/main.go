// Command admin-api serves the Health & Metrics admin surface (spec.md
// §4.8): aggregated connector health, the Prometheus /metrics scrape
// endpoint, and the manual-review queue API operators use to resolve
// events the Matcher couldn't place automatically.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/health"
	"github.com/tollhub/pipeline/internal/platform/bootstrap"
	"github.com/tollhub/pipeline/internal/platform/bus"
	"github.com/tollhub/pipeline/internal/platform/config"
	"github.com/tollhub/pipeline/internal/platform/middleware"
	"github.com/tollhub/pipeline/internal/platform/telemetry"
	"github.com/tollhub/pipeline/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		if tp, err := telemetry.InitTracer(ctx, "admin-api", endpoint); err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	cfg := config.Load()
	secrets := bootstrap.LoadSecrets(logger, "admin-api")
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
	registry := health.NewRegistry(busClient, metrics, logger)
	if err := registry.Start(ctx); err != nil {
		logger.Fatal("health registry failed to start", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware("admin-api"))
	e.Use(middleware.NullToEmptyArray())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			logger.Info("HTTP request", zap.String("URI", v.URI), zap.Int("status", v.Status))
			return nil
		},
	}))
	e.Use(echoMiddleware.Recover())

	listManualReview := func(limit int) ([]store.ManualReviewEntry, error) {
		return st.ListManualReview(context.Background(), limit)
	}
	deleteManualReview := func(id string) error {
		return st.DeleteManualReview(context.Background(), id)
	}
	health.RegisterRoutes(e, registry, listManualReview, deleteManualReview, logger)

	port := bootstrap.GetEnv("ADMIN_API_PORT", "8090")
	go func() {
		logger.Info("admin-api HTTP server listening", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failure", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("admin-api shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown error", zap.Error(err))
	}
	logger.Info("admin-api shut down cleanly")
}
