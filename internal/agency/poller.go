package agency

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tollhub/pipeline/internal/model"
	"github.com/tollhub/pipeline/internal/platform/bus"
)

// PollerConfig configures one Connector's poll loop.
type PollerConfig struct {
	Interval            time.Duration
	RateLimitRPM        int
	RateLimitBurst      int
	BackoffInitial      time.Duration
	BackoffMax          time.Duration
	BackoffMaxElapsed   time.Duration
	CircuitFailures     int
	CircuitCooldown     time.Duration
}

// Poller drives a single Connector on a ticker: fetch a page of
// transactions, publish each as a raw event, advance the cursor, and
// publish a health heartbeat — mirroring the reference monorepo's
// ScanPoller.Run/poll structure (apps/discovery-service/internal/worker),
// generalized with a token-bucket limiter, exponential backoff, and a
// circuit breaker around the outbound HTTP call.
type Poller struct {
	connector Connector
	bus       *bus.Client
	cfg       PollerConfig
	log       *zap.Logger

	limiter *rate.Limiter
	breaker *circuitBreaker
	cursor  string
}

// NewPoller constructs a Poller for connector, publishing onto busClient.
func NewPoller(connector Connector, busClient *bus.Client, cfg PollerConfig, log *zap.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	limit := rate.Limit(float64(cfg.RateLimitRPM) / 60.0)
	if cfg.RateLimitRPM <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	return &Poller{
		connector: connector,
		bus:       busClient,
		cfg:       cfg,
		log:       log,
		limiter:   rate.NewLimiter(limit, burst),
		breaker:   newCircuitBreaker(maxInt(cfg.CircuitFailures, 5), orDefault(cfg.CircuitCooldown, 60*time.Second)),
	}
}

// Run blocks until ctx is cancelled, ticking at cfg.Interval.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.log.Info("connector poller started",
		zap.String("agency_id", string(p.connector.AgencyID())),
		zap.Duration("interval", p.cfg.Interval),
	)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("connector poller stopping", zap.String("agency_id", string(p.connector.AgencyID())))
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if !p.breaker.Allow() {
		p.log.Warn("circuit open, skipping poll", zap.String("agency_id", string(p.connector.AgencyID())))
		p.publishHealth(ctx, "circuit_open", "")
		return
	}

	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return
		}

		batch, err := p.fetchWithRetry(ctx)
		if err != nil {
			p.breaker.RecordFailure()
			p.log.Error("connector poll failed",
				zap.String("agency_id", string(p.connector.AgencyID())),
				zap.Error(err),
			)
			p.publishHealth(ctx, "unhealthy", err.Error())
			return
		}
		p.breaker.RecordSuccess()

		for _, raw := range batch.Events {
			if err := p.publishRaw(ctx, raw); err != nil {
				p.log.Error("publish raw event failed",
					zap.String("agency_id", string(p.connector.AgencyID())),
					zap.String("event_id", raw.EventID),
					zap.Error(err),
				)
			}
		}

		p.cursor = batch.NextCursor
		p.publishHealth(ctx, "healthy", "")

		if !batch.HasMore {
			return
		}
	}
}

// fetchWithRetry retries transient/rate-limited failures with exponential
// backoff, re-authenticating once on an auth failure before giving up.
func (p *Poller) fetchWithRetry(ctx context.Context) (TransactionBatch, error) {
	var batch TransactionBatch
	reauthed := false

	op := func() error {
		b, err := p.connector.ListTransactions(ctx, p.cursor)
		if err == nil {
			batch = b
			return nil
		}

		if errors.Is(err, model.ErrAuthFailed) {
			if reauthed {
				return backoff.Permanent(err)
			}
			reauthed = true
			if refreshErr := p.connector.RefreshAuth(ctx); refreshErr != nil {
				_ = p.connector.Authenticate(ctx)
			}
			return err // retry with refreshed credentials
		}

		if errors.Is(err, model.ErrValidation) {
			return backoff.Permanent(err)
		}
		return err // transient or rate-limited: retry
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = orDefault(p.cfg.BackoffInitial, 500*time.Millisecond)
	bo.MaxInterval = orDefault(p.cfg.BackoffMax, 30*time.Second)
	bo.MaxElapsedTime = orDefault(p.cfg.BackoffMaxElapsed, 2*time.Minute)

	err := backoff.Retry(op, backoff.WithContext(bo, ctx))
	return batch, err
}

func (p *Poller) publishRaw(ctx context.Context, raw model.RawEvent) error {
	subject := bus.RawSubject(p.connector.AgencyID())
	h := bus.NewHeaders("RawEvent", "connector-runtime", raw.EventID)
	_, err := bus.Publish(p.bus.JS, subject, raw, h)
	return err
}

type connectorHealth struct {
	AgencyID  model.AgencyID `json:"agency_id"`
	Status    string         `json:"status"`
	Detail    string         `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func (p *Poller) publishHealth(ctx context.Context, status, detail string) {
	h := bus.NewHeaders("ConnectorHealth", "connector-runtime", string(p.connector.AgencyID()))
	payload := connectorHealth{
		AgencyID:  p.connector.AgencyID(),
		Status:    status,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
	if _, err := bus.Publish(p.bus.JS, bus.TopicConnectorHealth, payload, h); err != nil {
		p.log.Warn("publish health heartbeat failed", zap.Error(err))
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
