package statement

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/platform/bus"
	"github.com/tollhub/pipeline/internal/store"
)

// SweepStore is the narrow persistence seam Scheduler depends on.
type SweepStore interface {
	ListDraftsDueForClose(ctx context.Context, asOf time.Time) ([]store.DueDraft, error)
}

// Scheduler ticks daily, finds every draft whose period has ended, and
// publishes a statements.generate message per user so the CloseHandler
// (running in any Persister replica) performs the actual close — the same
// "cron publishes a tick, a separate consumer does the work" split
// notification-service's CronScheduler uses for SYSTEM_EVENTS.cron.*.
type Scheduler struct {
	cron  *cron.Cron
	bus   *bus.Client
	store SweepStore
	log   *zap.Logger
}

// NewScheduler constructs a Scheduler. Call Start to begin ticking.
func NewScheduler(busClient *bus.Client, st *store.Store, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		bus:   busClient,
		store: st,
		log:   log,
	}
}

// GenerateRequest is the payload published on statements.generate.
type GenerateRequest struct {
	UserID      string    `json:"user_id"`
	PeriodStart time.Time `json:"period_start"`
}

// Start registers the daily period-close sweep and starts ticking.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@daily", s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("statement period-close scheduler started")
	return nil
}

// Stop gracefully stops the scheduler, waiting for any in-flight tick.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("statement period-close scheduler stopped")
}

func (s *Scheduler) sweep() {
	ctx := context.Background()

	due, err := s.store.ListDraftsDueForClose(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("list drafts due for close failed", zap.Error(err))
		return
	}

	for _, d := range due {
		subject := bus.StatementsGenerateSubject(d.UserID)
		headers := bus.NewHeaders("StatementGenerateRequest", "statement-scheduler", d.UserID)
		payload := GenerateRequest{UserID: d.UserID, PeriodStart: d.PeriodStart}
		if _, err := bus.Publish(s.bus.JS, subject, payload, headers); err != nil {
			s.log.Error("publish statements.generate failed",
				zap.String("user_id", d.UserID),
				zap.Error(err),
			)
			continue
		}
	}

	s.log.Info("period-close sweep complete", zap.Int("drafts_due", len(due)))
}
