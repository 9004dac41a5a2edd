package statement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/model"
	"github.com/tollhub/pipeline/internal/platform/bus"
	"github.com/tollhub/pipeline/internal/platform/config"
	"github.com/tollhub/pipeline/internal/store"
)

// maxAppendAttempts bounds the optimistic-concurrency retry on a draft's
// version, per spec.md §4.6 ("bounded retry (up to 5)").
const maxAppendAttempts = 5

// DraftStore is the narrow persistence seam Persister depends on, satisfied
// by *store.Store in production and a generated mock in tests. PersistRatedEvent
// inserts the TollEvent and appends it to draft inside one transaction, so a
// redelivered duplicate and its draft append always commit or roll back
// together.
type DraftStore interface {
	GetOrCreateDraft(ctx context.Context, userID string, periodStart, periodEnd time.Time, timezone string) (model.StatementDraft, error)
	PersistRatedEvent(ctx context.Context, draft model.StatementDraft, event model.TollEvent) error
}

// Persister subscribes to every rated-event subject, persists each TollEvent,
// and accumulates its rated amount into the user's current statement draft,
// flagging late arrivals per spec.md §4.6.
type Persister struct {
	bus   *bus.Client
	store DraftStore
	cfg   config.StatementConfig
	log   *zap.Logger
}

// NewPersister constructs a Persister.
func NewPersister(busClient *bus.Client, st *store.Store, cfg config.StatementConfig, log *zap.Logger) *Persister {
	return &Persister{bus: busClient, store: st, cfg: cfg, log: log}
}

// Start launches the durable pull consumer in the background.
func (p *Persister) Start(ctx context.Context) error {
	return bus.RunPullConsumer(ctx, p.bus, bus.SubjectAllRated, "persister", 32, p.log, p.handle)
}

func (p *Persister) handle(ctx context.Context, msg *nats.Msg) error {
	var event model.TollEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return &bus.PoisonPillError{Msg: fmt.Sprintf("unmarshal rated event: %v", err)}
	}

	start, end := Bounds(event.EventTimestamp, p.cfg)
	draft, err := p.store.GetOrCreateDraft(ctx, event.UserID, start, end, "UTC")
	if err != nil {
		return err // transient: retry
	}

	if draft.Status == "closed" {
		event.LateArrival = true
		nextStart, nextEnd := NextBounds(end, p.cfg)
		draft, err = p.store.GetOrCreateDraft(ctx, event.UserID, nextStart, nextEnd, "UTC")
		if err != nil {
			return err
		}
	}

	event.Status = model.StatusPosted

	for attempt := 1; ; attempt++ {
		err := p.store.PersistRatedEvent(ctx, draft, event)
		if err == nil {
			return nil
		}
		if errors.Is(err, model.ErrDuplicate) {
			p.log.Debug("rated event already persisted, skipping",
				zap.String("agency_id", string(event.AgencyID)),
				zap.String("external_event_id", event.ExternalEventID),
			)
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err // transient: retry whole message
		}
		if attempt >= maxAppendAttempts {
			return fmt.Errorf("%w: statement draft append for user %s exceeded %d attempts",
				model.ErrTransient, draft.UserID, maxAppendAttempts)
		}

		draft, err = p.store.GetOrCreateDraft(ctx, draft.UserID, draft.PeriodStart, draft.PeriodEnd, draft.Timezone)
		if err != nil {
			return err
		}
	}
}
