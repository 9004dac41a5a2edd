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
	"github.com/tollhub/pipeline/internal/store"
)

// CloseStore is the narrow persistence seam CloseHandler depends on.
type CloseStore interface {
	CloseDraft(ctx context.Context, userID string, periodStart time.Time) (model.Statement, error)
}

// CloseHandler subscribes to statements.generate requests and performs the
// actual draft-to-Statement close, then publishes the result on
// statements.closed for downstream billing/notification consumers.
type CloseHandler struct {
	bus   *bus.Client
	store CloseStore
	log   *zap.Logger
}

// NewCloseHandler constructs a CloseHandler.
func NewCloseHandler(busClient *bus.Client, st *store.Store, log *zap.Logger) *CloseHandler {
	return &CloseHandler{bus: busClient, store: st, log: log}
}

// Start launches the durable pull consumer in the background.
func (h *CloseHandler) Start(ctx context.Context) error {
	return bus.RunPullConsumer(ctx, h.bus, bus.TopicStatementsGenerate+".>", "statement-close-handler", 16, h.log, h.handle)
}

func (h *CloseHandler) handle(ctx context.Context, msg *nats.Msg) error {
	var req GenerateRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return &bus.PoisonPillError{Msg: fmt.Sprintf("unmarshal statements.generate request: %v", err)}
	}

	stmt, err := h.store.CloseDraft(ctx, req.UserID, req.PeriodStart)
	if err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			h.log.Debug("statement already closed, skipping", zap.String("user_id", req.UserID))
			return nil
		}
		return err // transient: retry
	}

	subject := bus.StatementsClosedSubject(req.UserID)
	headers := bus.NewHeaders("StatementClosed", "statement-scheduler", req.UserID)
	if _, err := bus.Publish(h.bus.JS, subject, stmt, headers); err != nil {
		return err // transient: retry
	}

	h.log.Info("statement closed",
		zap.String("user_id", stmt.UserID),
		zap.String("statement_id", stmt.ID),
	)
	return nil
}
