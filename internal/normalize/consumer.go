package normalize

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/dedup"
	"github.com/tollhub/pipeline/internal/model"
	"github.com/tollhub/pipeline/internal/platform/bus"
)

// Consumer subscribes to every raw-event subject, de-duplicates, normalizes,
// and republishes onto the normalized topic, partitioned by
// (agency_id, plate, plate_state) so one vehicle's events stay in order for
// the Matcher stage.
type Consumer struct {
	bus   *bus.Client
	dedup *dedup.Store
	log   *zap.Logger
}

// NewConsumer constructs a normalize Consumer.
func NewConsumer(busClient *bus.Client, dedupStore *dedup.Store, log *zap.Logger) *Consumer {
	return &Consumer{bus: busClient, dedup: dedupStore, log: log}
}

// Start launches the durable pull consumer in the background.
func (c *Consumer) Start(ctx context.Context) error {
	return bus.RunPullConsumer(ctx, c.bus, bus.SubjectAllRaw, "normalizer", 32, c.log, c.handle)
}

func (c *Consumer) handle(ctx context.Context, msg *nats.Msg) error {
	var raw model.RawEvent
	if err := json.Unmarshal(msg.Data, &raw); err != nil {
		return &bus.PoisonPillError{Msg: fmt.Sprintf("unmarshal raw event: %v", err)}
	}

	duplicate, err := c.dedup.SeenOrMark(ctx, raw.AgencyID, raw.EventID)
	if err != nil {
		return err // transient: let the broker redeliver
	}
	if duplicate {
		c.log.Debug("dropping duplicate raw event",
			zap.String("agency_id", string(raw.AgencyID)),
			zap.String("event_id", raw.EventID),
		)
		return nil
	}

	normalized, err := Normalize(raw)
	if err != nil {
		c.log.Warn("dropping unnormalizable raw event",
			zap.String("agency_id", string(raw.AgencyID)),
			zap.String("event_id", raw.EventID),
			zap.Error(err),
		)
		return &bus.PoisonPillError{Msg: err.Error()}
	}

	subject := bus.NormalizedSubject(normalized.AgencyID, normalized.Plate, normalized.PlateState)
	headers := bus.HeadersFromMsg(msg)
	headers.MessageType = "NormalizedEvent"
	headers.MessageID += ":normalized"
	if _, err := bus.Publish(c.bus.JS, subject, normalized, headers); err != nil {
		return err // transient: retry
	}
	return nil
}
