package rater

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/model"
	"github.com/tollhub/pipeline/internal/platform/bus"
)

// Consumer subscribes to every matched-event subject, rates each event, and
// republishes the resulting TollEvent onto the rated topic (still
// partitioned by user_id) for the Persister to pick up.
type Consumer struct {
	bus   *bus.Client
	rater *Rater
	log   *zap.Logger
}

// NewConsumer constructs a rater Consumer.
func NewConsumer(busClient *bus.Client, rater *Rater, log *zap.Logger) *Consumer {
	return &Consumer{bus: busClient, rater: rater, log: log}
}

// Start launches the durable pull consumer in the background.
func (c *Consumer) Start(ctx context.Context) error {
	return bus.RunPullConsumer(ctx, c.bus, bus.SubjectAllMatched, "rater", 32, c.log, c.handle)
}

func (c *Consumer) handle(ctx context.Context, msg *nats.Msg) error {
	var matched model.MatchedEvent
	if err := json.Unmarshal(msg.Data, &matched); err != nil {
		return &bus.PoisonPillError{Msg: fmt.Sprintf("unmarshal matched event: %v", err)}
	}

	ratedAmount, err := c.rater.Rate(ctx, matched.Event, matched.Result)
	if err != nil {
		return err // transient: retry
	}

	now := time.Now().UTC()
	event := matched.Event
	tollEvent := model.TollEvent{
		ID:              uuid.NewString(),
		UserID:          matched.Result.UserID,
		VehicleID:       matched.Result.VehicleID,
		AgencyID:        event.AgencyID,
		ExternalEventID: event.ExternalEventID,
		Plate:           event.Plate,
		PlateState:      event.PlateState,
		EventTimestamp:  event.EventTimestamp,
		GantryID:        event.GantryID,
		Location:        event.Location,
		VehicleClass:    event.VehicleClass,
		RawAmount:       event.RawAmount,
		RatedAmount:     ratedAmount,
		Fees:            event.Fees,
		Currency:        event.Currency,
		EvidenceURI:     event.EvidenceURI,
		Source:          event.Source,
		Status:          model.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	subject := bus.RatedSubject(tollEvent.UserID)
	headers := bus.HeadersFromMsg(msg)
	headers.MessageType = "RatedEvent"
	headers.MessageID += ":rated"
	if _, err := bus.Publish(c.bus.JS, subject, tollEvent, headers); err != nil {
		return err // transient: retry
	}
	return nil
}
