package matcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/model"
	"github.com/tollhub/pipeline/internal/platform/bus"
	"github.com/tollhub/pipeline/internal/store"
)

// ReviewQueue is the subset of store.Store the Consumer needs to enqueue
// unresolved events.
type ReviewQueue interface {
	InsertManualReview(ctx context.Context, entry store.ManualReviewEntry) error
}

// Consumer subscribes to every normalized-event subject, resolves each
// event to a vehicle/user via Matcher, and republishes onto the matched
// topic (partitioned by user_id) or enqueues it for manual review.
type Consumer struct {
	bus     *bus.Client
	matcher *Matcher
	review  ReviewQueue
	log     *zap.Logger
}

// NewConsumer constructs a matcher Consumer.
func NewConsumer(busClient *bus.Client, matcher *Matcher, review ReviewQueue, log *zap.Logger) *Consumer {
	return &Consumer{bus: busClient, matcher: matcher, review: review, log: log}
}

// Start launches the durable pull consumer in the background.
func (c *Consumer) Start(ctx context.Context) error {
	return bus.RunPullConsumer(ctx, c.bus, bus.SubjectAllNormalized, "matcher", 32, c.log, c.handle)
}

func (c *Consumer) handle(ctx context.Context, msg *nats.Msg) error {
	var event model.NormalizedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return &bus.PoisonPillError{Msg: fmt.Sprintf("unmarshal normalized event: %v", err)}
	}

	result := c.matcher.Match(ctx, event)
	if !result.Matched {
		entry := store.ManualReviewEntry{
			ID:       uuid.NewString(),
			Event:    event,
			Reason:   result.Notes,
			Priority: 0,
		}
		if err := c.review.InsertManualReview(ctx, entry); err != nil {
			return err // transient: retry
		}
		c.log.Info("routed event to manual review",
			zap.String("agency_id", string(event.AgencyID)),
			zap.String("external_event_id", event.ExternalEventID),
		)
		return nil
	}

	subject := bus.MatchedSubject(result.UserID)
	headers := bus.HeadersFromMsg(msg)
	headers.MessageType = "MatchedEvent"
	headers.MessageID += ":matched"
	if _, err := bus.Publish(c.bus.JS, subject, model.MatchedEvent{Event: event, Result: result}, headers); err != nil {
		return err // transient: retry
	}
	return nil
}
