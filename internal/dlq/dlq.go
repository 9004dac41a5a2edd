// Package dlq implements the bounded replay half of the dead-letter path
// spec.md §4.7 requires. Capture of a terminated poison-pill message onto
// the dead-letter-queue subject happens inline in
// internal/platform/bus.dispatch (to avoid a cycle between the consumer
// dispatch path and this package); Replayer here reads that subject back
// and republishes each entry onto its original subject up to a configured
// retry cap.
package dlq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/platform/bus"
)

// Entry mirrors the payload the bus package captures on the
// dead-letter-queue subject.
type Entry struct {
	OriginalSubject string          `json:"original_subject"`
	Reason          string          `json:"reason"`
	Payload         json.RawMessage `json:"payload"`
}

// MaxRetries bounds how many times the replay tool will republish one
// dead-lettered message before giving up on it permanently.
const MaxRetries = 5

// Replayer consumes the dead-letter-queue subject and republishes each
// entry onto its original subject, up to MaxRetries attempts.
type Replayer struct {
	bus *bus.Client
	log *zap.Logger
}

// NewReplayer constructs a Replayer.
func NewReplayer(busClient *bus.Client, log *zap.Logger) *Replayer {
	return &Replayer{bus: busClient, log: log}
}

// Start launches the durable pull consumer in the background.
func (r *Replayer) Start(ctx context.Context) error {
	return bus.RunPullConsumer(ctx, r.bus, bus.TopicDeadLetter, "dlq-replay", 16, r.log, r.handle)
}

func (r *Replayer) handle(ctx context.Context, msg *nats.Msg) error {
	var entry Entry
	if err := json.Unmarshal(msg.Data, &entry); err != nil {
		return &bus.PoisonPillError{Msg: fmt.Sprintf("unmarshal dlq entry: %v", err)}
	}

	retryCount := bus.RetryCount(msg)
	if retryCount >= MaxRetries {
		r.log.Warn("dropping dead letter, retry cap reached",
			zap.String("original_subject", entry.OriginalSubject),
			zap.Int("retry_count", retryCount),
		)
		return nil // Ack: give up on this entry permanently
	}

	h := bus.HeadersFromMsg(msg)
	h.MessageType = "ReplayedEvent"

	republished := &nats.Msg{
		Subject: entry.OriginalSubject,
		Data:    entry.Payload,
		Header:  h.NatsHeader(),
	}
	republished.Header.Set(bus.HeaderRetryCount, fmt.Sprintf("%d", retryCount+1))

	if _, err := r.bus.JS.PublishMsg(republished, nats.MsgId(h.MessageID+":replay:"+fmt.Sprint(retryCount+1))); err != nil {
		return fmt.Errorf("dlq: republish to %s: %w", entry.OriginalSubject, err)
	}

	r.log.Info("replayed dead letter",
		zap.String("original_subject", entry.OriginalSubject),
		zap.Int("retry_count", retryCount+1),
	)
	return nil
}
