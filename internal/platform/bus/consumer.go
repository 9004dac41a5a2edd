package bus

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// PoisonPillError marks a message as structurally unrecoverable. Handler
// implementations return this (instead of a plain error) for malformed
// payloads so RunPullConsumer terminates the message rather than
// redelivering it — the same Ack/Nak/Term split used by every consumer in
// the reference monorepo (audit-service, trm-service, privacy-service).
type PoisonPillError struct{ Msg string }

func (e *PoisonPillError) Error() string { return "poison pill: " + e.Msg }

// Handler processes one bus message. A *PoisonPillError return terminates
// the message; any other error NAKs it for redelivery; nil Acks it.
type Handler func(ctx context.Context, msg *nats.Msg) error

// RunPullConsumer creates a durable pull subscription bound to the platform
// stream and launches the fetch/dispatch loop in a background goroutine. It
// returns immediately, mirroring Start(ctx) on every teacher consumer
// (DictionaryConsumer, AuditConsumer, ConsentConsumer, GlobalAuditConsumer).
//
// batchSize messages are fetched per round-trip; a Fetch timeout (empty
// queue) is not treated as an error.
func RunPullConsumer(ctx context.Context, c *Client, subjectFilter, durableName string, batchSize int, logger *zap.Logger, handle Handler) error {
	sub, err := c.JS.PullSubscribe(
		subjectFilter,
		durableName,
		nats.BindStream(StreamTollEvents),
	)
	if err != nil {
		return err
	}

	logger.Info("consumer initialised",
		zap.String("stream", StreamTollEvents),
		zap.String("durable", durableName),
		zap.String("subject", subjectFilter),
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("consumer stopping", zap.String("durable", durableName))
				return
			default:
				msgs, err := sub.Fetch(batchSize, nats.Context(ctx))
				if err != nil {
					continue // nats.ErrTimeout on an empty queue is not an error
				}
				for _, msg := range msgs {
					dispatch(ctx, c.JS, msg, durableName, logger, handle)
				}
			}
		}
	}()

	return nil
}

func dispatch(ctx context.Context, js nats.JetStreamContext, msg *nats.Msg, durableName string, logger *zap.Logger, handle Handler) {
	err := handle(ctx, msg)
	if err == nil {
		msg.Ack()
		return
	}

	if ppe, ok := err.(*PoisonPillError); ok {
		logger.Warn("terminating poison-pill message",
			zap.String("durable", durableName),
			zap.String("subject", msg.Subject),
			zap.Error(ppe),
		)
		if captureErr := captureDeadLetter(js, msg, ppe.Error()); captureErr != nil {
			logger.Error("failed to capture dead letter", zap.Error(captureErr))
		}
		msg.Term()
		return
	}

	logger.Error("NAK message (transient error)",
		zap.String("durable", durableName),
		zap.String("subject", msg.Subject),
		zap.Error(err),
	)
	msg.Nak()
}

// deadLetterEntry is the payload captured on the dead-letter-queue subject
// for a terminated poison-pill message. Kept in this package (rather than
// internal/dlq) to avoid a dependency cycle between the consumer dispatch
// path and the replay tool, which only needs to read this same shape back.
type deadLetterEntry struct {
	OriginalSubject string          `json:"original_subject"`
	Reason          string          `json:"reason"`
	Payload         json.RawMessage `json:"payload"`
}

func captureDeadLetter(js nats.JetStreamContext, msg *nats.Msg, reason string) error {
	h := HeadersFromMsg(msg)
	h.MessageType = "DeadLetterEntry"
	h.MessageID += ":dead-letter"

	entry := deadLetterEntry{
		OriginalSubject: msg.Subject,
		Reason:          reason,
		Payload:         msg.Data,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	out := &nats.Msg{Subject: TopicDeadLetter, Data: data, Header: h.NatsHeader()}
	if rc := msg.Header.Get(HeaderRetryCount); rc != "" {
		out.Header.Set(HeaderRetryCount, rc)
	}
	_, err = js.PublishMsg(out, nats.MsgId(h.MessageID))
	return err
}
