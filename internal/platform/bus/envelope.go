package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Header names from spec.md §6, carried on every bus message.
const (
	HeaderMessageID     = "message_id"
	HeaderMessageType   = "message_type"
	HeaderSchemaVersion = "schema_version"
	HeaderCorrelationID = "correlation_id"
	HeaderProducedAt    = "produced_at"
	HeaderSource        = "source"
	HeaderRetryCount    = "retry_count"
	// HeaderOriginalSubject names a header for the subject a dead-lettered
	// message was first published to. No publisher sets it: captureDeadLetter
	// records that subject in the entry's original_subject field, which is
	// where the DLQ replay tool reads it.
	HeaderOriginalSubject = "original_subject"
)

// SchemaVersion is the current additive-only schema revision stamped on
// every message this pipeline publishes (see SPEC_FULL.md Open Questions §1).
const SchemaVersion = "1.0"

// Headers is the header envelope spec.md §6 requires on every bus message.
type Headers struct {
	MessageID     string
	MessageType   string
	SchemaVersion string
	CorrelationID string
	ProducedAt    time.Time
	Source        string
}

// NewHeaders builds a Headers value with a fresh message_id and the current
// schema version, ready to be filled in with MessageType/CorrelationID/Source.
func NewHeaders(messageType, source, correlationID string) Headers {
	return Headers{
		MessageID:     uuid.NewString(),
		MessageType:   messageType,
		SchemaVersion: SchemaVersion,
		CorrelationID: correlationID,
		ProducedAt:    time.Now().UTC(),
		Source:        source,
	}
}

// NatsHeader builds the wire nats.Header representation of h, exported so
// tools outside this package (the DLQ replay binary) can construct a
// republish message carrying the same envelope.
func (h Headers) NatsHeader() nats.Header {
	hdr := nats.Header{}
	hdr.Set(HeaderMessageID, h.MessageID)
	hdr.Set(HeaderMessageType, h.MessageType)
	hdr.Set(HeaderSchemaVersion, h.SchemaVersion)
	hdr.Set(HeaderCorrelationID, h.CorrelationID)
	hdr.Set(HeaderProducedAt, h.ProducedAt.Format(time.RFC3339))
	hdr.Set(HeaderSource, h.Source)
	return hdr
}

// HeadersFromMsg reconstructs a Headers value from an inbound *nats.Msg.
func HeadersFromMsg(msg *nats.Msg) Headers {
	producedAt, _ := time.Parse(time.RFC3339, msg.Header.Get(HeaderProducedAt))
	return Headers{
		MessageID:     msg.Header.Get(HeaderMessageID),
		MessageType:   msg.Header.Get(HeaderMessageType),
		SchemaVersion: msg.Header.Get(HeaderSchemaVersion),
		CorrelationID: msg.Header.Get(HeaderCorrelationID),
		ProducedAt:    producedAt,
		Source:        msg.Header.Get(HeaderSource),
	}
}

// Publish marshals payload as JSON and publishes it to subject with the
// given headers attached, using JetStream's idempotent-producer path
// (Nats-Msg-Id) keyed on MessageID so that a redelivered publish is a no-op
// on the broker side — the producer half of "idempotent producers + idempotent
// consumers combine to give effectively-once processing" (spec.md §4.2).
func Publish(js nats.JetStreamContext, subject string, payload any, h Headers) (*nats.PubAck, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("bus: marshal payload: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  h.NatsHeader(),
	}
	ack, err := js.PublishMsg(msg, nats.MsgId(h.MessageID))
	if err != nil {
		return nil, fmt.Errorf("bus: publish %s: %w", subject, err)
	}
	return ack, nil
}

// RetryCount returns the redelivery count header a DLQ replay tool stamps
// onto a republished message, defaulting to 0 for first-generation messages.
func RetryCount(msg *nats.Msg) int {
	v := msg.Header.Get(HeaderRetryCount)
	if v == "" {
		return 0
	}
	var n int
	_, _ = fmt.Sscanf(v, "%d", &n)
	return n
}
