// Package bus wraps a NATS JetStream connection as the platform's durable,
// partitioned Event Bus Abstraction (spec.md §4.2). It is the generalization
// of the reference monorepo's packages/go-core/natsclient: one JetStream
// stream backs every topic, and per-stage pull consumers get per-subject
// ordering the same way the teacher's per-service consumers did, because a
// single durable consumer processes one subject-token sequence in order.
package bus

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	// StreamTollEvents is the durable stream backing every pipeline topic.
	StreamTollEvents = "TOLL_EVENTS"
)

var streamSubjects = []string{
	"toll.events.>",
	"statements.>",
	"connector.health",
	"dead-letter-queue",
	"vehicle.updated",
}

// Client wraps a NATS connection and its JetStream context, mirroring
// packages/go-core/natsclient.Client.
type Client struct {
	Conn *nats.Conn
	JS   nats.JetStreamContext
	Log  *zap.Logger
}

// NewClient connects to NATS and initialises a JetStream context.
func NewClient(url string, logger *zap.Logger) (*Client, error) {
	nc, err := nats.Connect(url, nats.RetryOnFailedConnect(true), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	logger.Info("NATS JetStream connected", zap.String("url", url))
	return &Client{Conn: nc, JS: js, Log: logger}, nil
}

// Close drains and closes the underlying NATS connection. Drain flushes all
// pending JetStream publish acknowledgments and outstanding subscription
// deliveries before closing — unlike Close, which drops in-flight messages.
func (c *Client) Close() {
	if c.Conn != nil {
		if err := c.Conn.Drain(); err != nil {
			c.Conn.Close()
		}
	}
}

// ProvisionStreams idempotently ensures the TOLL_EVENTS JetStream stream
// exists with the correct subject filter. No-op if a stream with that name
// already exists; an existing stream's configuration is not compared or
// updated.
func (c *Client) ProvisionStreams() error {
	_, err := c.JS.StreamInfo(StreamTollEvents)
	if err == nil {
		c.Log.Info("NATS stream already exists", zap.String("stream", StreamTollEvents))
		return nil
	}
	if err != nats.ErrStreamNotFound {
		return fmt.Errorf("stream info: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamTollEvents,
		Subjects:  streamSubjects,
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    0, // no age limit: messages are not expired by age
	}

	if _, err := c.JS.AddStream(cfg); err != nil {
		return fmt.Errorf("create stream: %w", err)
	}

	c.Log.Info("NATS stream provisioned",
		zap.String("stream", StreamTollEvents),
		zap.Strings("subjects", streamSubjects),
	)
	return nil
}
