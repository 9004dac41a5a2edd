// Package middleware provides small Echo middlewares and context-key
// helpers shared by every pipeline admin HTTP server, adapted from
// packages/go-core/middleware.
package middleware

import "context"

type contextKey string

const (
	// CorrelationIDKey is the context key for the request's correlation ID.
	// Bus publishers take the correlation ID from message headers, not from
	// this key.
	CorrelationIDKey contextKey = "correlation_id"
)

// WithCorrelationID returns a new context carrying the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// GetCorrelationID extracts the correlation ID from the context, if any.
func GetCorrelationID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CorrelationIDKey).(string)
	return v, ok
}
