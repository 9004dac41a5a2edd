package model

import "errors"

// Sentinel errors shared across every stage, wrapped with fmt.Errorf("%w: ...")
// at the call site, matching the ErrNotFound/ErrInvalidInput convention used
// throughout the platform's service layer.
var (
	// ErrTransient marks errors that should be retried in place (network,
	// timeout, 5xx, broker unavailable).
	ErrTransient = errors.New("transient error")
	// ErrRateLimited marks 429/Retry-After responses.
	ErrRateLimited = errors.New("rate limited")
	// ErrAuthFailed marks expired/revoked credentials.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrValidation marks a malformed payload that can never succeed on
	// retry; messages carrying this error are routed to the DLQ.
	ErrValidation = errors.New("validation error")
	// ErrDuplicate marks a logical conflict (unique-violation) that should
	// be treated as success, not failure.
	ErrDuplicate = errors.New("duplicate event")
	// ErrConfiguration marks missing endpoints/secrets; fails startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing entity lookup (vehicle, rate config, …).
	ErrNotFound = errors.New("not found")
)
