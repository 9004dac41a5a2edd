// Package agency defines the capability contract every tolling-authority
// connector implements, plus the shared poller, rate limiter, circuit
// breaker, and connector registry that drive any concrete connector the same
// way, adapted from the reference monorepo's ScannerClient/ScanPoller pair
// (apps/discovery-service/internal/client, internal/worker).
package agency

import (
	"context"

	"github.com/tollhub/pipeline/internal/model"
)

// TransactionBatch is one page of raw events returned by ListTransactions.
type TransactionBatch struct {
	Events     []model.RawEvent
	NextCursor string
	HasMore    bool
}

// Connector is the capability set every agency integration implements,
// per spec.md §4.1: initialize, authenticate, refresh credentials, list
// transactions (paginated), fetch supporting evidence, and report health.
type Connector interface {
	// AgencyID returns the stable identifier this connector polls for.
	AgencyID() model.AgencyID

	// Initialize performs one-time setup (loading secrets, validating
	// configuration) before the connector is polled for the first time.
	Initialize(ctx context.Context) error

	// Authenticate obtains fresh credentials (an OAuth2 token, a signed
	// session, …). Called once after Initialize and again whenever
	// RefreshAuth reports the credential can no longer be renewed in place.
	Authenticate(ctx context.Context) error

	// RefreshAuth renews the current credential if it is close to expiry.
	// Returns model.ErrAuthFailed if the credential must be re-obtained via
	// a full Authenticate call.
	RefreshAuth(ctx context.Context) error

	// ListTransactions fetches the next page of raw toll transactions after
	// cursor (empty cursor starts from the connector's configured backfill
	// point). Returns model.ErrRateLimited / model.ErrTransient / model.ErrAuthFailed
	// as appropriate so the poller can classify the failure.
	ListTransactions(ctx context.Context, cursor string) (TransactionBatch, error)

	// FetchEvidence retrieves a durable URI for the supporting image/video
	// evidence of a single external event, if the agency exposes one.
	FetchEvidence(ctx context.Context, externalEventID string) (string, error)

	// HealthProbe performs a lightweight reachability check against the
	// agency endpoint, independent of the polling cursor.
	HealthProbe(ctx context.Context) error
}
