// Package etoll implements the agency.Connector contract for a toll
// authority that authenticates with OAuth2 client-credentials, modeled on
// the reference monorepo's httpScannerClient wired through an
// Authorization: Bearer header.
package etoll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tollhub/pipeline/internal/agency"
	"github.com/tollhub/pipeline/internal/agency/httpclient"
	"github.com/tollhub/pipeline/internal/model"
)

const defaultTokenLeeway = 60 * time.Second

// Config holds the per-agency-instance settings an etoll Connector needs.
type Config struct {
	AgencyID     model.AgencyID
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// Connector polls an etoll-style agency feed.
type Connector struct {
	cfg Config
	hc  *httpclient.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// New constructs an etoll Connector. Initialize must be called before use.
func New(cfg Config) *Connector {
	c := &Connector{cfg: cfg}
	c.hc = httpclient.New(cfg.BaseURL, c.authHeader)
	return c
}

func (c *Connector) AgencyID() model.AgencyID { return c.cfg.AgencyID }

func (c *Connector) authHeader() (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken == "" {
		return "", "", fmt.Errorf("%w: no access token, call Authenticate first", model.ErrAuthFailed)
	}
	return "Authorization", "Bearer " + c.accessToken, nil
}

func (c *Connector) Initialize(ctx context.Context) error {
	if c.cfg.TokenURL == "" || c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return fmt.Errorf("%w: etoll connector requires token_url, client_id, client_secret", model.ErrConfiguration)
	}
	return c.Authenticate(ctx)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Authenticate performs the OAuth2 client-credentials grant.
func (c *Connector) Authenticate(ctx context.Context) error {
	body := map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
	}

	tokenClient := httpclient.New(c.cfg.TokenURL, nil)
	var resp tokenResponse
	if err := tokenClient.DoJSON(ctx, "POST", "", body, &resp); err != nil {
		return fmt.Errorf("%w: etoll token request: %v", model.ErrAuthFailed, err)
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("%w: etoll token response missing access_token", model.ErrAuthFailed)
	}

	c.mu.Lock()
	c.accessToken = resp.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	c.mu.Unlock()
	return nil
}

// RefreshAuth re-authenticates when the token is within defaultTokenLeeway
// of expiring; otherwise it is a no-op.
func (c *Connector) RefreshAuth(ctx context.Context) error {
	c.mu.Lock()
	stale := time.Now().Add(defaultTokenLeeway).After(c.expiresAt)
	c.mu.Unlock()

	if !stale {
		return nil
	}
	return c.Authenticate(ctx)
}

type listTransactionsResponse struct {
	Transactions []transactionDTO `json:"transactions"`
	NextCursor   string           `json:"next_cursor"`
	HasMore      bool             `json:"has_more"`
}

type transactionDTO struct {
	EventID string         `json:"event_id"`
	Payload map[string]any `json:"payload"`
}

// ListTransactions fetches the next page of raw toll passes for this agency.
func (c *Connector) ListTransactions(ctx context.Context, cursor string) (agency.TransactionBatch, error) {
	path := "/transactions"
	if cursor != "" {
		path += "?cursor=" + cursor
	}

	var resp listTransactionsResponse
	if err := c.hc.DoJSON(ctx, "GET", path, nil, &resp); err != nil {
		return agency.TransactionBatch{}, err
	}

	events := make([]model.RawEvent, 0, len(resp.Transactions))
	for _, tx := range resp.Transactions {
		events = append(events, model.RawEvent{
			EventID:    tx.EventID,
			AgencyID:   c.cfg.AgencyID,
			ReceivedAt: time.Now().UTC(),
			Source:     model.SourceAgencyFeed,
			Payload:    tx.Payload,
		})
	}

	return agency.TransactionBatch{
		Events:     events,
		NextCursor: resp.NextCursor,
		HasMore:    resp.HasMore,
	}, nil
}

type evidenceResponse struct {
	EvidenceURI string `json:"evidence_uri"`
}

// FetchEvidence retrieves the durable evidence URI for one external event.
func (c *Connector) FetchEvidence(ctx context.Context, externalEventID string) (string, error) {
	var resp evidenceResponse
	path := "/transactions/" + externalEventID + "/evidence"
	if err := c.hc.DoJSON(ctx, "GET", path, nil, &resp); err != nil {
		return "", err
	}
	return resp.EvidenceURI, nil
}

// HealthProbe performs a lightweight reachability check.
func (c *Connector) HealthProbe(ctx context.Context) error {
	return c.hc.DoJSON(ctx, "GET", "/health", nil, nil)
}
