// Package expresstoll implements the agency.Connector contract for a toll
// authority that authenticates with a static API key sent as a header,
// the simpler sibling of package etoll's OAuth2 client-credentials flow.
package expresstoll

import (
	"context"
	"fmt"
	"time"

	"github.com/tollhub/pipeline/internal/agency"
	"github.com/tollhub/pipeline/internal/agency/httpclient"
	"github.com/tollhub/pipeline/internal/model"
)

// Config holds the per-agency-instance settings an expresstoll Connector needs.
type Config struct {
	AgencyID  model.AgencyID
	BaseURL   string
	APIKey    string
	KeyHeader string // defaults to "X-Api-Key" when empty
}

// Connector polls an expresstoll-style agency feed.
type Connector struct {
	cfg Config
	hc  *httpclient.Client
}

// New constructs an expresstoll Connector.
func New(cfg Config) *Connector {
	if cfg.KeyHeader == "" {
		cfg.KeyHeader = "X-Api-Key"
	}
	c := &Connector{cfg: cfg}
	c.hc = httpclient.New(cfg.BaseURL, func() (string, string, error) {
		if cfg.APIKey == "" {
			return "", "", fmt.Errorf("%w: expresstoll connector has no api key configured", model.ErrAuthFailed)
		}
		return cfg.KeyHeader, cfg.APIKey, nil
	})
	return c
}

func (c *Connector) AgencyID() model.AgencyID { return c.cfg.AgencyID }

func (c *Connector) Initialize(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return fmt.Errorf("%w: expresstoll connector requires an api_key", model.ErrConfiguration)
	}
	return c.HealthProbe(ctx)
}

// Authenticate is a no-op: the API key is static and carried on every request.
func (c *Connector) Authenticate(ctx context.Context) error { return nil }

// RefreshAuth is a no-op for the same reason.
func (c *Connector) RefreshAuth(ctx context.Context) error { return nil }

type listTransactionsResponse struct {
	Items      []transactionDTO `json:"items"`
	NextCursor string           `json:"next_cursor"`
	HasMore    bool             `json:"has_more"`
}

type transactionDTO struct {
	TxnID   string         `json:"txn_id"`
	Payload map[string]any `json:"payload"`
}

// ListTransactions fetches the next page of raw toll passes for this agency.
func (c *Connector) ListTransactions(ctx context.Context, cursor string) (agency.TransactionBatch, error) {
	path := "/v2/passes"
	if cursor != "" {
		path += "?page_token=" + cursor
	}

	var resp listTransactionsResponse
	if err := c.hc.DoJSON(ctx, "GET", path, nil, &resp); err != nil {
		return agency.TransactionBatch{}, err
	}

	events := make([]model.RawEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, model.RawEvent{
			EventID:    item.TxnID,
			AgencyID:   c.cfg.AgencyID,
			ReceivedAt: time.Now().UTC(),
			Source:     model.SourceAgencyFeed,
			Payload:    item.Payload,
		})
	}

	return agency.TransactionBatch{
		Events:     events,
		NextCursor: resp.NextCursor,
		HasMore:    resp.HasMore,
	}, nil
}

type evidenceResponse struct {
	ImageURL string `json:"image_url"`
}

// FetchEvidence retrieves the durable evidence URI for one external event.
func (c *Connector) FetchEvidence(ctx context.Context, externalEventID string) (string, error) {
	var resp evidenceResponse
	if err := c.hc.DoJSON(ctx, "GET", "/v2/passes/"+externalEventID+"/image", nil, &resp); err != nil {
		return "", err
	}
	return resp.ImageURL, nil
}

// HealthProbe performs a lightweight reachability check.
func (c *Connector) HealthProbe(ctx context.Context) error {
	return c.hc.DoJSON(ctx, "GET", "/v2/ping", nil, nil)
}
