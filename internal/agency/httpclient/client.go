// Package httpclient is the HTTP transport shared by every agency
// connector: a newRequest/doJSON pair adapted from the reference
// monorepo's internal/client.httpScannerClient, generalized so a connector
// supplies its own auth-header function instead of a single fixed bearer
// token (etoll refreshes an OAuth2 token; expresstoll sends a static API
// key header).
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tollhub/pipeline/internal/model"
)

// AuthFunc returns the header name/value pair to attach to every outbound
// request (e.g. "Authorization"/"Bearer <token>" or "X-Api-Key"/"<key>").
type AuthFunc func() (header, value string, err error)

// Client is a small JSON-over-HTTP transport bound to one agency's base URL.
type Client struct {
	BaseURL    string
	HTTP       *http.Client
	Auth       AuthFunc
}

// New constructs a Client with a conservative default timeout, matching
// the 30s timeout the reference monorepo's scanner client applies.
func New(baseURL string, auth AuthFunc) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Auth:    auth,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("httpclient: marshal request body: %w", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, buf)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.Auth != nil {
		header, value, err := c.Auth()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrAuthFailed, err)
		}
		if header != "" {
			req.Header.Set(header, value)
		}
	}
	return req, nil
}

// DoJSON executes a request built from method/path/body and decodes a
// successful response into dest (nil dest skips decoding). Non-2xx
// responses are classified into the platform's sentinel error taxonomy so
// connector/poller callers can decide retry vs. terminate.
func (c *Client) DoJSON(ctx context.Context, method, path string, body, dest any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: http do: %v", model.ErrTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", model.ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", model.ErrRateLimited, string(raw))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", model.ErrAuthFailed, string(raw))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", model.ErrTransient, resp.StatusCode, string(raw))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d: %s", model.ErrValidation, resp.StatusCode, string(raw))
	}

	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("httpclient: unmarshal response: %w", err)
		}
	}
	return nil
}
