package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tollhub/pipeline/internal/model"
)

func serverReturning(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestDoJSON_Success(t *testing.T) {
	srv := serverReturning(200, `{"ok":true}`)
	defer srv.Close()

	c := New(srv.URL, nil)
	var dest struct {
		OK bool `json:"ok"`
	}
	err := c.DoJSON(context.Background(), "GET", "/x", nil, &dest)
	require.NoError(t, err)
	assert.True(t, dest.OK)
}

func TestDoJSON_TooManyRequestsIsRateLimited(t *testing.T) {
	srv := serverReturning(http.StatusTooManyRequests, "slow down")
	defer srv.Close()

	err := New(srv.URL, nil).DoJSON(context.Background(), "GET", "/x", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRateLimited)
}

func TestDoJSON_UnauthorizedIsAuthFailed(t *testing.T) {
	srv := serverReturning(http.StatusUnauthorized, "nope")
	defer srv.Close()

	err := New(srv.URL, nil).DoJSON(context.Background(), "GET", "/x", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrAuthFailed)
}

func TestDoJSON_ServerErrorIsTransient(t *testing.T) {
	srv := serverReturning(http.StatusBadGateway, "boom")
	defer srv.Close()

	err := New(srv.URL, nil).DoJSON(context.Background(), "GET", "/x", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTransient)
}

func TestDoJSON_ClientErrorIsValidation(t *testing.T) {
	srv := serverReturning(http.StatusBadRequest, "malformed")
	defer srv.Close()

	err := New(srv.URL, nil).DoJSON(context.Background(), "GET", "/x", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestDoJSON_AuthFuncFailureIsAuthFailed(t *testing.T) {
	srv := serverReturning(200, `{}`)
	defer srv.Close()

	authErr := assert.AnError
	c := New(srv.URL, func() (string, string, error) { return "", "", authErr })
	err := c.DoJSON(context.Background(), "GET", "/x", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrAuthFailed)
}

func TestDoJSON_AuthHeaderAttached(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c := New(srv.URL, func() (string, string, error) { return "Authorization", "Bearer tok123", nil })
	err := c.DoJSON(context.Background(), "GET", "/x", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", seen)
}
