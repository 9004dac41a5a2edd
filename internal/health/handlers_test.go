package health

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tollhub/pipeline/internal/model"
	"github.com/tollhub/pipeline/internal/store"
)

func TestStatusHandler_AllHealthyReturns200(t *testing.T) {
	e := echo.New()
	r := newTestRegistry(map[model.AgencyID]AgencyStatus{
		"etoll": {AgencyID: "etoll", Status: "healthy", UpdatedAt: time.Now().UTC()},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, StatusHandler(r)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusHandler_UnhealthyReturns503(t *testing.T) {
	e := echo.New()
	r := newTestRegistry(map[model.AgencyID]AgencyStatus{
		"etoll": {AgencyID: "etoll", Status: "unhealthy", UpdatedAt: time.Now().UTC()},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, StatusHandler(r)(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestManualReviewHandler_DefaultsLimitTo50(t *testing.T) {
	e := echo.New()
	var seenLimit int
	list := func(limit int) ([]store.ManualReviewEntry, error) {
		seenLimit = limit
		return []store.ManualReviewEntry{{ID: "mr-1"}}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/manual-review", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, ManualReviewHandler(list, zaptest.NewLogger(t))(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, seenLimit)
}

func TestManualReviewHandler_HonorsLimitQueryParam(t *testing.T) {
	e := echo.New()
	var seenLimit int
	list := func(limit int) ([]store.ManualReviewEntry, error) {
		seenLimit = limit
		return nil, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/manual-review?limit=5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, ManualReviewHandler(list, zaptest.NewLogger(t))(c))
	assert.Equal(t, 5, seenLimit)
}

func TestManualReviewHandler_IgnoresInvalidLimit(t *testing.T) {
	e := echo.New()
	var seenLimit int
	list := func(limit int) ([]store.ManualReviewEntry, error) {
		seenLimit = limit
		return nil, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/manual-review?limit=not-a-number", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, ManualReviewHandler(list, zaptest.NewLogger(t))(c))
	assert.Equal(t, 50, seenLimit)
}

func TestManualReviewHandler_ListErrorReturns500(t *testing.T) {
	e := echo.New()
	list := func(limit int) ([]store.ManualReviewEntry, error) { return nil, model.ErrTransient }

	req := httptest.NewRequest(http.MethodGet, "/manual-review", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, ManualReviewHandler(list, zaptest.NewLogger(t))(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestResolveManualReviewHandler_MissingIDReturns400(t *testing.T) {
	e := echo.New()
	remove := func(id string) error { return nil }

	req := httptest.NewRequest(http.MethodDelete, "/manual-review/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("")

	require.NoError(t, ResolveManualReviewHandler(remove, zaptest.NewLogger(t))(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveManualReviewHandler_SuccessReturns204(t *testing.T) {
	e := echo.New()
	var seenID string
	remove := func(id string) error {
		seenID = id
		return nil
	}

	req := httptest.NewRequest(http.MethodDelete, "/manual-review/mr-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("mr-1")

	require.NoError(t, ResolveManualReviewHandler(remove, zaptest.NewLogger(t))(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "mr-1", seenID)
}

func TestResolveManualReviewHandler_RemoveErrorReturns500(t *testing.T) {
	e := echo.New()
	remove := func(id string) error { return model.ErrTransient }

	req := httptest.NewRequest(http.MethodDelete, "/manual-review/mr-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("mr-1")

	require.NoError(t, ResolveManualReviewHandler(remove, zaptest.NewLogger(t))(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
