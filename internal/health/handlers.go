package health

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/store"
)

// StatusHandler reports the aggregated worst-of connector health, 200 when
// healthy and 503 otherwise, the same liveness-probe shape used by the
// monorepo's other admin services.
func StatusHandler(registry *Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		aggregate := registry.Aggregate()
		body := map[string]any{
			"status":   aggregate,
			"agencies": registry.Snapshot(),
		}
		if aggregate != "healthy" {
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		return c.JSON(http.StatusOK, body)
	}
}

// ManualReviewHandler lists pending manual-review entries, most recent first.
func ManualReviewHandler(list func(limit int) ([]store.ManualReviewEntry, error), log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 50
		if raw := c.QueryParam("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		entries, err := list(limit)
		if err != nil {
			log.Error("list manual review queue failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, entries)
	}
}

// ResolveManualReviewHandler deletes a manual-review entry once an operator
// has resolved it out of band (re-run, manual match, write-off).
func ResolveManualReviewHandler(remove func(id string) error, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if id == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing id"})
		}
		if err := remove(id); err != nil {
			log.Error("resolve manual review entry failed", zap.String("id", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// RegisterRoutes mounts the admin API's health and manual-review endpoints,
// plus the Prometheus scrape endpoint, onto e.
func RegisterRoutes(e *echo.Echo, registry *Registry, listReview func(limit int) ([]store.ManualReviewEntry, error), resolveReview func(id string) error, log *zap.Logger) {
	e.GET("/healthz", StatusHandler(registry))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	review := e.Group("/manual-review")
	review.GET("", ManualReviewHandler(listReview, log))
	review.DELETE("/:id", ResolveManualReviewHandler(resolveReview, log))
}
