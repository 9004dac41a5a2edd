// Package statement accumulates posted toll events into per-user draft
// statements and, on a configurable period-close cron tick, assembles an
// immutable Statement snapshot from the draft, per spec.md §4.6. The cron
// controller is adapted from notification-service's
// internal/scheduler.CronScheduler, which wraps robfig/cron/v3 the same way.
package statement

import (
	"time"

	"github.com/tollhub/pipeline/internal/platform/config"
)

// Bounds computes the [start, end) billing period containing ts, per
// cfg.Period ("monthly" or "weekly") and cfg.CutDayOfMonth. Periods are
// computed in UTC; cfg.TimezoneSource and the user's timezone are not
// consulted.
func Bounds(ts time.Time, cfg config.StatementConfig) (start, end time.Time) {
	ts = ts.UTC()

	if cfg.Period == "weekly" {
		weekday := int(ts.Weekday())
		start = time.Date(ts.Year(), ts.Month(), ts.Day()-weekday, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 7)
		return start, end
	}

	cut := cfg.CutDayOfMonth
	if cut < 1 {
		cut = 1
	}

	start = time.Date(ts.Year(), ts.Month(), cut, 0, 0, 0, 0, time.UTC)
	if ts.Day() < cut {
		start = start.AddDate(0, -1, 0)
	}
	end = start.AddDate(0, 1, 0)
	return start, end
}

// NextBounds returns the period immediately following [start, end).
func NextBounds(end time.Time, cfg config.StatementConfig) (nextStart, nextEnd time.Time) {
	return Bounds(end, cfg)
}
