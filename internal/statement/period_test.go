package statement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tollhub/pipeline/internal/platform/config"
)

func TestBounds_Monthly_CutDayOne(t *testing.T) {
	cfg := config.StatementConfig{Period: "monthly", CutDayOfMonth: 1}
	ts := time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)

	start, end := Bounds(ts, cfg)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestBounds_Monthly_BeforeCutDayRollsBackAMonth(t *testing.T) {
	cfg := config.StatementConfig{Period: "monthly", CutDayOfMonth: 10}
	ts := time.Date(2026, 7, 5, 10, 0, 0, 0, time.UTC)

	start, end := Bounds(ts, cfg)
	assert.Equal(t, time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC), end)
}

func TestBounds_Monthly_OnCutDayStartsNewPeriod(t *testing.T) {
	cfg := config.StatementConfig{Period: "monthly", CutDayOfMonth: 10}
	ts := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)

	start, end := Bounds(ts, cfg)
	assert.Equal(t, time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), end)
}

func TestBounds_Monthly_InvalidCutDayDefaultsToOne(t *testing.T) {
	cfg := config.StatementConfig{Period: "monthly", CutDayOfMonth: 0}
	ts := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

	start, _ := Bounds(ts, cfg)
	assert.Equal(t, 1, start.Day())
}

func TestBounds_Weekly_StartsOnSunday(t *testing.T) {
	cfg := config.StatementConfig{Period: "weekly"}
	// 2026-07-15 is a Wednesday.
	ts := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)

	start, end := Bounds(ts, cfg)
	assert.Equal(t, time.Sunday, start.Weekday())
	assert.Equal(t, 7*24*time.Hour, end.Sub(start))
	assert.True(t, !ts.Before(start) && ts.Before(end))
}

func TestNextBounds_Monthly_IsContiguousWithPriorPeriod(t *testing.T) {
	cfg := config.StatementConfig{Period: "monthly", CutDayOfMonth: 1}
	ts := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

	start, end := Bounds(ts, cfg)
	nextStart, nextEnd := NextBounds(end, cfg)

	assert.Equal(t, end, nextStart)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), nextEnd)
	_ = start
}
