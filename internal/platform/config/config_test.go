package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultsWhenUnset(t *testing.T) {
	for _, key := range []string{"BUS_BROKERS", "MATCHER_FUZZY_THRESHOLD", "STATEMENT_PERIOD", "DEDUP_TTL_DAYS", "DB_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "toll-pipeline", cfg.Bus.ClientID)
	assert.Equal(t, 0.8, cfg.Matcher.FuzzyThreshold)
	assert.Equal(t, "monthly", cfg.Statement.Period)
	assert.Equal(t, 7, cfg.Dedup.TTLDays)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("STATEMENT_PERIOD", "weekly")
	t.Setenv("MATCHER_FUZZY_THRESHOLD", "0.95")
	t.Setenv("DEDUP_TTL_DAYS", "14")

	cfg := Load()
	assert.Equal(t, "weekly", cfg.Statement.Period)
	assert.Equal(t, 0.95, cfg.Matcher.FuzzyThreshold)
	assert.Equal(t, 14, cfg.Dedup.TTLDays)
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("DEDUP_TTL_DAYS", "not-a-number")
	cfg := Load()
	assert.Equal(t, 7, cfg.Dedup.TTLDays)
}

func TestDedupConfig_DedupTTL(t *testing.T) {
	cfg := DedupConfig{TTLDays: 2}
	assert.Equal(t, 48.0, cfg.DedupTTL().Hours())
}

func TestMatcherConfig_TimeWindow(t *testing.T) {
	cfg := MatcherConfig{TimeWindowMinutes: 45}
	assert.Equal(t, 45.0, cfg.TimeWindow().Minutes())
}
