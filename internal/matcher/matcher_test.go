package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/agext/levenshtein"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tollhub/pipeline/internal/model"
	"github.com/tollhub/pipeline/internal/platform/config"
)

// fakeVehicleStore is a hand-rolled VehicleStore, matching the narrow
// mock-per-interface style the reference monorepo's consumer tests use
// instead of a generated mock for small interfaces.
type fakeVehicleStore struct {
	exact      model.Vehicle
	exactErr   error
	candidates []model.Vehicle
	active     []model.Vehicle
}

func (f *fakeVehicleStore) GetVehicleExact(ctx context.Context, plate, plateState string) (model.Vehicle, error) {
	return f.exact, f.exactErr
}

func (f *fakeVehicleStore) ListCandidatesByPlateState(ctx context.Context, plateState string) ([]model.Vehicle, error) {
	return f.candidates, nil
}

func (f *fakeVehicleStore) ListActiveVehicles(ctx context.Context) ([]model.Vehicle, error) {
	return f.active, nil
}

// unreachableCache builds a VehicleCache pointed at a closed local port so
// every Get/Set fails fast instead of hitting a real Redis instance.
func unreachableCache() *VehicleCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		ReadTimeout: 50 * time.Millisecond,
	})
	return NewVehicleCache(rdb)
}

func testMatcherConfig() config.MatcherConfig {
	return config.MatcherConfig{
		FuzzyThreshold:    0.8,
		TimeWindowMinutes: 30,
		DistanceMeters:    5000,
	}
}

func TestHaversineMeters_SamePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, haversineMeters(34.05, -118.25, 34.05, -118.25))
}

func TestHaversineMeters_KnownDistance(t *testing.T) {
	// Los Angeles to San Francisco, roughly 559km great-circle.
	d := haversineMeters(34.0522, -118.2437, 37.7749, -122.4194)
	assert.InDelta(t, 559000, d, 15000)
}

func TestMatcher_MatchFuzzy_BestCandidateWins(t *testing.T) {
	store := &fakeVehicleStore{candidates: []model.Vehicle{
		{ID: "v1", UserID: "u1", Plate: "ABC123"},
		{ID: "v2", UserID: "u2", Plate: "ZZZ999"},
	}}
	m := New(store, unreachableCache(), testMatcherConfig(), zaptest.NewLogger(t))

	result, ok := m.matchFuzzy(context.Background(), model.NormalizedEvent{Plate: "ABC124", PlateState: "CA"})
	require.True(t, ok)
	assert.Equal(t, "v1", result.VehicleID)
	assert.Equal(t, model.MatchFuzzy, result.MatchType)
	assert.Greater(t, result.Confidence, 0.8)
}

func TestMatcher_MatchFuzzy_TieBreaksOnRecencyThenLexicographicPlate(t *testing.T) {
	// Same length, one substitution in the same position against the query:
	// by symmetry both candidates are equidistant from it under any
	// standard edit-distance-based similarity measure, so the deterministic
	// tie-break (higher last_seen recency, then lexicographic plate) decides.
	older := timePtr(time.Now().Add(-2 * time.Hour))
	newer := timePtr(time.Now().Add(-5 * time.Minute))
	store := &fakeVehicleStore{candidates: []model.Vehicle{
		{ID: "v1", UserID: "u1", Plate: "ABCXYA", LastSeen: older},
		{ID: "v2", UserID: "u2", Plate: "ABCXYB", LastSeen: newer},
	}}
	m := New(store, unreachableCache(), testMatcherConfig(), zaptest.NewLogger(t))

	result, ok := m.matchFuzzy(context.Background(), model.NormalizedEvent{Plate: "ABCXYZ", PlateState: "CA"})
	require.True(t, ok)
	assert.Equal(t, "v2", result.VehicleID, "more recently active candidate should win the tie")
}

func TestMatcher_MatchFuzzy_TieBreaksLexicographicallyWhenRecencyEqual(t *testing.T) {
	store := &fakeVehicleStore{candidates: []model.Vehicle{
		{ID: "v1", UserID: "u1", Plate: "ABCXYB"},
		{ID: "v2", UserID: "u2", Plate: "ABCXYA"},
	}}
	m := New(store, unreachableCache(), testMatcherConfig(), zaptest.NewLogger(t))

	result, ok := m.matchFuzzy(context.Background(), model.NormalizedEvent{Plate: "ABCXYZ", PlateState: "CA"})
	require.True(t, ok)
	assert.Equal(t, "v2", result.VehicleID, "lexicographically lower plate should win when recency is equal")
}

func TestMatcher_FuzzyMatch_MonotonicInDistance(t *testing.T) {
	near := levenshtein.Match("ABC123", "ABC124", nil)
	far := levenshtein.Match("ABC123", "ABZ124", nil)
	assert.GreaterOrEqual(t, near, far, "a smaller edit distance must never score lower than a larger one")
}

func TestMatcher_MatchFuzzy_BelowThresholdDefers(t *testing.T) {
	store := &fakeVehicleStore{candidates: []model.Vehicle{
		{ID: "v1", UserID: "u1", Plate: "ZZZZZZ"},
	}}
	m := New(store, unreachableCache(), testMatcherConfig(), zaptest.NewLogger(t))

	_, ok := m.matchFuzzy(context.Background(), model.NormalizedEvent{Plate: "ABC123", PlateState: "CA"})
	assert.False(t, ok)
}

func TestMatcher_MatchTimeLocation_WithinWindowAndRadius(t *testing.T) {
	now := time.Now()
	store := &fakeVehicleStore{active: []model.Vehicle{
		{
			ID: "v1", UserID: "u1",
			LastSeen:     timePtr(now.Add(-5 * time.Minute)),
			LastLocation: &model.Location{Lat: 34.0522, Lon: -118.2437},
		},
	}}
	m := New(store, unreachableCache(), testMatcherConfig(), zaptest.NewLogger(t))

	event := model.NormalizedEvent{
		EventTimestamp: now,
		Location:       &model.Location{Lat: 34.0523, Lon: -118.2438},
	}
	result, ok := m.matchTimeLocation(context.Background(), event)
	require.True(t, ok)
	assert.Equal(t, "v1", result.VehicleID)
	assert.Equal(t, model.MatchTimeBased, result.MatchType)
}

func TestMatcher_MatchTimeLocation_OutsideWindowExcluded(t *testing.T) {
	now := time.Now()
	store := &fakeVehicleStore{active: []model.Vehicle{
		{
			ID: "v1", UserID: "u1",
			LastSeen:     timePtr(now.Add(-2 * time.Hour)),
			LastLocation: &model.Location{Lat: 34.0522, Lon: -118.2437},
		},
	}}
	m := New(store, unreachableCache(), testMatcherConfig(), zaptest.NewLogger(t))

	event := model.NormalizedEvent{
		EventTimestamp: now,
		Location:       &model.Location{Lat: 34.0522, Lon: -118.2437},
	}
	_, ok := m.matchTimeLocation(context.Background(), event)
	assert.False(t, ok)
}

func TestMatcher_Match_FallsThroughToManualReview(t *testing.T) {
	store := &fakeVehicleStore{exactErr: model.ErrNotFound}
	m := New(store, unreachableCache(), testMatcherConfig(), zaptest.NewLogger(t))

	result := m.Match(context.Background(), model.NormalizedEvent{Plate: "ABC123", PlateState: "CA"})
	assert.False(t, result.Matched)
	assert.Equal(t, model.MatchManualReview, result.MatchType)
}

func timePtr(t time.Time) *time.Time { return &t }
