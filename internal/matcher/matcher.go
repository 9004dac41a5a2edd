// Package matcher resolves a NormalizedEvent to a billable vehicle/user,
// trying an exact plate match, then a fuzzy plate match, then a
// time+location match, and finally routing to manual review — spec.md
// §4.4's match cascade. The write-through cache that fronts the exact-match
// lookup is grounded on Generativebots-ocx-backend-go-svc's go-redis
// adapter; the cascade's layered-fallback shape mirrors the reference
// monorepo's dictionary_service.go (exact name match, then fuzzy lookup,
// then "no match" fallback).
package matcher

import (
	"context"
	"time"

	"github.com/agext/levenshtein"
	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/model"
	"github.com/tollhub/pipeline/internal/platform/config"
)

// VehicleStore is the subset of store.Store the Matcher depends on.
type VehicleStore interface {
	GetVehicleExact(ctx context.Context, plate, plateState string) (model.Vehicle, error)
	ListCandidatesByPlateState(ctx context.Context, plateState string) ([]model.Vehicle, error)
	ListActiveVehicles(ctx context.Context) ([]model.Vehicle, error)
}

// Matcher implements spec.md §4.4's match cascade.
type Matcher struct {
	store VehicleStore
	cache *VehicleCache
	cfg   config.MatcherConfig
	log   *zap.Logger
}

// New constructs a Matcher.
func New(store VehicleStore, cache *VehicleCache, cfg config.MatcherConfig, log *zap.Logger) *Matcher {
	return &Matcher{store: store, cache: cache, cfg: cfg, log: log}
}

// Match resolves event to a vehicle/user, trying each strategy in order of
// decreasing confidence and falling through to manual review once none
// clears the configured threshold.
func (m *Matcher) Match(ctx context.Context, event model.NormalizedEvent) model.MatchResult {
	if result, ok := m.matchExact(ctx, event); ok {
		return result
	}
	if result, ok := m.matchFuzzy(ctx, event); ok {
		return result
	}
	if result, ok := m.matchTimeLocation(ctx, event); ok {
		return result
	}
	return model.MatchResult{
		Matched:   false,
		MatchType: model.MatchManualReview,
		Notes:     "no candidate cleared the match threshold",
	}
}

func (m *Matcher) matchExact(ctx context.Context, event model.NormalizedEvent) (model.MatchResult, bool) {
	if v, ok := m.cache.Get(ctx, event.Plate, event.PlateState); ok {
		return model.MatchResult{Matched: true, UserID: v.UserID, VehicleID: v.ID, Confidence: 1.0, MatchType: model.MatchExact}, true
	}

	v, err := m.store.GetVehicleExact(ctx, event.Plate, event.PlateState)
	if err != nil {
		return model.MatchResult{}, false
	}
	m.cache.Set(ctx, v)
	return model.MatchResult{Matched: true, UserID: v.UserID, VehicleID: v.ID, Confidence: 1.0, MatchType: model.MatchExact}, true
}

func (m *Matcher) matchFuzzy(ctx context.Context, event model.NormalizedEvent) (model.MatchResult, bool) {
	candidates, err := m.store.ListCandidatesByPlateState(ctx, event.PlateState)
	if err != nil || len(candidates) == 0 {
		return model.MatchResult{}, false
	}

	var best model.Vehicle
	bestScore := 0.0
	found := false

	for _, c := range candidates {
		score := levenshtein.Match(event.Plate, c.Plate, nil)
		if score < m.cfg.FuzzyThreshold {
			continue
		}
		switch {
		case !found || score > bestScore:
			best, bestScore, found = c, score, true
		case score == bestScore && fuzzyTieBreakWins(c, best):
			best = c
		}
	}

	if !found {
		return model.MatchResult{}, false
	}

	return model.MatchResult{
		Matched:    true,
		UserID:     best.UserID,
		VehicleID:  best.ID,
		Confidence: bestScore,
		MatchType:  model.MatchFuzzy,
	}, true
}

// fuzzyTieBreakWins reports whether candidate should replace current as the
// fuzzy-match winner when their scores tie, per spec.md §4.4 step 2: higher
// last_seen recency wins first, lexicographically lower plate second.
func fuzzyTieBreakWins(candidate, current model.Vehicle) bool {
	cSeen, curSeen := lastSeenOrZero(candidate), lastSeenOrZero(current)
	if !cSeen.Equal(curSeen) {
		return cSeen.After(curSeen)
	}
	return candidate.Plate < current.Plate
}

func lastSeenOrZero(v model.Vehicle) time.Time {
	if v.LastSeen == nil {
		return time.Time{}
	}
	return *v.LastSeen
}

func (m *Matcher) matchTimeLocation(ctx context.Context, event model.NormalizedEvent) (model.MatchResult, bool) {
	if event.Location == nil {
		return model.MatchResult{}, false
	}

	candidates, err := m.store.ListActiveVehicles(ctx)
	if err != nil || len(candidates) == 0 {
		return model.MatchResult{}, false
	}

	window := m.cfg.TimeWindow()
	var best model.Vehicle
	bestScore := 0.0
	found := false

	for _, c := range candidates {
		if c.LastSeen == nil || c.LastLocation == nil {
			continue
		}
		delta := absDuration(event.EventTimestamp.Sub(*c.LastSeen))
		if delta > window {
			continue
		}

		timeConf := 1.0 - float64(delta)/float64(window)
		if timeConf < 0 {
			timeConf = 0
		}

		dist := haversineMeters(event.Location.Lat, event.Location.Lon, c.LastLocation.Lat, c.LastLocation.Lon)
		locConf := 1.0 - dist/m.cfg.DistanceMeters
		if locConf < 0 {
			locConf = 0
		}

		if timeConf < 0.5 || locConf < 0.5 {
			continue
		}

		score := (timeConf + locConf) / 2
		if !found || score > bestScore {
			best, bestScore, found = c, score, true
		}
	}

	if !found {
		return model.MatchResult{}, false
	}

	return model.MatchResult{
		Matched:    true,
		UserID:     best.UserID,
		VehicleID:  best.ID,
		Confidence: bestScore,
		MatchType:  model.MatchTimeBased,
	}, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
