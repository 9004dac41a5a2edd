// Package rater computes the billable amount for a matched toll event:
// rated_amount = round_half_even(base_rate * time_multiplier *
// location_multiplier, 2), per spec.md §4.5. A missing tariff falls
// through to the agency's raw_amount rather than blocking the event, and
// increments a counter the health/metrics stage exposes as
// missing_rate_config.
package rater

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/model"
	"github.com/tollhub/pipeline/internal/store"
)

// RateConfigLookup is the subset of store.Store the Rater depends on.
type RateConfigLookup interface {
	GetRateConfig(ctx context.Context, agencyID model.AgencyID, locationKey, vehicleClass string) (store.RateConfig, error)
}

// MissingConfigCounter is incremented whenever no tariff matches an event,
// labeled by the agency that produced it, satisfied by *health.Metrics in
// production.
type MissingConfigCounter interface {
	IncMissingRateConfig(agencyID string)
}

// Rater computes a TollEvent's rated_amount from a NormalizedEvent plus its
// MatchResult.
type Rater struct {
	lookup  RateConfigLookup
	missing MissingConfigCounter
	log     *zap.Logger
}

// New constructs a Rater. missing may be nil to disable the metric.
func New(lookup RateConfigLookup, missing MissingConfigCounter, log *zap.Logger) *Rater {
	return &Rater{lookup: lookup, missing: missing, log: log}
}

// locationKey derives the tariff lookup key from an event's gantry/road
// metadata, falling back to "default" when no location metadata was captured.
func locationKey(e model.NormalizedEvent) string {
	if e.GantryID != "" {
		return e.GantryID
	}
	if e.Location != nil && e.Location.RoadName != "" {
		return e.Location.RoadName
	}
	return "default"
}

// Rate produces the billable TollEvent fields for event/result. When no
// tariff is on file, rated_amount falls through to raw_amount and the
// missing-config counter (if configured) is incremented.
func (r *Rater) Rate(ctx context.Context, event model.NormalizedEvent, result model.MatchResult) (decimal.Decimal, error) {
	vehicleClass := event.VehicleClass
	if vehicleClass == "" {
		vehicleClass = "standard"
	}

	cfg, err := r.lookup.GetRateConfig(ctx, event.AgencyID, locationKey(event), vehicleClass)
	if err != nil {
		if r.missing != nil {
			r.missing.IncMissingRateConfig(string(event.AgencyID))
		}
		r.log.Warn("no rate config on file, falling back to raw_amount",
			zap.String("agency_id", string(event.AgencyID)),
			zap.String("location_key", locationKey(event)),
			zap.String("vehicle_class", vehicleClass),
		)
		return event.RawAmount, nil
	}

	timeMult := timeMultiplierFor(cfg.TimeMultipliers, event.EventTimestamp.Hour())
	locMult := 1.0
	if m, ok := cfg.LocationMultipliers[locationKey(event)]; ok {
		locMult = m
	}

	rated := cfg.BaseRate.
		Mul(decimal.NewFromFloat(timeMult)).
		Mul(decimal.NewFromFloat(locMult)).
		RoundBank(2)

	return rated, nil
}

// timeMultiplierFor buckets the hour-of-day into "peak"/"offpeak" per
// spec.md §4.5's time-of-day tariff model, defaulting to 1.0 when the
// tariff defines no bucket for the hour.
func timeMultiplierFor(multipliers map[string]float64, hour int) float64 {
	bucket := "offpeak"
	if (hour >= 7 && hour < 10) || (hour >= 16 && hour < 19) {
		bucket = "peak"
	}
	if m, ok := multipliers[bucket]; ok {
		return m
	}
	return 1.0
}
