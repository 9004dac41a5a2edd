package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tollhub/pipeline/internal/model"
)

// RateConfig is the tariff row the Rater stage looks up per
// (agency_id, location_key, vehicle_class), per spec.md §4.5.
type RateConfig struct {
	AgencyID            model.AgencyID
	LocationKey         string
	VehicleClass        string
	BaseRate            decimal.Decimal
	TimeMultipliers     map[string]float64
	LocationMultipliers map[string]float64
}

// GetRateConfig looks up the tariff row for one (agency, location, vehicle
// class) tuple. Returns model.ErrNotFound when no tariff is on file, which
// the Rater treats as "fall through to raw_amount" rather than a hard failure.
func (s *Store) GetRateConfig(ctx context.Context, agencyID model.AgencyID, locationKey, vehicleClass string) (RateConfig, error) {
	const q = `
		SELECT agency_id, location_key, vehicle_class, base_rate, time_multipliers, location_multipliers
		FROM rate_configs WHERE agency_id = $1 AND location_key = $2 AND vehicle_class = $3`

	var rc RateConfig
	var agency string
	var timeJSON, locJSON []byte
	err := s.Pool.QueryRow(ctx, q, string(agencyID), locationKey, vehicleClass).Scan(
		&agency, &rc.LocationKey, &rc.VehicleClass, &rc.BaseRate, &timeJSON, &locJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return RateConfig{}, fmt.Errorf("%w: rate config %s/%s/%s", model.ErrNotFound, agencyID, locationKey, vehicleClass)
	}
	if err != nil {
		return RateConfig{}, fmt.Errorf("%w: get rate config: %v", model.ErrTransient, err)
	}
	rc.AgencyID = model.AgencyID(agency)

	if err := json.Unmarshal(timeJSON, &rc.TimeMultipliers); err != nil {
		return RateConfig{}, fmt.Errorf("unmarshal time_multipliers: %w", err)
	}
	if err := json.Unmarshal(locJSON, &rc.LocationMultipliers); err != nil {
		return RateConfig{}, fmt.Errorf("unmarshal location_multipliers: %w", err)
	}
	return rc, nil
}
