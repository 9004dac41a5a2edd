package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tollhub/pipeline/internal/model"
)

// UpsertVehicle writes or updates one row of the vehicles_replica
// read-replica, applied whenever a vehicle.updated bus message arrives
// from the identity service (see internal/matcher/sync.go).
func (s *Store) UpsertVehicle(ctx context.Context, v model.Vehicle) error {
	const q = `
		INSERT INTO vehicles_replica (id, user_id, plate, plate_state, type, axle_count, class, active, last_seen, last_lat, last_lon, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, now())
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id, plate = EXCLUDED.plate, plate_state = EXCLUDED.plate_state,
			type = EXCLUDED.type, axle_count = EXCLUDED.axle_count, class = EXCLUDED.class,
			active = EXCLUDED.active, last_seen = EXCLUDED.last_seen,
			last_lat = EXCLUDED.last_lat, last_lon = EXCLUDED.last_lon, updated_at = now()`

	var lastSeen *time.Time
	if v.LastSeen != nil {
		lastSeen = v.LastSeen
	}
	var lat, lon *float64
	if v.LastLocation != nil {
		lat, lon = &v.LastLocation.Lat, &v.LastLocation.Lon
	}

	_, err := s.Pool.Exec(ctx, q, v.ID, v.UserID, v.Plate, v.PlateState, v.Type, v.AxleCount, v.Class, v.Active, lastSeen, lat, lon)
	if err != nil {
		return fmt.Errorf("%w: upsert vehicle: %v", model.ErrTransient, err)
	}
	return nil
}

// GetVehicleExact looks up a vehicle by its exact (plate, plate_state) key.
// Multiple active hits are possible (a plate reassigned across accounts);
// spec.md §4.4 step 1 picks the most recently active one, so ties on
// last_seen order by id for a stable result.
func (s *Store) GetVehicleExact(ctx context.Context, plate, plateState string) (model.Vehicle, error) {
	const q = `
		SELECT id, user_id, plate, plate_state, type, axle_count, class, active, last_seen, last_lat, last_lon
		FROM vehicles_replica WHERE plate = $1 AND plate_state = $2 AND active = TRUE
		ORDER BY last_seen DESC NULLS LAST, id LIMIT 1`

	v, err := scanVehicle(s.Pool.QueryRow(ctx, q, plate, plateState))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Vehicle{}, fmt.Errorf("%w: vehicle %s/%s", model.ErrNotFound, plateState, plate)
	}
	if err != nil {
		return model.Vehicle{}, fmt.Errorf("%w: get vehicle: %v", model.ErrTransient, err)
	}
	return v, nil
}

// ListCandidatesByPlateState returns every active vehicle registered in
// plateState, the fuzzy matcher's candidate pool (spec.md §4.4).
func (s *Store) ListCandidatesByPlateState(ctx context.Context, plateState string) ([]model.Vehicle, error) {
	const q = `
		SELECT id, user_id, plate, plate_state, type, axle_count, class, active, last_seen, last_lat, last_lon
		FROM vehicles_replica WHERE plate_state = $1 AND active = TRUE`

	rows, err := s.Pool.Query(ctx, q, plateState)
	if err != nil {
		return nil, fmt.Errorf("%w: list vehicle candidates: %v", model.ErrTransient, err)
	}
	defer rows.Close()

	var out []model.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan vehicle: %v", model.ErrTransient, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListActiveVehicles returns every active vehicle, used by the time+location
// match pass when the plate itself did not resolve cleanly (spec.md §4.4).
func (s *Store) ListActiveVehicles(ctx context.Context) ([]model.Vehicle, error) {
	const q = `
		SELECT id, user_id, plate, plate_state, type, axle_count, class, active, last_seen, last_lat, last_lon
		FROM vehicles_replica WHERE active = TRUE`

	rows, err := s.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list active vehicles: %v", model.ErrTransient, err)
	}
	defer rows.Close()

	var out []model.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan vehicle: %v", model.ErrTransient, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVehicle(row rowScanner) (model.Vehicle, error) {
	var v model.Vehicle
	var lastSeen *time.Time
	var lat, lon *float64
	var axleCount *int

	err := row.Scan(&v.ID, &v.UserID, &v.Plate, &v.PlateState, &v.Type, &axleCount, &v.Class, &v.Active, &lastSeen, &lat, &lon)
	if err != nil {
		return model.Vehicle{}, err
	}
	if axleCount != nil {
		v.AxleCount = *axleCount
	}
	v.LastSeen = lastSeen
	if lat != nil && lon != nil {
		v.LastLocation = &model.Location{Lat: *lat, Lon: *lon}
	}
	return v, nil
}
