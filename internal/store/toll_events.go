package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tollhub/pipeline/internal/model"
)

// queryExecer is the subset of *pgxpool.Pool and pgx.Tx that the insert and
// draft-append helpers need, letting them run standalone or inside the
// single transaction PersistRatedEvent opens.
type queryExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InsertTollEvent persists a new TollEvent. A unique-violation on
// (agency_id, external_event_id) is translated to model.ErrDuplicate so
// callers can treat a redelivered persist as a success, not a failure.
func (s *Store) InsertTollEvent(ctx context.Context, e model.TollEvent) error {
	return insertTollEvent(ctx, s.Pool, e)
}

func insertTollEvent(ctx context.Context, db queryExecer, e model.TollEvent) error {
	const q = `
		INSERT INTO toll_events (
			id, user_id, vehicle_id, agency_id, external_event_id, plate, plate_state,
			event_timestamp, gantry_id, location_lat, location_lon, vehicle_class,
			raw_amount, rated_amount, fees, currency, evidence_uri, source, status,
			late_arrival, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`

	var lat, lon *float64
	if e.Location != nil {
		lat, lon = &e.Location.Lat, &e.Location.Lon
	}

	_, err := db.Exec(ctx, q,
		e.ID, e.UserID, e.VehicleID, string(e.AgencyID), e.ExternalEventID, e.Plate, e.PlateState,
		e.EventTimestamp, e.GantryID, lat, lon, e.VehicleClass,
		e.RawAmount, e.RatedAmount, e.Fees, e.Currency, e.EvidenceURI, string(e.Source), string(e.Status),
		e.LateArrival, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: toll event %s/%s already persisted", model.ErrDuplicate, e.AgencyID, e.ExternalEventID)
		}
		return fmt.Errorf("%w: insert toll event: %v", model.ErrTransient, err)
	}
	return nil
}

// GetTollEventByExternalID looks up a TollEvent by its natural key.
func (s *Store) GetTollEventByExternalID(ctx context.Context, agencyID model.AgencyID, externalEventID string) (model.TollEvent, error) {
	const q = `
		SELECT id, user_id, vehicle_id, agency_id, external_event_id, plate, plate_state,
			event_timestamp, gantry_id, location_lat, location_lon, vehicle_class,
			raw_amount, rated_amount, fees, currency, evidence_uri, source, status,
			late_arrival, created_at, updated_at
		FROM toll_events WHERE agency_id = $1 AND external_event_id = $2`

	row := s.Pool.QueryRow(ctx, q, string(agencyID), externalEventID)
	e, err := scanTollEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TollEvent{}, fmt.Errorf("%w: toll event %s/%s", model.ErrNotFound, agencyID, externalEventID)
	}
	if err != nil {
		return model.TollEvent{}, fmt.Errorf("%w: get toll event: %v", model.ErrTransient, err)
	}
	return e, nil
}

// ListPostedEventsForPeriod returns every posted TollEvent for userID whose
// event_timestamp falls within [periodStart, periodEnd), used by the
// statement aggregator when (re)building a draft from scratch.
func (s *Store) ListPostedEventsForPeriod(ctx context.Context, userID string, periodStart, periodEnd time.Time) ([]model.TollEvent, error) {
	const q = `
		SELECT id, user_id, vehicle_id, agency_id, external_event_id, plate, plate_state,
			event_timestamp, gantry_id, location_lat, location_lon, vehicle_class,
			raw_amount, rated_amount, fees, currency, evidence_uri, source, status,
			late_arrival, created_at, updated_at
		FROM toll_events
		WHERE user_id = $1 AND status = 'posted' AND event_timestamp >= $2 AND event_timestamp < $3
		ORDER BY event_timestamp ASC`

	rows, err := s.Pool.Query(ctx, q, userID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: list posted events: %v", model.ErrTransient, err)
	}
	defer rows.Close()

	var out []model.TollEvent
	for rows.Next() {
		e, err := scanTollEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan toll event: %v", model.ErrTransient, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTollEvent(row rowScanner) (model.TollEvent, error) {
	var e model.TollEvent
	var agencyID, source, status string
	var lat, lon *float64

	err := row.Scan(
		&e.ID, &e.UserID, &e.VehicleID, &agencyID, &e.ExternalEventID, &e.Plate, &e.PlateState,
		&e.EventTimestamp, &e.GantryID, &lat, &lon, &e.VehicleClass,
		&e.RawAmount, &e.RatedAmount, &e.Fees, &e.Currency, &e.EvidenceURI, &source, &status,
		&e.LateArrival, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return model.TollEvent{}, err
	}

	e.AgencyID = model.AgencyID(agencyID)
	e.Source = model.EventSource(source)
	e.Status = model.TollEventStatus(status)
	if lat != nil && lon != nil {
		e.Location = &model.Location{Lat: *lat, Lon: *lon}
	}
	return e, nil
}
