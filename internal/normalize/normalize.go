// Package normalize maps each agency's raw, payload-shaped events into the
// canonical model.NormalizedEvent, performing the field-level validation
// spec.md §4.3 requires before an event is allowed onto the normalized
// topic. Each agency gets its own pure mapping function, registered by
// AgencyID, the same "one adapter per external shape, one canonical
// internal shape" pattern the reference monorepo's dictionary_service.go
// uses to reconcile scanner info_types against the internal dictionary.
package normalize

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tollhub/pipeline/internal/model"
)

// MapFunc converts one agency's raw payload into a canonical NormalizedEvent.
// Implementations must be pure: no I/O, no clocks beyond what the payload
// itself carries.
type MapFunc func(raw model.RawEvent) (model.NormalizedEvent, error)

var registry = map[model.AgencyID]MapFunc{
	model.AgencyID("etoll"):       mapEtoll,
	model.AgencyID("expresstoll"): mapExpressToll,
}

// Register adds or overrides the mapping function for an agency.
func Register(agencyID model.AgencyID, fn MapFunc) {
	registry[agencyID] = fn
}

// Normalize maps raw into a NormalizedEvent using the registered function
// for raw.AgencyID, then validates the result. A non-nil error is always
// model.ErrValidation-wrapped: malformed agency payloads are poison pills,
// not transient failures.
func Normalize(raw model.RawEvent) (model.NormalizedEvent, error) {
	fn, ok := registry[raw.AgencyID]
	if !ok {
		return model.NormalizedEvent{}, fmt.Errorf("%w: no normalizer registered for agency %q", model.ErrValidation, raw.AgencyID)
	}

	event, err := fn(raw)
	if err != nil {
		return model.NormalizedEvent{}, err
	}

	if err := validate(event); err != nil {
		return model.NormalizedEvent{}, err
	}
	return event, nil
}

func validate(e model.NormalizedEvent) error {
	if len(e.Plate) < 2 || len(e.Plate) > 10 {
		return fmt.Errorf("%w: plate length out of range [2,10]", model.ErrValidation)
	}
	if len(e.PlateState) != 2 {
		return fmt.Errorf("%w: plate_state must be a 2-letter code", model.ErrValidation)
	}
	if e.EventTimestamp.IsZero() {
		return fmt.Errorf("%w: missing event_timestamp", model.ErrValidation)
	}
	if e.EventTimestamp.After(time.Now().Add(24 * time.Hour)) {
		return fmt.Errorf("%w: event_timestamp too far in the future", model.ErrValidation)
	}
	if e.Currency == "" {
		return fmt.Errorf("%w: missing currency", model.ErrValidation)
	}
	if e.RawAmount.IsNegative() {
		return fmt.Errorf("%w: negative raw_amount", model.ErrValidation)
	}
	if e.Location != nil {
		if math.Abs(e.Location.Lat) > 90 || math.Abs(e.Location.Lon) > 180 {
			return fmt.Errorf("%w: location out of range", model.ErrValidation)
		}
	}
	return nil
}

// canonicalizePlate uppercases raw and strips everything outside [A-Z0-9],
// per spec.md §4.3's plate canonicalization rule.
func canonicalizePlate(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// canonicalizeState uppercases and trims raw, per spec.md §4.3's
// plate_state rule (required 2-letter code; length is checked in validate).
func canonicalizeState(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func stringField(payload map[string]any, key string) (string, bool) {
	v, ok := payload[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func floatField(payload map[string]any, key string) (float64, bool) {
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func decimalField(payload map[string]any, key string) (decimal.Decimal, error) {
	v, ok := payload[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: missing %s", model.ErrValidation, key)
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: invalid %s: %v", model.ErrValidation, key, err)
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("%w: unsupported type for %s", model.ErrValidation, key)
}

func mapEtoll(raw model.RawEvent) (model.NormalizedEvent, error) {
	p := raw.Payload
	plate, _ := stringField(p, "plate_number")
	plateState, _ := stringField(p, "plate_state")
	gantry, _ := stringField(p, "gantry_id")
	tsStr, _ := stringField(p, "pass_time")
	amount, err := decimalField(p, "toll_amount")
	if err != nil {
		return model.NormalizedEvent{}, err
	}
	currency, ok := stringField(p, "currency")
	if !ok {
		currency = "USD"
	}

	ts, parseErr := time.Parse(time.RFC3339, tsStr)
	if parseErr != nil {
		return model.NormalizedEvent{}, fmt.Errorf("%w: invalid pass_time: %v", model.ErrValidation, parseErr)
	}

	var loc *model.Location
	if lat, ok := floatField(p, "lat"); ok {
		if lon, ok := floatField(p, "lon"); ok {
			loc = &model.Location{Lat: lat, Lon: lon}
		}
	}

	vehicleClass, _ := stringField(p, "vehicle_class")
	evidence, _ := stringField(p, "evidence_uri")

	return model.NormalizedEvent{
		NormalizedID:    uuid.NewString(),
		AgencyID:        raw.AgencyID,
		ExternalEventID: raw.EventID,
		Plate:           canonicalizePlate(plate),
		PlateState:      canonicalizeState(plateState),
		EventTimestamp:  ts,
		GantryID:        gantry,
		Location:        loc,
		VehicleClass:    vehicleClass,
		RawAmount:       amount,
		Fees:            decimal.Zero,
		Currency:        currency,
		EvidenceURI:     evidence,
		SchemaVersion:   "1.0",
		Source:          raw.Source,
	}, nil
}

func mapExpressToll(raw model.RawEvent) (model.NormalizedEvent, error) {
	p := raw.Payload
	plate, _ := stringField(p, "license_plate")
	plateState, _ := stringField(p, "state")
	tsStr, _ := stringField(p, "timestamp")
	amount, err := decimalField(p, "amount")
	if err != nil {
		return model.NormalizedEvent{}, err
	}
	feesVal, ferr := decimalField(p, "fee")
	if ferr != nil {
		feesVal = decimal.Zero
	}
	currency, ok := stringField(p, "currency_code")
	if !ok {
		currency = "USD"
	}

	ts, parseErr := time.Parse(time.RFC3339, tsStr)
	if parseErr != nil {
		return model.NormalizedEvent{}, fmt.Errorf("%w: invalid timestamp: %v", model.ErrValidation, parseErr)
	}

	var loc *model.Location
	if lat, ok := floatField(p, "latitude"); ok {
		if lon, ok := floatField(p, "longitude"); ok {
			loc = &model.Location{Lat: lat, Lon: lon}
		}
	}

	vehicleClass, _ := stringField(p, "class")
	evidence, _ := stringField(p, "image_url")

	return model.NormalizedEvent{
		NormalizedID:    uuid.NewString(),
		AgencyID:        raw.AgencyID,
		ExternalEventID: raw.EventID,
		Plate:           canonicalizePlate(plate),
		PlateState:      canonicalizeState(plateState),
		EventTimestamp:  ts,
		Location:        loc,
		VehicleClass:    vehicleClass,
		RawAmount:       amount,
		Fees:            feesVal,
		Currency:        currency,
		EvidenceURI:     evidence,
		SchemaVersion:   "1.0",
		Source:          raw.Source,
	}, nil
}
