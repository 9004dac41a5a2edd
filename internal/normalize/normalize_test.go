package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tollhub/pipeline/internal/model"
)

func etollRaw(overrides map[string]any) model.RawEvent {
	payload := map[string]any{
		"plate_number": "ABC123",
		"plate_state":  "CA",
		"gantry_id":    "G-9",
		"pass_time":    "2026-07-01T12:00:00Z",
		"toll_amount":  "4.50",
		"currency":     "USD",
		"lat":          34.05,
		"lon":          -118.25,
	}
	for k, v := range overrides {
		payload[k] = v
	}
	return model.RawEvent{
		EventID:  "evt-1",
		AgencyID: model.AgencyID("etoll"),
		Source:   model.SourceAgencyFeed,
		Payload:  payload,
	}
}

func TestNormalize_Etoll_Success(t *testing.T) {
	event, err := Normalize(etollRaw(nil))
	require.NoError(t, err)

	assert.Equal(t, "ABC123", event.Plate)
	assert.Equal(t, "CA", event.PlateState)
	assert.True(t, decimal.RequireFromString("4.50").Equal(event.RawAmount))
	assert.Equal(t, "USD", event.Currency)
	require.NotNil(t, event.Location)
	assert.Equal(t, 34.05, event.Location.Lat)
	assert.Equal(t, "1.0", event.SchemaVersion)
}

func TestNormalize_ExpressToll_Success(t *testing.T) {
	raw := model.RawEvent{
		EventID:  "evt-2",
		AgencyID: model.AgencyID("expresstoll"),
		Source:   model.SourceAgencyFeed,
		Payload: map[string]any{
			"license_plate": "XYZ789",
			"state":         "NY",
			"timestamp":     "2026-07-01T13:00:00Z",
			"amount":        2.75,
			"fee":           0.25,
			"currency_code": "USD",
		},
	}
	event, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "XYZ789", event.Plate)
	assert.True(t, decimal.NewFromFloat(2.75).Equal(event.RawAmount))
	assert.True(t, decimal.NewFromFloat(0.25).Equal(event.Fees))
	assert.Nil(t, event.Location)
}

func TestNormalize_UnknownAgency(t *testing.T) {
	raw := model.RawEvent{AgencyID: model.AgencyID("nosuchagency")}
	_, err := Normalize(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestNormalize_CanonicalizesPlateAndState(t *testing.T) {
	raw := etollRaw(map[string]any{"plate_number": "abc 123", "plate_state": "ca"})
	event, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "ABC123", event.Plate)
	assert.Equal(t, "CA", event.PlateState)
}

func TestNormalize_PlateTooShortRejected(t *testing.T) {
	raw := etollRaw(map[string]any{"plate_number": "a-"})
	_, err := Normalize(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestNormalize_PlateStateMustBeTwoLetters(t *testing.T) {
	raw := etollRaw(map[string]any{"plate_state": "california"})
	_, err := Normalize(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestNormalize_MissingPlate(t *testing.T) {
	raw := etollRaw(map[string]any{"plate_number": ""})
	_, err := Normalize(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestNormalize_NegativeAmount(t *testing.T) {
	raw := etollRaw(map[string]any{"toll_amount": "-1.00"})
	_, err := Normalize(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestNormalize_LocationOutOfRange(t *testing.T) {
	raw := etollRaw(map[string]any{"lat": 95.0, "lon": -118.25})
	_, err := Normalize(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestNormalize_FutureTimestampRejected(t *testing.T) {
	raw := etollRaw(map[string]any{"pass_time": time.Now().Add(48 * time.Hour).Format(time.RFC3339)})
	_, err := Normalize(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestNormalize_InvalidTimestamp(t *testing.T) {
	raw := etollRaw(map[string]any{"pass_time": "not-a-time"})
	_, err := Normalize(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestNormalize_MissingAmount(t *testing.T) {
	raw := etollRaw(nil)
	delete(raw.Payload, "toll_amount")
	_, err := Normalize(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRegister_OverridesMapping(t *testing.T) {
	called := false
	Register(model.AgencyID("custom"), func(raw model.RawEvent) (model.NormalizedEvent, error) {
		called = true
		return model.NormalizedEvent{
			Plate:          "Z1",
			PlateState:     "TX",
			EventTimestamp: time.Now(),
			Currency:       "USD",
		}, nil
	})
	defer delete(registry, model.AgencyID("custom"))

	_, err := Normalize(model.RawEvent{AgencyID: model.AgencyID("custom")})
	require.NoError(t, err)
	assert.True(t, called)
}
