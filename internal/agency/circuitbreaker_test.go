package agency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_AllowsWhileClosed(t *testing.T) {
	cb := newCircuitBreaker(3, time.Minute)
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_TripsOpenAfterThreshold(t *testing.T) {
	cb := newCircuitBreaker(3, time.Minute)
	cb.RecordFailure()
	cb.RecordFailure()
	assert.True(t, cb.Allow(), "should still be closed below threshold")
	cb.RecordFailure()
	assert.False(t, cb.Allow(), "should trip open at threshold")
}

func TestCircuitBreaker_StaysOpenDuringCooldown(t *testing.T) {
	cb := newCircuitBreaker(1, time.Hour)
	cb.RecordFailure()
	assert.False(t, cb.Allow())
	assert.False(t, cb.Allow(), "repeated Allow during cooldown stays closed-for-traffic")
}

func TestCircuitBreaker_HalfOpenAfterCooldownElapses(t *testing.T) {
	cb := newCircuitBreaker(1, time.Millisecond)
	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	assert.True(t, cb.Allow(), "should allow a single half-open probe after cooldown")
}

func TestCircuitBreaker_HalfOpenProbeFailureReopensImmediately(t *testing.T) {
	cb := newCircuitBreaker(1, time.Millisecond)
	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	require := assert.New(t)
	require.True(cb.Allow()) // consumes the half-open probe, state -> halfOpen

	cb.RecordFailure()
	assert.Equal(t, stateOpen, cb.state)
}

func TestCircuitBreaker_SuccessClosesAndResetsFailures(t *testing.T) {
	cb := newCircuitBreaker(2, time.Minute)
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.True(t, cb.Allow(), "failure count should have reset on success")
}
