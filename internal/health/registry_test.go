package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tollhub/pipeline/internal/model"
)

func newTestRegistry(statuses map[model.AgencyID]AgencyStatus) *Registry {
	return &Registry{statuses: statuses}
}

func TestAggregate_EmptyRegistryIsUnknown(t *testing.T) {
	r := newTestRegistry(map[model.AgencyID]AgencyStatus{})
	assert.Equal(t, "unknown", r.Aggregate())
}

func TestAggregate_AllHealthyIsHealthy(t *testing.T) {
	now := time.Now().UTC()
	r := newTestRegistry(map[model.AgencyID]AgencyStatus{
		"etoll":       {AgencyID: "etoll", Status: "healthy", UpdatedAt: now},
		"expresstoll": {AgencyID: "expresstoll", Status: "healthy", UpdatedAt: now},
	})
	assert.Equal(t, "healthy", r.Aggregate())
}

func TestAggregate_OneUnhealthyWins(t *testing.T) {
	now := time.Now().UTC()
	r := newTestRegistry(map[model.AgencyID]AgencyStatus{
		"etoll":       {AgencyID: "etoll", Status: "healthy", UpdatedAt: now},
		"expresstoll": {AgencyID: "expresstoll", Status: "unhealthy", UpdatedAt: now},
	})
	assert.Equal(t, "unhealthy", r.Aggregate())
}

func TestAggregate_CircuitOpenCountsAsUnhealthy(t *testing.T) {
	now := time.Now().UTC()
	r := newTestRegistry(map[model.AgencyID]AgencyStatus{
		"etoll": {AgencyID: "etoll", Status: "circuit_open", UpdatedAt: now},
	})
	assert.Equal(t, "unhealthy", r.Aggregate())
}

func TestAggregate_StaleEntryDowngradesToUnknownNotHealthy(t *testing.T) {
	stale := time.Now().UTC().Add(-10 * time.Minute)
	r := newTestRegistry(map[model.AgencyID]AgencyStatus{
		"etoll": {AgencyID: "etoll", Status: "healthy", UpdatedAt: stale},
	})
	assert.Equal(t, "unknown", r.Aggregate())
}

func TestAggregate_UnhealthyBeatsUnknown(t *testing.T) {
	now := time.Now().UTC()
	stale := now.Add(-10 * time.Minute)
	r := newTestRegistry(map[model.AgencyID]AgencyStatus{
		"etoll":       {AgencyID: "etoll", Status: "unhealthy", UpdatedAt: now},
		"expresstoll": {AgencyID: "expresstoll", Status: "healthy", UpdatedAt: stale},
	})
	assert.Equal(t, "unhealthy", r.Aggregate())
}

func TestSnapshot_MarksStaleEntriesUnknown(t *testing.T) {
	stale := time.Now().UTC().Add(-1 * time.Hour)
	r := newTestRegistry(map[model.AgencyID]AgencyStatus{
		"etoll": {AgencyID: "etoll", Status: "healthy", UpdatedAt: stale},
	})

	snap := r.Snapshot()
	require := assert.New(t)
	require.Len(snap, 1)
	require.Equal("unknown", snap[0].Status)
}
