package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tollhub/pipeline/internal/model"
)

func TestRawSubject_PartitionsByAgency(t *testing.T) {
	assert.Equal(t, "toll.events.raw.etoll", RawSubject(model.AgencyID("etoll")))
}

func TestNormalizedSubject_PartitionsByPlateAndState(t *testing.T) {
	got := NormalizedSubject(model.AgencyID("etoll"), "ABC123", "CA")
	assert.Equal(t, "toll.events.normalized.etoll.ABC123.CA", got)
}

func TestNormalizedSubject_SameVehicleAlwaysMapsToSameSubject(t *testing.T) {
	a := NormalizedSubject(model.AgencyID("etoll"), "ABC123", "CA")
	b := NormalizedSubject(model.AgencyID("etoll"), "ABC123", "CA")
	assert.Equal(t, a, b, "per-vehicle ordering depends on a stable subject per key")
}

func TestCanonToken_StripsDotsAndSpaces(t *testing.T) {
	got := NormalizedSubject(model.AgencyID("e.toll"), "ABC 123", "CA")
	assert.Equal(t, "toll.events.normalized.e_toll.ABC_123.CA", got)
}

func TestCanonToken_EmptyTokenBecomesUnderscore(t *testing.T) {
	got := RawSubject(model.AgencyID(""))
	assert.Equal(t, "toll.events.raw._", got)
}

func TestMatchedAndRatedSubjects_PartitionByUser(t *testing.T) {
	assert.Equal(t, "toll.events.matched.user-1", MatchedSubject("user-1"))
	assert.Equal(t, "toll.events.rated.user-1", RatedSubject("user-1"))
}

func TestStatementsSubjects_PartitionByUser(t *testing.T) {
	assert.Equal(t, "statements.generate.user-1", StatementsGenerateSubject("user-1"))
	assert.Equal(t, "statements.closed.user-1", StatementsClosedSubject("user-1"))
}
