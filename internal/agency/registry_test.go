package agency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tollhub/pipeline/internal/model"
)

type namedFakeConnector struct {
	fakeConnector
	id model.AgencyID
}

func (f *namedFakeConnector) AgencyID() model.AgencyID { return f.id }

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	c := &namedFakeConnector{id: model.AgencyID("etoll")}
	r.Register(c)

	got, err := r.Get(model.AgencyID("etoll"))
	require.NoError(t, err)
	assert.Same(t, c, got)
}

func TestRegistry_GetUnknownAgencyIsNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(model.AgencyID("missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRegistry_AllReturnsEveryRegisteredConnector(t *testing.T) {
	r := NewRegistry()
	r.Register(&namedFakeConnector{id: model.AgencyID("etoll")})
	r.Register(&namedFakeConnector{id: model.AgencyID("expresstoll")})

	all := r.All()
	assert.Len(t, all, 2)
}
