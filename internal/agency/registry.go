package agency

import (
	"fmt"

	"github.com/tollhub/pipeline/internal/model"
)

// Registry maps an agency ID to its live Connector, used by the
// connector-runtime binary to fan out one poller per configured agency.
type Registry struct {
	connectors map[model.AgencyID]Connector
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[model.AgencyID]Connector)}
}

// Register adds a Connector, keyed by its own AgencyID.
func (r *Registry) Register(c Connector) {
	r.connectors[c.AgencyID()] = c
}

// Get returns the Connector registered for agencyID.
func (r *Registry) Get(agencyID model.AgencyID) (Connector, error) {
	c, ok := r.connectors[agencyID]
	if !ok {
		return nil, fmt.Errorf("%w: no connector registered for agency %q", model.ErrNotFound, agencyID)
	}
	return c, nil
}

// All returns every registered Connector, in no particular order.
func (r *Registry) All() []Connector {
	out := make([]Connector, 0, len(r.connectors))
	for _, c := range r.connectors {
		out = append(out, c)
	}
	return out
}
