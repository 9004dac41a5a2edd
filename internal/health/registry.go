package health

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/model"
	"github.com/tollhub/pipeline/internal/platform/bus"
)

const staleAfter = 5 * time.Minute

// AgencyStatus is the most recently observed health state for one agency.
type AgencyStatus struct {
	AgencyID  model.AgencyID `json:"agency_id"`
	Status    string         `json:"status"`
	Detail    string         `json:"detail,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// stale reports whether this status hasn't been refreshed within staleAfter.
func (s AgencyStatus) stale(now time.Time) bool {
	return now.Sub(s.UpdatedAt) > staleAfter
}

// Registry tracks the last-known health of every agency connector, consumed
// from connector.health heartbeats (see internal/agency.Poller.publishHealth).
type Registry struct {
	bus     *bus.Client
	metrics *Metrics
	log     *zap.Logger

	mu       sync.RWMutex
	statuses map[model.AgencyID]AgencyStatus
}

// NewRegistry constructs a Registry.
func NewRegistry(busClient *bus.Client, metrics *Metrics, log *zap.Logger) *Registry {
	return &Registry{
		bus:      busClient,
		metrics:  metrics,
		log:      log,
		statuses: make(map[model.AgencyID]AgencyStatus),
	}
}

// Start launches the durable pull consumer in the background.
func (r *Registry) Start(ctx context.Context) error {
	return bus.RunPullConsumer(ctx, r.bus, bus.TopicConnectorHealth, "health-registry", 32, r.log, r.handle)
}

type connectorHealth struct {
	AgencyID  model.AgencyID `json:"agency_id"`
	Status    string         `json:"status"`
	Detail    string         `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func (r *Registry) handle(ctx context.Context, msg *nats.Msg) error {
	var h connectorHealth
	if err := json.Unmarshal(msg.Data, &h); err != nil {
		return &bus.PoisonPillError{Msg: fmt.Sprintf("unmarshal connector health: %v", err)}
	}

	r.mu.Lock()
	r.statuses[h.AgencyID] = AgencyStatus{AgencyID: h.AgencyID, Status: h.Status, Detail: h.Detail, UpdatedAt: h.Timestamp}
	r.mu.Unlock()

	healthy := 0.0
	if h.Status == "healthy" {
		healthy = 1.0
	}
	r.metrics.ConnectorHealthy.WithLabelValues(string(h.AgencyID)).Set(healthy)
	r.metrics.ConnectorLastEvent.WithLabelValues(string(h.AgencyID)).Set(float64(h.Timestamp.Unix()))
	return nil
}

// Snapshot returns every tracked agency's current status, marking entries
// that have gone stale (no heartbeat within staleAfter) as "unknown".
func (r *Registry) Snapshot() []AgencyStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now().UTC()
	out := make([]AgencyStatus, 0, len(r.statuses))
	for _, s := range r.statuses {
		if s.stale(now) {
			s.Status = "unknown"
		}
		out = append(out, s)
	}
	return out
}

// Aggregate reports the worst status across every tracked agency:
// "unhealthy" if any agency is unhealthy, else "unknown" if any agency
// hasn't reported recently, else "healthy".
func (r *Registry) Aggregate() string {
	statuses := r.Snapshot()
	if len(statuses) == 0 {
		return "unknown"
	}

	worst := "healthy"
	for _, s := range statuses {
		switch s.Status {
		case "unhealthy", "circuit_open":
			return "unhealthy"
		case "unknown":
			worst = "unknown"
		}
	}
	return worst
}
