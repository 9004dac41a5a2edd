package matcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/model"
	"github.com/tollhub/pipeline/internal/platform/bus"
)

// VehicleWriter is the subset of store.Store the vehicle replica sync needs.
type VehicleWriter interface {
	UpsertVehicle(ctx context.Context, v model.Vehicle) error
}

// VehicleSync keeps the local vehicles_replica table (and the Matcher's
// write-through cache) current by subscribing to the vehicle.updated topic
// the identity service publishes, the same externally-fed replication
// idiom the reference monorepo uses for its replicated_data_dictionary.
type VehicleSync struct {
	bus   *bus.Client
	store VehicleWriter
	cache *VehicleCache
	log   *zap.Logger
}

// NewVehicleSync constructs a VehicleSync.
func NewVehicleSync(busClient *bus.Client, store VehicleWriter, cache *VehicleCache, log *zap.Logger) *VehicleSync {
	return &VehicleSync{bus: busClient, store: store, cache: cache, log: log}
}

// Start launches the durable pull consumer in the background.
func (s *VehicleSync) Start(ctx context.Context) error {
	return bus.RunPullConsumer(ctx, s.bus, bus.TopicVehicleUpdated, "matcher-vehicle-sync", 32, s.log, s.handle)
}

func (s *VehicleSync) handle(ctx context.Context, msg *nats.Msg) error {
	var v model.Vehicle
	if err := json.Unmarshal(msg.Data, &v); err != nil {
		return &bus.PoisonPillError{Msg: fmt.Sprintf("unmarshal vehicle.updated: %v", err)}
	}

	if err := s.store.UpsertVehicle(ctx, v); err != nil {
		return err // transient: retry
	}
	s.cache.Invalidate(ctx, v.Plate, v.PlateState)
	return nil
}
