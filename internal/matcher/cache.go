package matcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tollhub/pipeline/internal/model"
)

const cacheTTL = 15 * time.Minute

// VehicleCache is a write-through Redis cache in front of the exact-match
// lookup, the same GoRedisAdapter-style client used by internal/dedup,
// invalidated whenever a vehicle.updated bus message arrives (see sync.go).
type VehicleCache struct {
	rdb *redis.Client
}

// NewVehicleCache wraps an existing *redis.Client.
func NewVehicleCache(rdb *redis.Client) *VehicleCache {
	return &VehicleCache{rdb: rdb}
}

func cacheKey(plate, plateState string) string {
	return "matcher:vehicle:" + plateState + ":" + plate
}

// Get returns the cached Vehicle for (plate, plateState), if present.
func (c *VehicleCache) Get(ctx context.Context, plate, plateState string) (model.Vehicle, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(plate, plateState)).Bytes()
	if err != nil {
		return model.Vehicle{}, false
	}
	var v model.Vehicle
	if err := json.Unmarshal(raw, &v); err != nil {
		return model.Vehicle{}, false
	}
	return v, true
}

// Set writes v into the cache with a bounded TTL.
func (c *VehicleCache) Set(ctx context.Context, v model.Vehicle) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, cacheKey(v.Plate, v.PlateState), raw, cacheTTL)
}

// Invalidate drops the cached entry for (plate, plateState), called when a
// vehicle.updated event changes a vehicle's identity or plate assignment.
func (c *VehicleCache) Invalidate(ctx context.Context, plate, plateState string) {
	c.rdb.Del(ctx, cacheKey(plate, plateState))
}
