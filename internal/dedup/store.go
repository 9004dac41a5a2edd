// Package dedup implements the pipeline's idempotent-consumer boundary: a
// Redis-backed check-and-set store keyed on (agency_id, external_event_id)
// so a redelivered raw event is recognized and dropped instead of
// reprocessed, per spec.md §4.3. Adapted from
// Generativebots-ocx-backend-go-svc's internal/infra.GoRedisAdapter, which
// wraps go-redis v9 the same way.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tollhub/pipeline/internal/model"
)

const keyPrefix = "dedup:event:"

// Store is a TTL'd set-if-absent check for event de-duplication.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore constructs a Store bound to addr, keeping every key for ttl.
func NewStore(addr, password string, db int, ttl time.Duration) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     20,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%w: dedup store redis ping: %v", model.ErrTransient, err)
	}

	return &Store{rdb: rdb, ttl: ttl}, nil
}

func key(agencyID model.AgencyID, externalEventID string) string {
	return keyPrefix + string(agencyID) + ":" + externalEventID
}

// SeenOrMark atomically checks whether (agencyID, externalEventID) has
// already been processed and, if not, marks it seen for the store's TTL.
// Returns true when the event is a duplicate and should be dropped.
func (s *Store) SeenOrMark(ctx context.Context, agencyID model.AgencyID, externalEventID string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key(agencyID, externalEventID), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: dedup SetNX: %v", model.ErrTransient, err)
	}
	// SetNX returns true when the key was newly set, i.e. this is the first
	// time we have seen the event.
	return !ok, nil
}

// Close releases the underlying Redis connection pool.
func (s *Store) Close() error {
	return s.rdb.Close()
}
