// Package hold implements the ephemeral hold registry on Redis. Each hold
// lives under hold:<reservationId> with a TTL equal to the hold duration,
// so an unconfirmed hold disappears from the registry on its own; the
// expiry timer treats key absence as "nothing left to reclaim".
package hold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ticketly/seating-service/internal/model"
)

const keyPrefix = "hold:"

// ErrHoldNotFound is returned by Get when no record exists for the
// reservation id (either never written or already expired).
var ErrHoldNotFound = errors.New("hold not found")

func holdKey(reservationID string) string { return keyPrefix + reservationID }

// RedisRegistry stores hold records as JSON values with a per-key TTL.
type RedisRegistry struct {
	rdb *redis.Client
}

// NewRedisRegistry binds a registry to the given client. The client must be
// non-nil; the registry is not optional the way caching is, because the
// timer path depends on it to tell live holds from confirmed ones.
func NewRedisRegistry(rdb *redis.Client) *RedisRegistry {
	if rdb == nil {
		panic("nil redis client passed to NewRedisRegistry")
	}
	return &RedisRegistry{rdb: rdb}
}

// Put writes the hold under its reservation id with the given TTL,
// overwriting any previous value.
func (r *RedisRegistry) Put(ctx context.Context, reservationID string, h model.Hold, ttl time.Duration) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal hold: %w", err)
	}
	return r.rdb.Set(ctx, holdKey(reservationID), data, ttl).Err()
}

// Get returns the hold for reservationID, or ErrHoldNotFound.
func (r *RedisRegistry) Get(ctx context.Context, reservationID string) (*model.Hold, error) {
	data, err := r.rdb.Get(ctx, holdKey(reservationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	var h model.Hold
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("unmarshal hold: %w", err)
	}
	return &h, nil
}

// Exists reports whether a live record remains for reservationID. Expired
// keys count as absent even before Redis reaps them.
func (r *RedisRegistry) Exists(ctx context.Context, reservationID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, holdKey(reservationID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the record. Deleting an absent key is not an error.
func (r *RedisRegistry) Delete(ctx context.Context, reservationID string) error {
	return r.rdb.Del(ctx, holdKey(reservationID)).Err()
}
