package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const lockPrefix = "reservation_lock:"

// Redis holds short-lived mutation locks on reservations.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{
		Client: client,
		TTL:    ttl,
	}
}

func lockKey(reservationID string) string {
	return lockPrefix + reservationID
}

// Lock returns false when another owner holds the lock.
func (r *Redis) Lock(ctx context.Context, reservationID, owner string) (bool, error) {
	ok, err := r.Client.SetNX(ctx, lockKey(reservationID), owner, r.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("lock reservation %s: %w", reservationID, err)
	}
	return ok, nil
}

// Unlock only releases a lock taken by owner; an expired or foreign lock is left alone.
func (r *Redis) Unlock(ctx context.Context, reservationID, owner string) error {
	key := lockKey(reservationID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already unlocked
	}
	if err != nil {
		return err
	}
	if val == owner {
		return r.Client.Del(ctx, key).Err()
	}
	return nil
}
