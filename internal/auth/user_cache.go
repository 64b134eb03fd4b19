package auth

import (
	"context"
	"encoding/json"
	"time"

	"ms-reservations/internal/models"

	"github.com/go-redis/redis/v8"
)

const userCachePrefix = "auth_user:"

// RedisUserCache sits in front of a UserStore so that authenticated requests
// do not hit Postgres for every call. A deactivated user keeps access for at
// most TTL.
type RedisUserCache struct {
	Client *redis.Client
	Next   UserStore
	TTL    time.Duration
}

func NewRedisUserCache(client *redis.Client, next UserStore, ttl time.Duration) *RedisUserCache {
	return &RedisUserCache{
		Client: client,
		Next:   next,
		TTL:    ttl,
	}
}

func (c *RedisUserCache) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	key := userCachePrefix + id

	cached, err := c.Client.Get(ctx, key).Result()
	if err == nil {
		var user models.User
		if jsonErr := json.Unmarshal([]byte(cached), &user); jsonErr == nil {
			return &user, nil
		}
	}

	user, err := c.Next.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// a cache write failure only costs a database read next time
	if payload, jsonErr := json.Marshal(user); jsonErr == nil {
		c.Client.Set(ctx, key, payload, c.TTL)
	}
	return user, nil
}
