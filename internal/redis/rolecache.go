package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoleCache is used by the API auth middleware so that resolving a bearer
// token does not hit the document store on every request.
type RoleCache interface {
	Get(ctx context.Context, userID string) (role string, ok bool, err error)
	Set(ctx context.Context, userID, role string) error
	Invalidate(ctx context.Context, userID string) error
}

type redisRoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRoleCache creates a cache that keeps one Redis key per user
func NewRedisRoleCache(client *redis.Client, ttl time.Duration) RoleCache {
	return &redisRoleCache{
		client: client,
		ttl:    ttl,
	}
}

func roleKey(userID string) string {
	return fmt.Sprintf("rolecache:user:%s", userID)
}

func (c *redisRoleCache) Get(ctx context.Context, userID string) (string, bool, error) {
	role, err := c.client.Get(ctx, roleKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get cached role: %w", err)
	}
	return role, true, nil
}

func (c *redisRoleCache) Set(ctx context.Context, userID, role string) error {
	if err := c.client.Set(ctx, roleKey(userID), role, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache role: %w", err)
	}
	return nil
}

func (c *redisRoleCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, roleKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached role: %w", err)
	}
	return nil
}
