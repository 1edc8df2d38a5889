package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/city-issue-service/internal/geocode"
)

// GeocodeCache stores resolved addresses in Redis with a TTL. Expired entries
// vanish on their own; Redis never serves them back.
type GeocodeCache struct {
	client *redis.Client
}

// NewGeocodeCache wraps the shared Redis client.
func NewGeocodeCache(r *Redis) *GeocodeCache {
	return &GeocodeCache{client: r.Client}
}

// Get returns the cached result for the key, reporting a miss when absent.
func (c *GeocodeCache) Get(ctx context.Context, key string) (*geocode.Result, bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var result geocode.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

// Set stores the result under the key for the given TTL.
func (c *GeocodeCache) Set(ctx context.Context, key string, result *geocode.Result, ttl time.Duration) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}
