package persistence

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const predictionKeyPrefix = "prediction:"

// PredictionCache stores predicted hours-to-resolution per issue in Redis.
// Absence simply means "not yet predicted."
type PredictionCache struct {
	client *redis.Client
}

// NewPredictionCache wraps the shared Redis client.
func NewPredictionCache(r *Redis) *PredictionCache {
	return &PredictionCache{client: r.Client}
}

// Get returns the cached prediction for the issue, reporting a miss when
// absent or expired.
func (c *PredictionCache) Get(ctx context.Context, issueID string) (float64, bool, error) {
	raw, err := c.client.Get(ctx, predictionKeyPrefix+issueID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return hours, true, nil
}

// Set stores the prediction, replacing any prior value.
func (c *PredictionCache) Set(ctx context.Context, issueID string, hours float64, ttl time.Duration) error {
	value := strconv.FormatFloat(hours, 'f', -1, 64)
	return c.client.Set(ctx, predictionKeyPrefix+issueID, value, ttl).Err()
}
