package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meetupbot/meetupbot/internal/model"
)

const (
	// robotCachePrefix is the Redis key prefix for verified robot keys.
	robotCachePrefix = "auth:robot:"
	// robotCacheTTL bounds how long a removed key keeps working.
	robotCacheTTL = 5 * time.Minute
)

// GetRobot retrieves a cached robot verification by cache key.
// Returns nil if not found (cache miss).
func (c *Cache) GetRobot(ctx context.Context, cacheKey string) (*model.Robot, error) {
	data, err := c.client.Get(ctx, robotCachePrefix+cacheKey).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var robot model.Robot
	if err := json.Unmarshal(data, &robot); err != nil || robot.KeyPrefix == "" {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &robot, nil
}

// SetRobot caches a successful robot key verification.
func (c *Cache) SetRobot(ctx context.Context, cacheKey string, robot *model.Robot) error {
	data, err := json.Marshal(robot)
	if err != nil {
		return fmt.Errorf("marshal robot: %w", err)
	}

	return c.client.Set(ctx, robotCachePrefix+cacheKey, data, robotCacheTTL).Err()
}
