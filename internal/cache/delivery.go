package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	deliveryKeyPrefix = "webhook:delivery:"

	// DeliveryDedupeTTL covers GitHub's redelivery window.
	DeliveryDedupeTTL = 24 * time.Hour
)

// MarkDelivery records a webhook delivery ID. It returns false when the ID
// was already seen.
func (c *Cache) MarkDelivery(ctx context.Context, deliveryID string) (bool, error) {
	ok, err := c.client.SetNX(ctx, deliveryKeyPrefix+deliveryID, time.Now().Unix(), DeliveryDedupeTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark delivery: %w", err)
	}
	return ok, nil
}

// ForgetDelivery drops a delivery ID so a failed delivery can be retried.
func (c *Cache) ForgetDelivery(ctx context.Context, deliveryID string) error {
	return c.client.Del(ctx, deliveryKeyPrefix+deliveryID).Err()
}
