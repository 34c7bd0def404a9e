package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tradebook/internal/domain/storefront"
	"tradebook/pkg/logger"
)

const availabilityKey = "storefront:availability"

var _ storefront.Cache = (*AvailabilityCache)(nil)

// AvailabilityCache is the Redis-backed TTL snapshot of the storefront
// listing. Cache failures degrade to a database read, never to an
// error.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAvailabilityCache creates a new availability cache.
func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AvailabilityCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot if present and fresh.
func (c *AvailabilityCache) Get(ctx context.Context) ([]storefront.Item, bool) {
	data, err := c.client.Get(ctx, availabilityKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn(ctx, "availability cache read failed", "error", err)
		}
		return nil, false
	}

	var items []storefront.Item
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warn(ctx, "availability cache decode failed", "error", err)
		return nil, false
	}
	return items, true
}

// Set stores a snapshot with the configured TTL.
func (c *AvailabilityCache) Set(ctx context.Context, items []storefront.Item) {
	data, err := json.Marshal(items)
	if err != nil {
		logger.Warn(ctx, "availability cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, availabilityKey, data, c.ttl).Err(); err != nil {
		logger.Warn(ctx, "availability cache write failed", "error", err)
	}
}

// Invalidate drops the snapshot.
func (c *AvailabilityCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, availabilityKey).Err(); err != nil {
		logger.Warn(ctx, "availability cache invalidate failed", "error", err)
	}
}
