package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
	"github.com/asap-xt/shopify-currency-converter/internal/ports"
)

const subscriptionKeyPrefix = "subscription_status:"

// RedisSubscriptionCache implements SubscriptionCache using Redis. Entries are
// stored as JSON with a Redis expiry matching the TTL; the fetchedAt freshness
// check is applied on read as well, so an entry that outlived its TTL (clock
// skew, a lowered TTL setting) is still reported as a miss.
type RedisSubscriptionCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisSubscriptionCache creates a new Redis-backed subscription cache
func NewRedisSubscriptionCache(client *redis.Client, ttl time.Duration) ports.SubscriptionCache {
	return &RedisSubscriptionCache{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get retrieves a shop's entitlement entry. Absent and stale entries both
// return (nil, nil).
func (c *RedisSubscriptionCache) Get(ctx context.Context, shop string) (*domain.EntitlementStatus, error) {
	data, err := c.client.Get(ctx, subscriptionKeyPrefix+shop).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription status: %w", err)
	}

	var status domain.EntitlementStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to decode subscription status: %w", err)
	}

	if !status.Fresh(c.now(), c.ttl) {
		return nil, nil
	}

	return &status, nil
}

// Put stores a shop's entitlement entry with the cache TTL
func (c *RedisSubscriptionCache) Put(ctx context.Context, status *domain.EntitlementStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode subscription status: %w", err)
	}

	if err := c.client.Set(ctx, subscriptionKeyPrefix+status.Shop, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store subscription status: %w", err)
	}

	return nil
}

// Invalidate deletes a shop's entitlement entry
func (c *RedisSubscriptionCache) Invalidate(ctx context.Context, shop string) error {
	if err := c.client.Del(ctx, subscriptionKeyPrefix+shop).Err(); err != nil {
		return fmt.Errorf("failed to invalidate subscription status: %w", err)
	}
	return nil
}
