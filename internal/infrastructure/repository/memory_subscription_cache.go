package repository

import (
	"context"
	"sync"
	"time"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
	"github.com/asap-xt/shopify-currency-converter/internal/ports"
)

// MemorySubscriptionCache implements SubscriptionCache with a mutex-guarded
// map. Staleness is decided purely by the fetchedAt freshness check on read.
type MemorySubscriptionCache struct {
	mu      sync.RWMutex
	entries map[string]*domain.EntitlementStatus
	ttl     time.Duration
	now     func() time.Time
}

var _ ports.SubscriptionCache = (*MemorySubscriptionCache)(nil)

// NewMemorySubscriptionCache creates a new in-memory subscription cache
func NewMemorySubscriptionCache(ttl time.Duration) *MemorySubscriptionCache {
	return &MemorySubscriptionCache{
		entries: make(map[string]*domain.EntitlementStatus),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the cache's clock. Used by tests.
func (c *MemorySubscriptionCache) WithClock(now func() time.Time) *MemorySubscriptionCache {
	c.now = now
	return c
}

// Get retrieves a shop's entitlement entry; stale entries are evicted and
// reported as misses.
func (c *MemorySubscriptionCache) Get(ctx context.Context, shop string) (*domain.EntitlementStatus, error) {
	c.mu.RLock()
	entry, exists := c.entries[shop]
	c.mu.RUnlock()

	if !exists {
		return nil, nil
	}

	if !entry.Fresh(c.now(), c.ttl) {
		// Re-check under the write lock: a Put may have replaced the entry
		// between releasing the read lock and acquiring the write lock, and a
		// fresh replacement must not be evicted.
		c.mu.Lock()
		if current, ok := c.entries[shop]; ok && !current.Fresh(c.now(), c.ttl) {
			delete(c.entries, shop)
		}
		c.mu.Unlock()
		return nil, nil
	}

	entryCopy := *entry
	return &entryCopy, nil
}

// Put stores a shop's entitlement entry
func (c *MemorySubscriptionCache) Put(ctx context.Context, status *domain.EntitlementStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entryCopy := *status
	c.entries[status.Shop] = &entryCopy
	return nil
}

// Invalidate deletes a shop's entitlement entry
func (c *MemorySubscriptionCache) Invalidate(ctx context.Context, shop string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, shop)
	return nil
}
