package ports

import (
	"context"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
)

// SubscriptionCache defines the interface for the time-bounded entitlement cache.
//
// Get returns (nil, nil) both for absent entries and for entries older than the
// cache TTL; stale entries are never served. Invalidating an absent entry is
// not an error.
type SubscriptionCache interface {
	Get(ctx context.Context, shop string) (*domain.EntitlementStatus, error)
	Put(ctx context.Context, status *domain.EntitlementStatus) error
	Invalidate(ctx context.Context, shop string) error
}
