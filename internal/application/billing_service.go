package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
	"github.com/asap-xt/shopify-currency-converter/internal/infrastructure/metrics"
	"github.com/asap-xt/shopify-currency-converter/internal/ports"
)

// BillingService evaluates a shop's subscription entitlement, backed by the
// time-bounded cache and the remote Admin API source.
type BillingService struct {
	cache     ports.SubscriptionCache
	source    ports.EntitlementSource
	adminHost string
	appHandle string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewBillingService creates a new billing service
func NewBillingService(
	cache ports.SubscriptionCache,
	source ports.EntitlementSource,
	adminHost string,
	appHandle string,
	logger zerolog.Logger,
) *BillingService {
	return &BillingService{
		cache:     cache,
		source:    source,
		adminHost: adminHost,
		appHandle: appHandle,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the service's clock. Used by tests.
func (s *BillingService) WithClock(now func() time.Time) *BillingService {
	s.now = now
	return s
}

// Entitlement returns the shop's entitlement status, serving from cache when a
// fresh entry exists and refreshing from the remote source otherwise. A cache
// read error is treated as a miss, a cache write error is logged and ignored;
// only a source failure propagates, wrapped as domain.ErrEntitlementQuery.
func (s *BillingService) Entitlement(ctx context.Context, shop string, accessToken string) (*domain.EntitlementStatus, error) {
	cached, err := s.cache.Get(ctx, shop)
	if err != nil {
		s.logger.Warn().Err(err).Str("shop", shop).Msg("Subscription cache read failed, falling through to source")
	}
	if cached != nil {
		metrics.SubscriptionCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.SubscriptionCacheLookups.WithLabelValues("miss").Inc()

	records, err := s.source.ActiveSubscriptions(ctx, shop, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEntitlementQuery, err)
	}

	status := domain.NewEntitlementStatus(shop, records, s.now())
	if err := s.cache.Put(ctx, status); err != nil {
		s.logger.Warn().Err(err).Str("shop", shop).Msg("Failed to cache subscription status")
	}

	s.logger.Info().
		Str("shop", shop).
		Bool("hasActiveSubscription", status.HasActiveSubscription).
		Int("subscriptions", len(status.Subscriptions)).
		Msg("Refreshed subscription status")

	return status, nil
}

// Invalidate deletes the shop's cached entitlement so the next check
// re-evaluates from the source of truth. Wired to the billing callback,
// subscription cancellation, and app uninstall.
func (s *BillingService) Invalidate(ctx context.Context, shop string) error {
	if err := s.cache.Invalidate(ctx, shop); err != nil {
		return fmt.Errorf("failed to invalidate subscription status: %w", err)
	}

	s.logger.Info().Str("shop", shop).Msg("Invalidated cached subscription status")
	return nil
}

// PricingPlansURL builds the hosted plan-selection URL for a shop.
func (s *BillingService) PricingPlansURL(shop string) string {
	return fmt.Sprintf("https://%s/store/%s/charges/%s/pricing_plans",
		s.adminHost, domain.ShopHandle(shop), s.appHandle)
}
