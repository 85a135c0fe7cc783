package shopify

import (
	"context"
	"fmt"
	"strings"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
)

// BillingClient queries a shop's recurring application charges through the
// Admin API, implementing ports.EntitlementSource.
type BillingClient struct {
	app    goshopify.App
	logger zerolog.Logger
}

// NewBillingClient creates a billing client for the given app credentials.
func NewBillingClient(apiKey, apiSecret string, logger zerolog.Logger) *BillingClient {
	return &BillingClient{
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		logger: logger,
	}
}

// ActiveSubscriptions lists the shop's recurring application charges and maps
// them to subscription records. Failures wrap domain.ErrEntitlementQuery so
// the gate can absorb them uniformly.
func (c *BillingClient) ActiveSubscriptions(ctx context.Context, shop string, accessToken string) ([]domain.SubscriptionRecord, error) {
	client, err := goshopify.NewClient(c.app, shop, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEntitlementQuery, err)
	}

	charges, err := client.RecurringApplicationCharge.List(ctx, nil)
	if err != nil {
		c.logger.Error().Err(err).Str("shop", shop).Msg("Failed to list recurring application charges")
		return nil, fmt.Errorf("%w: %v", domain.ErrEntitlementQuery, err)
	}

	records := make([]domain.SubscriptionRecord, 0, len(charges))
	for _, charge := range charges {
		records = append(records, recordFromCharge(charge))
	}

	c.logger.Debug().
		Str("shop", shop).
		Int("charges", len(records)).
		Msg("Fetched recurring application charges")

	return records, nil
}

// recordFromCharge maps a recurring application charge onto a subscription
// record. Test and CreatedAt are the only pointer fields on the charge.
func recordFromCharge(charge goshopify.RecurringApplicationCharge) domain.SubscriptionRecord {
	record := domain.SubscriptionRecord{
		ID:        int64(charge.Id),
		Name:      charge.Name,
		Status:    strings.ToLower(charge.Status),
		TrialDays: charge.TrialDays,
	}
	if charge.Test != nil {
		record.Test = *charge.Test
	}
	if charge.CreatedAt != nil {
		record.CreatedAt = *charge.CreatedAt
	}
	return record
}

// IsAuthError reports whether an Admin API error indicates the access token is
// invalid or revoked. The go-shopify library wraps HTTP errors, so the check
// matches on the error message.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "invalid api key or access token") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "forbidden")
}
