package webhook_handlers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/asap-xt/shopify-currency-converter/internal/application"
	"github.com/asap-xt/shopify-currency-converter/internal/domain"
)

// SubscriptionUpdateHandler handles app subscription update webhook events.
// Any status change (activation, cancellation, expiry) invalidates the shop's
// cached entitlement so the next request re-evaluates from the Admin API.
type SubscriptionUpdateHandler struct {
	logger         zerolog.Logger
	billingService *application.BillingService
}

// NewSubscriptionUpdateHandler creates a new subscription update webhook handler
func NewSubscriptionUpdateHandler(
	logger zerolog.Logger,
	billingService *application.BillingService,
) *SubscriptionUpdateHandler {
	return &SubscriptionUpdateHandler{
		logger:         logger,
		billingService: billingService,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *SubscriptionUpdateHandler) CanHandle(topic string) bool {
	return topic == "app_subscriptions/update"
}

// Handle processes a subscription update webhook event
func (h *SubscriptionUpdateHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if event.Shop == "" {
		h.logger.Warn().Str("topic", event.Topic).Msg("Subscription update webhook carried no shop domain")
		return nil
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Msg("Processing subscription update webhook event")

	return h.billingService.Invalidate(ctx, event.Shop)
}
