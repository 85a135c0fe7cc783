package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/asap-xt/shopify-currency-converter/internal/application"
	"github.com/asap-xt/shopify-currency-converter/internal/domain"
)

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	logger         zerolog.Logger
	sessionService *application.SessionService
	billingService *application.BillingService
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(
	logger zerolog.Logger,
	sessionService *application.SessionService,
	billingService *application.BillingService,
) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger:         logger,
		sessionService: sessionService,
		billingService: billingService,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == "app/uninstalled"
}

// Handle processes an app uninstalled webhook event: the shop's offline
// session and cached subscription status are both invalidated so a reinstall
// starts from a clean slate.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain := event.Shop
	if shopDomain == "" {
		var shopData map[string]interface{}
		if err := json.Unmarshal(event.Payload, &shopData); err != nil {
			return fmt.Errorf("failed to parse app uninstalled webhook payload: %w", err)
		}
		if d, ok := shopData["domain"].(string); ok {
			shopDomain = d
		} else if d, ok := shopData["myshopify_domain"].(string); ok {
			shopDomain = d
		}
	}
	if shopDomain == "" {
		return fmt.Errorf("app uninstalled webhook carried no shop domain")
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopDomain).
		Msg("Processing app uninstalled webhook event")

	if err := h.sessionService.InvalidateShop(ctx, shopDomain); err != nil {
		h.logger.Warn().Err(err).Str("shop", shopDomain).Msg("Failed to delete session on uninstall")
	}

	if err := h.billingService.Invalidate(ctx, shopDomain); err != nil {
		h.logger.Warn().Err(err).Str("shop", shopDomain).Msg("Failed to invalidate subscription cache on uninstall")
	}

	h.logger.Info().Str("shop", shopDomain).Msg("App uninstalled - cleanup completed")
	return nil
}
