package middleware

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/asap-xt/shopify-currency-converter/internal/application"
	"github.com/asap-xt/shopify-currency-converter/internal/domain"
	"github.com/asap-xt/shopify-currency-converter/internal/infrastructure/metrics"
	"github.com/asap-xt/shopify-currency-converter/internal/infrastructure/shopify"
)

// Routes that always bypass the gate. The status endpoint feeds the admin UI
// its plan state and the billing routes complete the purchase flow; gating
// either would deadlock the path out of the unentitled state.
var exemptPaths = []string{
	"/api/subscription-status",
	"/billing/",
}

// breakoutPage navigates the top frame to the pricing plans page. Plain
// redirects are swallowed by the iframe sandbox, so when the request comes
// from inside the embedded admin the gate serves this page instead.
var breakoutPage = template.Must(template.New("breakout").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Redirecting…</title></head>
<body>
<script>window.open({{.URL}}, "_top");</script>
</body>
</html>
`))

// RequireSubscription gates authenticated requests on an active or in-trial
// subscription.
//
// Decision order: exempt route -> pass; fresh cache entry or remote refresh ->
// allow or redirect to plan selection (iframe requests get a top-frame
// breakout page); evaluation error -> fail open. Availability wins over strict
// enforcement: a false allow only delays revenue detection until the next
// check, while a false block locks out a paying merchant. An auth-classed
// query failure additionally deletes the stored session so the next request
// re-exchanges instead of reusing a revoked token.
func RequireSubscription(
	billingService *application.BillingService,
	sessionService *application.SessionService,
	logger zerolog.Logger,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range exemptPaths {
				if r.URL.Path == prefix || strings.HasPrefix(r.URL.Path, prefix) {
					metrics.EntitlementDecisions.WithLabelValues("exempt").Inc()
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := r.Context()
			shop := domain.GetShopFromContext(ctx)
			session := domain.GetSessionFromContext(ctx)
			if shop == "" || !session.Provisioned() {
				// The gate runs behind VerifyRequest; missing state means a
				// wiring problem, not a billing decision. Fail open.
				logger.Error().Str("path", r.URL.Path).Msg("Entitlement gate reached without authenticated session")
				metrics.EntitlementDecisions.WithLabelValues("fail_open").Inc()
				next.ServeHTTP(w, r)
				return
			}

			status, err := billingService.Entitlement(ctx, shop, session.AccessToken)
			if err != nil {
				if shopify.IsAuthError(err) {
					logger.Warn().Str("shop", shop).Msg("Entitlement query rejected access token, deleting stale session")
					if delErr := sessionService.InvalidateShop(ctx, shop); delErr != nil {
						logger.Warn().Err(delErr).Str("shop", shop).Msg("Failed to delete stale session")
					}
				}
				logger.Error().Err(err).Str("shop", shop).Msg("Failed to evaluate entitlement, allowing request")
				metrics.EntitlementDecisions.WithLabelValues("fail_open").Inc()
				next.ServeHTTP(w, r)
				return
			}

			if !status.HasActiveSubscription {
				planURL := billingService.PricingPlansURL(shop)
				logger.Info().
					Str("shop", shop).
					Str("planURL", planURL).
					Msg("Shop has no active subscription, redirecting to plan selection")
				metrics.EntitlementDecisions.WithLabelValues("redirected").Inc()

				if r.URL.Query().Get("embedded") == "1" {
					w.Header().Set("Content-Type", "text/html; charset=utf-8")
					if err := breakoutPage.Execute(w, map[string]string{"URL": planURL}); err != nil {
						fmt.Fprint(w, planURL)
					}
					return
				}
				http.Redirect(w, r, planURL, http.StatusFound)
				return
			}

			metrics.EntitlementDecisions.WithLabelValues("allowed").Inc()
			next.ServeHTTP(w, r.WithContext(domain.WithEntitlement(ctx, status)))
		})
	}
}
