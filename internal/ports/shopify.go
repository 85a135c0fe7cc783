package ports

import (
	"context"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
)

// SessionToken is a decoded, verified identity assertion. Decoding is
// all-or-nothing: a SessionToken is only produced after signature, expiry, and
// audience checks passed, so its Shop can be trusted as the tenant identity.
type SessionToken struct {
	Shop   string // hostname of the dest claim
	Dest   string
	Issuer string
}

// SessionTokenDecoder validates and decodes an encoded identity assertion.
type SessionTokenDecoder interface {
	Decode(token string) (*SessionToken, error)
}

// AccessCredential is the result of a successful token exchange.
type AccessCredential struct {
	AccessToken string
	Scope       string
}

// TokenExchanger converts a freshly decoded identity assertion into a durable
// offline access credential. Implementations perform no retries; a failure
// surfaces as domain.ErrExchangeFailed and the client re-attempts on its next call.
type TokenExchanger interface {
	ExchangeToken(ctx context.Context, shop string, sessionToken string) (*AccessCredential, error)
}

// EntitlementSource queries the shop's current recurring subscription records
// from the Admin API.
type EntitlementSource interface {
	ActiveSubscriptions(ctx context.Context, shop string, accessToken string) ([]domain.SubscriptionRecord, error)
}
