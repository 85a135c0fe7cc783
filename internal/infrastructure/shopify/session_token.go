package shopify

import (
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
	"github.com/asap-xt/shopify-currency-converter/internal/ports"
)

// sessionTokenClaims are the claims carried by an embedded-app session token.
// The dest claim is a URL whose hostname is the shop; the audience is the
// app's API key.
type sessionTokenClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// SessionTokenDecoder validates and decodes Shopify session tokens. Tokens are
// HS256 JWTs signed with the app's API secret.
type SessionTokenDecoder struct {
	apiKey    string
	apiSecret string
}

// NewSessionTokenDecoder creates a decoder for the given app credentials.
func NewSessionTokenDecoder(apiKey, apiSecret string) *SessionTokenDecoder {
	return &SessionTokenDecoder{
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// Decode verifies the token's signature, expiry, and audience, and recovers the
// shop from the dest claim. Every failure mode collapses into
// domain.ErrInvalidSessionToken: there is no distinct recovery per cause, the
// client re-acquires a fresh token either way.
func (d *SessionTokenDecoder) Decode(token string) (*ports.SessionToken, error) {
	claims := &sessionTokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return []byte(d.apiSecret), nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience(d.apiKey),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSessionToken, err)
	}

	dest, err := url.Parse(claims.Dest)
	if err != nil || dest.Hostname() == "" {
		return nil, fmt.Errorf("%w: dest claim is not a valid URL", domain.ErrInvalidSessionToken)
	}

	return &ports.SessionToken{
		Shop:   dest.Hostname(),
		Dest:   claims.Dest,
		Issuer: claims.Issuer,
	}, nil
}
