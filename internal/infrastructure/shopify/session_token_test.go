package shopify_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
	"github.com/asap-xt/shopify-currency-converter/internal/infrastructure/shopify"
)

const (
	testAPIKey    = "test-api-key"
	testAPISecret = "test-api-secret"
)

func signSessionToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":  "https://foo.myshopify.com/admin",
		"dest": "https://foo.myshopify.com",
		"aud":  testAPIKey,
		"sub":  "42",
		"exp":  now.Add(time.Minute).Unix(),
		"nbf":  now.Add(-time.Minute).Unix(),
		"iat":  now.Add(-time.Minute).Unix(),
	}
}

func TestSessionTokenDecoder_Decode(t *testing.T) {
	t.Parallel()

	decoder := shopify.NewSessionTokenDecoder(testAPIKey, testAPISecret)

	t.Run("valid token yields the shop", func(t *testing.T) {
		encoded := signSessionToken(t, testAPISecret, validClaims())

		token, err := decoder.Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, "foo.myshopify.com", token.Shop)
		assert.Equal(t, "https://foo.myshopify.com", token.Dest)
		assert.Equal(t, "https://foo.myshopify.com/admin", token.Issuer)
	})

	t.Run("wrong signing key is rejected", func(t *testing.T) {
		encoded := signSessionToken(t, "other-secret", validClaims())

		_, err := decoder.Decode(encoded)
		assert.True(t, errors.Is(err, domain.ErrInvalidSessionToken))
	})

	t.Run("wrong audience is rejected", func(t *testing.T) {
		claims := validClaims()
		claims["aud"] = "someone-elses-app"
		encoded := signSessionToken(t, testAPISecret, claims)

		_, err := decoder.Decode(encoded)
		assert.True(t, errors.Is(err, domain.ErrInvalidSessionToken))
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
		encoded := signSessionToken(t, testAPISecret, claims)

		_, err := decoder.Decode(encoded)
		assert.True(t, errors.Is(err, domain.ErrInvalidSessionToken))
	})

	t.Run("missing expiry is rejected", func(t *testing.T) {
		claims := validClaims()
		delete(claims, "exp")
		encoded := signSessionToken(t, testAPISecret, claims)

		_, err := decoder.Decode(encoded)
		assert.True(t, errors.Is(err, domain.ErrInvalidSessionToken))
	})

	t.Run("unusable dest claim is rejected", func(t *testing.T) {
		claims := validClaims()
		claims["dest"] = "not a url"
		encoded := signSessionToken(t, testAPISecret, claims)

		_, err := decoder.Decode(encoded)
		assert.True(t, errors.Is(err, domain.ErrInvalidSessionToken))
	})

	t.Run("garbage input is rejected", func(t *testing.T) {
		_, err := decoder.Decode("not-a-jwt")
		assert.True(t, errors.Is(err, domain.ErrInvalidSessionToken))
	})
}
