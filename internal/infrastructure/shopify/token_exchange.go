package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
	"github.com/asap-xt/shopify-currency-converter/internal/ports"
)

const (
	grantTypeTokenExchange    = "urn:ietf:params:oauth:grant-type:token-exchange"
	subjectTokenTypeIDToken   = "urn:ietf:params:oauth:token-type:id_token"
	requestedTokenTypeOffline = "urn:shopify:params:oauth:token-type:offline-access-token"
)

// TokenExchangeClient exchanges a session token for a durable offline access
// token via Shopify's token exchange endpoint.
type TokenExchangeClient struct {
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	logger     zerolog.Logger

	// baseURL overrides the per-shop endpoint in tests.
	baseURL string
}

// NewTokenExchangeClient creates a token exchange client. The timeout bounds
// the whole exchange call; a timed-out call reports the same failure as any
// other exchange error.
func NewTokenExchangeClient(apiKey, apiSecret string, timeout time.Duration, logger zerolog.Logger) *TokenExchangeClient {
	return &TokenExchangeClient{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// WithBaseURL points the client at a fixed endpoint instead of
// https://<shop>. Used by tests.
func (c *TokenExchangeClient) WithBaseURL(baseURL string) *TokenExchangeClient {
	c.baseURL = baseURL
	return c
}

// ExchangeToken performs the token exchange for a shop. Remote errors,
// timeouts, and responses without an access token all collapse into
// domain.ErrExchangeFailed; the caller does not retry, the client's next
// request re-submits the assertion and triggers a fresh exchange.
func (c *TokenExchangeClient) ExchangeToken(ctx context.Context, shop string, sessionToken string) (*ports.AccessCredential, error) {
	if shop == "" {
		return nil, fmt.Errorf("%w: shop is required", domain.ErrExchangeFailed)
	}
	if sessionToken == "" {
		return nil, fmt.Errorf("%w: session token is required", domain.ErrExchangeFailed)
	}

	tokenURL := fmt.Sprintf("https://%s/admin/oauth/access_token", shop)
	if c.baseURL != "" {
		tokenURL = c.baseURL + "/admin/oauth/access_token"
	}

	values := url.Values{}
	values.Set("client_id", c.apiKey)
	values.Set("client_secret", c.apiSecret)
	values.Set("grant_type", grantTypeTokenExchange)
	values.Set("subject_token", sessionToken)
	values.Set("subject_token_type", subjectTokenTypeIDToken)
	values.Set("requested_token_type", requestedTokenTypeOffline)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExchangeFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("shop", shop).Msg("Token exchange request failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("shop", shop).
			Str("body", string(bodyBytes)).
			Msg("Token exchange returned non-OK status")
		return nil, fmt.Errorf("%w: status %d", domain.ErrExchangeFailed, resp.StatusCode)
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExchangeFailed, err)
	}

	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("%w: response contained no access token", domain.ErrExchangeFailed)
	}

	c.logger.Info().
		Str("shop", shop).
		Str("scope", tokenResponse.Scope).
		Msg("Token exchange completed")

	return &ports.AccessCredential{
		AccessToken: tokenResponse.AccessToken,
		Scope:       tokenResponse.Scope,
	}, nil
}
