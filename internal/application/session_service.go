package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
	"github.com/asap-xt/shopify-currency-converter/internal/infrastructure/metrics"
	"github.com/asap-xt/shopify-currency-converter/internal/ports"
)

// SessionService resolves and provisions merchant install sessions
type SessionService struct {
	store     ports.SessionStore
	exchanger ports.TokenExchanger
	logger    zerolog.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	store ports.SessionStore,
	exchanger ports.TokenExchanger,
	logger zerolog.Logger,
) *SessionService {
	return &SessionService{
		store:     store,
		exchanger: exchanger,
		logger:    logger,
	}
}

// EnsureSession returns the shop's offline session, provisioning one through
// token exchange when none exists. Re-provisioning always overwrites the
// deterministic session ID, so repeated calls leave exactly one stored session
// per shop no matter how many exchanges occurred.
//
// Two concurrent calls for a never-before-seen shop may both exchange and both
// write; last-write-wins is harmless since both writes carry equally valid
// credentials.
func (s *SessionService) EnsureSession(ctx context.Context, shop string, sessionToken string) (*domain.Session, error) {
	existing, err := s.resolveOffline(ctx, shop)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	credential, err := s.exchanger.ExchangeToken(ctx, shop, sessionToken)
	if err != nil {
		metrics.TokenExchanges.WithLabelValues("failure").Inc()
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to provision session")
		return nil, err
	}
	metrics.TokenExchanges.WithLabelValues("success").Inc()

	session := domain.NewOfflineSession(shop, credential.AccessToken, credential.Scope)
	if err := s.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info().
		Str("shop", shop).
		Str("sessionId", session.ID).
		Str("scope", session.Scope).
		Msg("Provisioned offline session")

	return session, nil
}

// resolveOffline picks the shop's usable offline session: not online, with a
// present access token. Stored but unprovisioned sessions are skipped.
func (s *SessionService) resolveOffline(ctx context.Context, shop string) (*domain.Session, error) {
	sessions, err := s.store.FindByShop(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sessions: %w", err)
	}

	for _, session := range sessions {
		if !session.IsOnline && session.Provisioned() {
			return session, nil
		}
	}
	return nil, nil
}

// InvalidateShop deletes the shop's offline session. Called on app uninstall
// and when a stored token is detected to be stale.
func (s *SessionService) InvalidateShop(ctx context.Context, shop string) error {
	if err := s.store.Delete(ctx, domain.OfflineSessionID(shop)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.Info().Str("shop", shop).Msg("Invalidated offline session")
	return nil
}
