package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asap-xt/shopify-currency-converter/internal/application"
	"github.com/asap-xt/shopify-currency-converter/internal/domain"
	"github.com/asap-xt/shopify-currency-converter/internal/infrastructure/repository"
	"github.com/asap-xt/shopify-currency-converter/internal/ports"
)

type fakeExchanger struct {
	calls int
	cred  *ports.AccessCredential
	err   error
}

func (f *fakeExchanger) ExchangeToken(ctx context.Context, shop string, sessionToken string) (*ports.AccessCredential, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.cred, nil
}

func TestSessionService_EnsureSession(t *testing.T) {
	t.Parallel()

	const shop = "foo.myshopify.com"

	t.Run("provisions a session once for repeated calls", func(t *testing.T) {
		store := repository.NewMemorySessionStore()
		exchanger := &fakeExchanger{cred: &ports.AccessCredential{AccessToken: "tok123", Scope: "read_orders"}}
		svc := application.NewSessionService(store, exchanger, zerolog.Nop())

		first, err := svc.EnsureSession(context.Background(), shop, "jwt-1")
		require.NoError(t, err)
		assert.Equal(t, "offline_foo.myshopify.com", first.ID)
		assert.Equal(t, "tok123", first.AccessToken)
		assert.False(t, first.IsOnline)

		second, err := svc.EnsureSession(context.Background(), shop, "jwt-2")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, exchanger.calls, "existing session must not trigger a second exchange")

		sessions, err := store.FindByShop(context.Background(), shop)
		require.NoError(t, err)
		assert.Len(t, sessions, 1, "exactly one stored session per shop")
	})

	t.Run("skips unprovisioned sessions and re-exchanges", func(t *testing.T) {
		store := repository.NewMemorySessionStore()
		require.NoError(t, store.Put(context.Background(), &domain.Session{
			ID:   domain.OfflineSessionID(shop),
			Shop: shop,
		}))

		exchanger := &fakeExchanger{cred: &ports.AccessCredential{AccessToken: "tok456"}}
		svc := application.NewSessionService(store, exchanger, zerolog.Nop())

		session, err := svc.EnsureSession(context.Background(), shop, "jwt")
		require.NoError(t, err)
		assert.Equal(t, "tok456", session.AccessToken)
		assert.Equal(t, 1, exchanger.calls)

		sessions, err := store.FindByShop(context.Background(), shop)
		require.NoError(t, err)
		assert.Len(t, sessions, 1, "provisioning overwrites the unprovisioned entry")
	})

	t.Run("surfaces exchange failures without storing anything", func(t *testing.T) {
		store := repository.NewMemorySessionStore()
		exchanger := &fakeExchanger{err: domain.ErrExchangeFailed}
		svc := application.NewSessionService(store, exchanger, zerolog.Nop())

		_, err := svc.EnsureSession(context.Background(), shop, "jwt")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrExchangeFailed))

		sessions, err := store.FindByShop(context.Background(), shop)
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})

	t.Run("ignores online sessions during resolution", func(t *testing.T) {
		store := repository.NewMemorySessionStore()
		require.NoError(t, store.Put(context.Background(), &domain.Session{
			ID:          "online_" + shop,
			Shop:        shop,
			IsOnline:    true,
			AccessToken: "online-token",
		}))

		exchanger := &fakeExchanger{cred: &ports.AccessCredential{AccessToken: "offline-token"}}
		svc := application.NewSessionService(store, exchanger, zerolog.Nop())

		session, err := svc.EnsureSession(context.Background(), shop, "jwt")
		require.NoError(t, err)
		assert.Equal(t, "offline-token", session.AccessToken)
		assert.Equal(t, 1, exchanger.calls)
	})
}

func TestSessionService_InvalidateShop(t *testing.T) {
	t.Parallel()

	const shop = "foo.myshopify.com"
	store := repository.NewMemorySessionStore()
	require.NoError(t, store.Put(context.Background(), domain.NewOfflineSession(shop, "tok", "")))

	svc := application.NewSessionService(store, &fakeExchanger{}, zerolog.Nop())
	require.NoError(t, svc.InvalidateShop(context.Background(), shop))

	session, err := store.Get(context.Background(), domain.OfflineSessionID(shop))
	require.NoError(t, err)
	assert.Nil(t, session)
}
