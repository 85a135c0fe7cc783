package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asap-xt/shopify-currency-converter/internal/application"
	"github.com/asap-xt/shopify-currency-converter/internal/domain"
	"github.com/asap-xt/shopify-currency-converter/internal/infrastructure/middleware"
	"github.com/asap-xt/shopify-currency-converter/internal/infrastructure/repository"
)

type gateFixture struct {
	source  *fakeEntitlementSource
	store   *repository.MemorySessionStore
	cache   *repository.MemorySubscriptionCache
	handler http.Handler

	nextCalled      bool
	nextEntitlement *domain.EntitlementStatus
}

type fakeEntitlementSource struct {
	calls   int
	records []domain.SubscriptionRecord
	err     error
}

func (f *fakeEntitlementSource) ActiveSubscriptions(ctx context.Context, shop string, accessToken string) ([]domain.SubscriptionRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newGateFixture(t *testing.T, source *fakeEntitlementSource) *gateFixture {
	t.Helper()

	f := &gateFixture{
		source: source,
		store:  repository.NewMemorySessionStore(),
		cache:  repository.NewMemorySubscriptionCache(5 * time.Minute),
	}

	sessionService := application.NewSessionService(f.store, &fakeExchanger{}, zerolog.Nop())
	billingService := application.NewBillingService(f.cache, source, "admin.example", "app-handle", zerolog.Nop())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.nextCalled = true
		f.nextEntitlement = domain.GetEntitlementFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	f.handler = middleware.RequireSubscription(billingService, sessionService, zerolog.Nop())(next)
	return f
}

// authenticatedRequest builds a request carrying the shop and a provisioned
// session, as VerifyRequest leaves them.
func authenticatedRequest(target, shop string) *http.Request {
	r := httptest.NewRequest("GET", target, nil)
	ctx := domain.WithShop(r.Context(), shop)
	ctx = domain.WithSession(ctx, domain.NewOfflineSession(shop, "tok123", ""))
	return r.WithContext(ctx)
}

func TestRequireSubscription_Entitled(t *testing.T) {
	t.Parallel()

	const shop = "foo.myshopify.com"
	source := &fakeEntitlementSource{records: []domain.SubscriptionRecord{
		{ID: 1, Status: domain.SubscriptionStatusActive},
	}}
	f := newGateFixture(t, source)

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, authenticatedRequest("/", shop))

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, f.nextCalled)
	require.NotNil(t, f.nextEntitlement)
	assert.True(t, f.nextEntitlement.HasActiveSubscription)

	cached, err := f.cache.Get(context.Background(), shop)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.True(t, cached.HasActiveSubscription)
}

func TestRequireSubscription_NotEntitled(t *testing.T) {
	t.Parallel()

	const shop = "foo.myshopify.com"

	t.Run("redirects to plan selection", func(t *testing.T) {
		f := newGateFixture(t, &fakeEntitlementSource{})

		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, authenticatedRequest("/", shop))

		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t,
			"https://admin.example/store/foo/charges/app-handle/pricing_plans",
			w.Header().Get("Location"),
		)
		assert.False(t, f.nextCalled)
	})

	t.Run("embedded request gets a top-frame breakout page", func(t *testing.T) {
		f := newGateFixture(t, &fakeEntitlementSource{})

		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, authenticatedRequest("/?embedded=1", shop))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		body := w.Body.String()
		assert.Contains(t, body, "window.open")
		assert.Contains(t, body, "admin.example/store/foo/charges/app-handle/pricing_plans")
		assert.False(t, f.nextCalled)
	})
}

func TestRequireSubscription_FailOpen(t *testing.T) {
	t.Parallel()

	const shop = "foo.myshopify.com"

	t.Run("query error allows the request", func(t *testing.T) {
		f := newGateFixture(t, &fakeEntitlementSource{err: errors.New("admin api down")})

		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, authenticatedRequest("/", shop))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, f.nextCalled)
		assert.Nil(t, f.nextEntitlement)
	})

	t.Run("auth-classed query error deletes the stale session", func(t *testing.T) {
		f := newGateFixture(t, &fakeEntitlementSource{err: errors.New("401 unauthorized")})
		require.NoError(t, f.store.Put(context.Background(), domain.NewOfflineSession(shop, "revoked", "")))

		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, authenticatedRequest("/", shop))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, f.nextCalled)

		stored, err := f.store.Get(context.Background(), domain.OfflineSessionID(shop))
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("missing session state allows the request", func(t *testing.T) {
		f := newGateFixture(t, &fakeEntitlementSource{})

		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, f.nextCalled)
		assert.Equal(t, 0, f.source.calls)
	})
}

func TestRequireSubscription_ExemptRoutes(t *testing.T) {
	t.Parallel()

	for _, target := range []string{"/api/subscription-status", "/billing/callback"} {
		t.Run(target, func(t *testing.T) {
			f := newGateFixture(t, &fakeEntitlementSource{})

			w := httptest.NewRecorder()
			f.handler.ServeHTTP(w, authenticatedRequest(target, "foo.myshopify.com"))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.True(t, f.nextCalled)
			assert.Equal(t, 0, f.source.calls, "exempt routes never evaluate entitlement")
		})
	}
}

func TestRequireSubscription_CachedDecision(t *testing.T) {
	t.Parallel()

	const shop = "foo.myshopify.com"
	source := &fakeEntitlementSource{records: []domain.SubscriptionRecord{
		{ID: 1, Status: domain.SubscriptionStatusActive},
	}}
	f := newGateFixture(t, source)

	for range 3 {
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, authenticatedRequest("/", shop))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 1, source.calls, "repeat requests inside the TTL are served from cache")
}
