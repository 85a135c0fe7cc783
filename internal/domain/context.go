package domain

import "context"

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	shopContextKey        contextKey = "shop"
	sessionContextKey     contextKey = "session"
	entitlementContextKey contextKey = "entitlement"
)

// WithShop stores the authenticated shop domain in the context.
func WithShop(ctx context.Context, shop string) context.Context {
	return context.WithValue(ctx, shopContextKey, shop)
}

// GetShopFromContext retrieves the authenticated shop domain from the context.
// Returns an empty string if no shop was attached.
func GetShopFromContext(ctx context.Context) string {
	shop, _ := ctx.Value(shopContextKey).(string)
	return shop
}

// WithSession stores the resolved session in the context.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// GetSessionFromContext retrieves the resolved session from the context.
// Returns nil if no session was attached.
func GetSessionFromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(sessionContextKey).(*Session)
	return session
}

// WithEntitlement stores the evaluated entitlement status in the context.
func WithEntitlement(ctx context.Context, status *EntitlementStatus) context.Context {
	return context.WithValue(ctx, entitlementContextKey, status)
}

// GetEntitlementFromContext retrieves the evaluated entitlement status from the
// context. Returns nil if the gate did not evaluate one (exempt route or fail-open).
func GetEntitlementFromContext(ctx context.Context) *EntitlementStatus {
	status, _ := ctx.Value(entitlementContextKey).(*EntitlementStatus)
	return status
}
