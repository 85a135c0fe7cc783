package ports

import (
	"context"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
)

// SessionStore defines the interface for session persistence.
//
// The store enforces no uniqueness per shop; uniqueness is maintained by the
// caller always writing under the deterministic offline session ID. FindByShop
// may be a linear scan in small implementations; durable implementations index
// the shop field.
type SessionStore interface {
	// Put stores a session, overwriting any existing session with the same ID.
	Put(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by ID. Returns (nil, nil) when absent.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Delete removes a session by ID. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error

	// FindByShop retrieves all sessions stored for a shop.
	FindByShop(ctx context.Context, shop string) ([]*domain.Session, error)
}
