package repository

import (
	"context"
	"sync"

	"github.com/asap-xt/shopify-currency-converter/internal/domain"
	"github.com/asap-xt/shopify-currency-converter/internal/ports"
)

// MemorySessionStore implements SessionStore with a mutex-guarded map. State is
// lost on restart; it backs single-instance development setups and tests, the
// Mongo repository is authoritative in deployment.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

var _ ports.SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates a new in-memory session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*domain.Session),
	}
}

// Put stores a session, overwriting any existing entry with the same ID
func (s *MemorySessionStore) Put(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionCopy := *session
	s.sessions[session.ID] = &sessionCopy
	return nil
}

// Get retrieves a session by ID
func (s *MemorySessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, nil
	}

	sessionCopy := *session
	return &sessionCopy, nil
}

// Delete removes a session by ID
func (s *MemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// FindByShop retrieves all sessions for a shop. This is a linear scan over all
// stored sessions, acceptable at one-session-per-shop scale.
func (s *MemorySessionStore) FindByShop(ctx context.Context, shop string) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []*domain.Session
	for _, session := range s.sessions {
		if session.Shop == shop {
			sessionCopy := *session
			sessions = append(sessions, &sessionCopy)
		}
	}
	return sessions, nil
}
