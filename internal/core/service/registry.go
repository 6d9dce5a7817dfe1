package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

// SessionRegistry keeps the open order sessions of the HTTP desk.
type SessionRegistry struct {
	catalog domain.Catalog
	deps    SessionDeps

	mu       sync.RWMutex
	sessions map[string]*OrderSession
}

func NewSessionRegistry(catalog domain.Catalog, deps SessionDeps) *SessionRegistry {
	return &SessionRegistry{
		catalog:  catalog,
		deps:     deps,
		sessions: make(map[string]*OrderSession),
	}
}

func (r *SessionRegistry) Catalog() domain.Catalog {
	return r.catalog
}

// Open starts a session for a product and restores the last used location.
func (r *SessionRegistry) Open(ctx context.Context, productID string) (*OrderSession, error) {
	product, err := r.catalog.Product(productID)
	if err != nil {
		return nil, err
	}

	s := NewOrderSession(uuid.NewString(), product, r.deps)
	if err := s.Open(ctx); err != nil {
		return nil, fmt.Errorf("s.Open: %w", err)
	}

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	return s, nil
}

// Get returns open sessions only.
func (r *SessionRegistry) Get(id string) (*OrderSession, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok || s.Closed() {
		return nil, false
	}
	return s, true
}

func (r *SessionRegistry) Close(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Prune drops closed sessions and closes the ones idle for longer than
// maxIdle. It returns how many sessions were removed.
func (r *SessionRegistry) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	stale := lo.PickBy(r.sessions, func(_ string, s *OrderSession) bool {
		return s.Closed() || s.idleSince().Before(cutoff)
	})
	for id := range stale {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
