package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MikkosUSN/levelup-merch/internal/domain"
	apperrors "github.com/MikkosUSN/levelup-merch/pkg/errors"
)

// cartEntry holds one session's cart plus its locks. mu serializes ordinary
// mutations; checkout is a separate guard so a long-running checkout blocks
// only other checkouts, and only via fail-fast TryLock.
type cartEntry struct {
	mu       sync.Mutex
	checkout sync.Mutex
	cart     *domain.Cart
}

// CartStore is an in-memory, process-local cart store. Suitable for tests
// and single-instance deployments.
type CartStore struct {
	mu      sync.RWMutex
	entries map[string]*cartEntry
}

// NewCartStore creates an empty in-memory cart store.
func NewCartStore() *CartStore {
	return &CartStore{entries: make(map[string]*cartEntry)}
}

// entry returns the session's entry, creating it if needed.
func (s *CartStore) entry(sessionID string) *cartEntry {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[sessionID]; ok {
		return e
	}
	e = &cartEntry{cart: domain.NewCart(sessionID)}
	s.entries[sessionID] = e
	return e
}

// Get returns a copy of the session's cart, empty if none exists.
func (s *CartStore) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.copyOf(e.cart), nil
}

// Update applies fn to the session's cart under its lock. fn mutates a
// working copy; the copy replaces the stored cart only when fn succeeds.
func (s *CartStore) Update(ctx context.Context, sessionID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	working := s.copyOf(e.cart)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now().UTC()
	e.cart = working
	return s.copyOf(working), nil
}

// Clear empties the session's cart but keeps the session entry alive.
func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cart = domain.NewCart(sessionID)
	e.cart.UpdatedAt = time.Now().UTC()
	return nil
}

// Destroy removes the session's cart entirely.
func (s *CartStore) Destroy(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

// BeginCheckout acquires the session's checkout guard without blocking. A
// second caller gets CheckoutInProgress until the first releases.
func (s *CartStore) BeginCheckout(ctx context.Context, sessionID string) (func(), error) {
	e := s.entry(sessionID)
	if !e.checkout.TryLock() {
		return nil, apperrors.CheckoutInProgress()
	}
	var once sync.Once
	return func() {
		once.Do(e.checkout.Unlock)
	}, nil
}

// copyOf deep-copies a cart so callers never share the stored slice.
func (s *CartStore) copyOf(c *domain.Cart) *domain.Cart {
	cp := &domain.Cart{
		SessionID: c.SessionID,
		Items:     c.Snapshot(),
		UpdatedAt: c.UpdatedAt,
	}
	return cp
}
