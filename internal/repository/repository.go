package repository

import (
	"context"

	"github.com/MikkosUSN/levelup-merch/internal/domain"
)

// CartStore defines session-keyed cart persistence. Implementations must make
// Update atomic with respect to concurrent callers for the same session.
type CartStore interface {
	// Get retrieves the cart for a session, returning an empty cart if none
	// exists yet.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)

	// Update applies fn to the session's cart under that session's mutation
	// lock and persists the result. fn receives the current cart (empty if
	// none exists) and may mutate it freely; returning an error aborts the
	// update without persisting.
	Update(ctx context.Context, sessionID string, fn func(*domain.Cart) error) (*domain.Cart, error)

	// Clear empties the session's cart but keeps the session alive.
	Clear(ctx context.Context, sessionID string) error

	// Destroy removes the session's cart entirely.
	Destroy(ctx context.Context, sessionID string) error

	// BeginCheckout acquires the session's checkout guard. While held, any
	// further BeginCheckout for the same session fails with
	// ErrCheckoutInProgress. The returned release function must be called
	// exactly once, whether checkout succeeds or fails.
	BeginCheckout(ctx context.Context, sessionID string) (release func(), err error)
}

// OrderRepository persists committed orders.
type OrderRepository interface {
	// Create writes the order header and all items in a single transaction
	// and fills in the generated order and item IDs. On any failure nothing
	// is persisted.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID loads an order with its items.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	// ListByUser returns a user's orders newest first, items included.
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
}

// ProductRepository persists catalog entries.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, category string) ([]*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// ResetTokenRepository persists single-use password reset tokens.
type ResetTokenRepository interface {
	Create(ctx context.Context, token *domain.PasswordResetToken) error
	Get(ctx context.Context, token string) (*domain.PasswordResetToken, error)
	MarkUsed(ctx context.Context, token string) error
}
