package service

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/MikkosUSN/levelup-merch/pkg/errors"

	"github.com/MikkosUSN/levelup-merch/internal/domain"
	"github.com/MikkosUSN/levelup-merch/internal/event"
	"github.com/MikkosUSN/levelup-merch/internal/repository"
)

// CheckoutService converts a session's cart into a persisted order. The
// conversion is all-or-nothing: either a complete order lands in the database
// and the cart is cleared, or the database stays untouched and the cart keeps
// its items so the customer can retry.
type CheckoutService struct {
	store    repository.CartStore
	orders   repository.OrderRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(store repository.CartStore, orders repository.OrderRepository, producer *event.Producer, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		store:    store,
		orders:   orders,
		producer: producer,
		logger:   logger,
	}
}

// Checkout places an order from the session's cart on behalf of userID.
//
// Only one checkout may run per session at a time; a concurrent attempt fails
// immediately with CheckoutInProgress rather than queueing, so a double
// submission can never produce two orders. An empty cart fails with
// EmptyCart. If persisting the order fails the cart is left intact and the
// error carries OrderNotSaved.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID, userID string) (*domain.Order, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	release, err := s.store.BeginCheckout(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get cart for checkout: %w", err)
	}
	if cart.IsEmpty() {
		return nil, apperrors.EmptyCart()
	}

	// Work from a snapshot so mutations racing with the checkout cannot
	// change what gets persisted mid-flight.
	order := domain.NewOrderFromItems(userID, cart.Snapshot())

	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "order persistence failed, cart preserved",
			slog.String("session_id", sessionID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.OrderNotSaved(err)
	}

	// The cart is cleared only after the order is durably committed. A
	// failure here leaves a stale cart, never a lost order.
	if err := s.store.Clear(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after checkout",
			slog.String("session_id", sessionID),
			slog.Int64("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.Int64("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("session_id", sessionID),
		slog.String("user_id", userID),
		slog.Int64("order_id", order.ID),
		slog.String("total", order.Total.StringFixed(2)),
	)

	return order, nil
}
