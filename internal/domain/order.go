package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status constants.
const (
	OrderStatusPlaced    = "placed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
)

// Order is a committed purchase. Orders are immutable once written; the
// total and item prices are the values captured at checkout time.
type Order struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	Status    string          `json:"status"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderItem is one purchased line within an order.
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns unit price times quantity.
func (oi OrderItem) Subtotal() decimal.Decimal {
	return oi.UnitPrice.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// NewOrderFromItems builds an unsaved order from a cart snapshot. The total
// is computed from the snapshot so that what is persisted always matches the
// items actually purchased.
func NewOrderFromItems(userID string, items []LineItem) *Order {
	o := &Order{
		UserID: userID,
		Status: OrderStatusPlaced,
		Items:  make([]OrderItem, 0, len(items)),
		Total:  decimal.Zero,
	}
	for _, li := range items {
		o.Items = append(o.Items, OrderItem{
			ProductID: li.ProductID,
			Name:      li.Name,
			UnitPrice: li.UnitPrice,
			Quantity:  li.Quantity,
		})
		o.Total = o.Total.Add(li.Subtotal())
	}
	return o
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusPlaced,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCanceled,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}
