package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a single product entry in a cart. UnitPrice is the price
// captured at the moment the item was added, so later catalog changes do not
// silently reprice a cart.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns unit price times quantity with exact decimal arithmetic.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart holds a session's line items in insertion order.
type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart returns an empty cart for the given session.
func NewCart(sessionID string) *Cart {
	return &Cart{SessionID: sessionID}
}

// clampQuantity normalizes any quantity at or below zero to one. Callers that
// want to drop an item remove it explicitly.
func clampQuantity(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}

// findIndex returns the position of the item with the given product ID, or -1.
func (c *Cart) findIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddOrIncrement merges the item into the cart. If the product is already
// present its quantity grows by the new item's quantity and the stored name
// and unit price are left untouched; otherwise the item is appended.
func (c *Cart) AddOrIncrement(item LineItem) {
	item.Quantity = clampQuantity(item.Quantity)
	if i := c.findIndex(item.ProductID); i >= 0 {
		c.Items[i].Quantity += item.Quantity
		return
	}
	c.Items = append(c.Items, item)
}

// UpdateQuantity sets the quantity for the given product. Quantities at or
// below zero are clamped to one. Returns false if the product is not in the
// cart.
func (c *Cart) UpdateQuantity(productID string, qty int) bool {
	i := c.findIndex(productID)
	if i < 0 {
		return false
	}
	c.Items[i].Quantity = clampQuantity(qty)
	return true
}

// Remove deletes the item for the given product, preserving the order of the
// remaining items. Returns false if the product is not in the cart.
func (c *Cart) Remove(productID string) bool {
	i := c.findIndex(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// Clear empties the cart in place.
func (c *Cart) Clear() {
	c.Items = nil
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemCount returns the total unit count across all line items.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Total sums every line item's subtotal exactly.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Snapshot returns a deep copy of the cart's items. Mutating the snapshot or
// the cart afterwards does not affect the other.
func (c *Cart) Snapshot() []LineItem {
	if len(c.Items) == 0 {
		return nil
	}
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return items
}
