package integration

import (
	"testing"
)

// TestViewCart verifies that a fresh session gets an empty cart.
func TestViewCart(t *testing.T) {
	skipIfNotRunning(t)

	headers := map[string]string{"X-Session-ID": uniqueSession("view")}
	status, data := httpGet(t, baseURL()+"/api/v1/cart/", headers)
	requireStatus(t, status, 200)

	if extractField(data, "data") == nil {
		t.Fatal("expected data in get-cart response, got nil")
	}
}

// TestCartQuantityUpdate verifies updating and removing a cart line.
func TestCartQuantityUpdate(t *testing.T) {
	skipIfNotRunning(t)

	productID := firstCatalogProduct(t)
	headers := map[string]string{"X-Session-ID": uniqueSession("qty")}

	status, _ := httpPost(t, baseURL()+"/api/v1/cart/items",
		map[string]interface{}{"product_id": productID, "quantity": 2}, headers)
	requireStatus(t, status, 200)

	// Quantity zero clamps to one rather than removing the line.
	status, data := httpPut(t, baseURL()+"/api/v1/cart/items/"+productID,
		map[string]interface{}{"quantity": 0}, headers)
	requireStatus(t, status, 200)

	items, ok := extractField(data, "data.items").([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected one cart line, got %v", extractField(data, "data.items"))
	}
	line, _ := items[0].(map[string]interface{})
	if qty, _ := line["quantity"].(float64); qty != 1 {
		t.Fatalf("expected quantity clamped to 1, got %v", line["quantity"])
	}

	// Removing the line empties the cart.
	status, data = httpDelete(t, baseURL()+"/api/v1/cart/items/"+productID, headers)
	requireStatus(t, status, 200)
	if items, _ := extractField(data, "data.items").([]interface{}); len(items) != 0 {
		t.Fatalf("expected empty cart after removal, got %d items", len(items))
	}
}

// TestSessionsAreIsolated verifies two sessions never see each other's carts.
func TestSessionsAreIsolated(t *testing.T) {
	skipIfNotRunning(t)

	productID := firstCatalogProduct(t)

	headersA := map[string]string{"X-Session-ID": uniqueSession("iso-a")}
	headersB := map[string]string{"X-Session-ID": uniqueSession("iso-b")}

	status, _ := httpPost(t, baseURL()+"/api/v1/cart/items",
		map[string]interface{}{"product_id": productID, "quantity": 1}, headersA)
	requireStatus(t, status, 200)

	status, data := httpGet(t, baseURL()+"/api/v1/cart/", headersB)
	requireStatus(t, status, 200)
	if items, _ := extractField(data, "data.items").([]interface{}); len(items) != 0 {
		t.Fatalf("expected session B cart to be empty, got %d items", len(items))
	}
}
