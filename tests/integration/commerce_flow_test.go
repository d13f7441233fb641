package integration

import (
	"fmt"
	"testing"
)

// TestFullCommerceFlow walks the whole shopper journey: register, browse the
// catalog, fill a cart, check out, and read the order back.
func TestFullCommerceFlow(t *testing.T) {
	skipIfNotRunning(t)

	token := registerAndLogin(t, uniqueEmail("shopper"))
	session := uniqueSession("flow")

	productID := firstCatalogProduct(t)

	// Add the product to the cart twice; the line should merge.
	headers := map[string]string{
		"X-Session-ID":  session,
		"Authorization": "Bearer " + token,
	}
	for i := 0; i < 2; i++ {
		status, _ := httpPost(t, baseURL()+"/api/v1/cart/items",
			map[string]interface{}{"product_id": productID, "quantity": 1}, headers)
		requireStatus(t, status, 200)
	}

	status, data := httpGet(t, baseURL()+"/api/v1/cart/", headers)
	requireStatus(t, status, 200)
	items, ok := extractField(data, "data.items").([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected a single merged cart line, got %v", extractField(data, "data.items"))
	}

	// Check out.
	status, data = httpPost(t, baseURL()+"/api/v1/checkout", nil, headers)
	requireStatus(t, status, 201)
	orderID := extractField(data, "data.id")
	if orderID == nil {
		t.Fatal("expected order ID in checkout response")
	}

	// The cart must be empty after a successful checkout.
	status, data = httpGet(t, baseURL()+"/api/v1/cart/", headers)
	requireStatus(t, status, 200)
	if items, _ := extractField(data, "data.items").([]interface{}); len(items) != 0 {
		t.Fatalf("expected empty cart after checkout, got %d items", len(items))
	}

	// The order shows up in history.
	status, data = httpGet(t, baseURL()+"/api/v1/orders/", headers)
	requireStatus(t, status, 200)
	orders, ok := extractField(data, "data").([]interface{})
	if !ok || len(orders) == 0 {
		t.Fatal("expected at least one order in history")
	}

	// And can be fetched by ID.
	status, _ = httpGet(t, fmt.Sprintf("%s/api/v1/orders/%v", baseURL(), orderID), headers)
	requireStatus(t, status, 200)
}

// TestCheckoutEmptyCart verifies the 422 guard on an empty cart.
func TestCheckoutEmptyCart(t *testing.T) {
	skipIfNotRunning(t)

	token := registerAndLogin(t, uniqueEmail("empty"))
	headers := map[string]string{
		"X-Session-ID":  uniqueSession("empty"),
		"Authorization": "Bearer " + token,
	}

	status, data := httpPost(t, baseURL()+"/api/v1/checkout", nil, headers)
	requireStatus(t, status, 422)
	if code := extractString(t, data, "error.code"); code != "EMPTY_CART" {
		t.Fatalf("expected EMPTY_CART, got %s", code)
	}
}

// TestCheckoutRequiresAuth verifies that an anonymous session cannot check out.
func TestCheckoutRequiresAuth(t *testing.T) {
	skipIfNotRunning(t)

	headers := map[string]string{"X-Session-ID": uniqueSession("anon")}
	status, _ := httpPost(t, baseURL()+"/api/v1/checkout", nil, headers)
	requireStatus(t, status, 401)
}

// firstCatalogProduct returns a product ID from the catalog, skipping the test
// when the catalog is empty (run scripts/seed first).
func firstCatalogProduct(t *testing.T) string {
	t.Helper()
	status, data := httpGet(t, baseURL()+"/api/v1/products/", nil)
	requireStatus(t, status, 200)

	products, ok := extractField(data, "data").([]interface{})
	if !ok || len(products) == 0 {
		t.Skip("catalog is empty; run the seed script first")
	}
	first, ok := products[0].(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected product shape: %T", products[0])
	}
	id, _ := first["id"].(string)
	if id == "" {
		t.Fatal("product has no id")
	}
	return id
}
