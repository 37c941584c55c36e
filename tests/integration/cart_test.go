//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// Cart endpoints never touch the user service, so each test isolates itself
// with its own user ID.

func addToCart(t *testing.T, userID, menuItemID string, quantity int) cartLine {
	t.Helper()

	resp := doPostWithAuth(t, "/api/cart/items", addItemRequest{
		UserID:       userID,
		RestaurantID: "rest-napoli",
		MenuItemID:   menuItemID,
		Quantity:     quantity,
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add to cart: expected 201, got %d", resp.StatusCode)
	}
	return decodeJSON[cartLine](t, resp)
}

func TestCart_AddItem(t *testing.T) {
	line := addToCart(t, "cart-user-add", margheritaID, 2)

	if line.Quantity != 2 {
		t.Errorf("quantity: got %d, want 2", line.Quantity)
	}
	if line.Price != "23" && line.Price != "23.00" {
		t.Errorf("price: got %q, want 23.00", line.Price)
	}
}

func TestCart_AddItem_MergesQuantities(t *testing.T) {
	addToCart(t, "cart-user-merge", margheritaID, 1)
	line := addToCart(t, "cart-user-merge", margheritaID, 2)

	if line.Quantity != 3 {
		t.Errorf("quantity: got %d, want 3", line.Quantity)
	}
	if line.Price != "34.5" && line.Price != "34.50" {
		t.Errorf("price: got %q, want 34.50", line.Price)
	}
}

func TestCart_AddItem_UnknownMenuItem(t *testing.T) {
	resp := doPostWithAuth(t, "/api/cart/items", addItemRequest{
		UserID:       "cart-user-unknown",
		RestaurantID: "rest-napoli",
		MenuItemID:   "00000000-0000-0000-0000-000000000000",
		Quantity:     1,
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCart_AddItem_Unavailable(t *testing.T) {
	// Spicy Miso Ramen is seeded as unavailable.
	resp := doPostWithAuth(t, "/api/cart/items", addItemRequest{
		UserID:       "cart-user-unavailable",
		RestaurantID: "rest-tokyo-bowl",
		MenuItemID:   "f51b2c87-3e64-4a09-a7d2-c95e8d1b0f36",
		Quantity:     1,
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCart_Get(t *testing.T) {
	addToCart(t, "cart-user-get", margheritaID, 2)

	resp := doGetWithAuth(t, "/api/cart?user_id=cart-user-get&restaurant_id=rest-napoli")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[cartBody](t, resp)
	if len(body.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(body.Items))
	}
	if body.Total != "23" && body.Total != "23.00" {
		t.Errorf("total: got %q, want 23.00", body.Total)
	}
}

func TestCart_UpdateQuantity_ZeroRemoves(t *testing.T) {
	addToCart(t, "cart-user-zero", margheritaID, 2)

	resp := do(t, http.MethodPatch, "/api/cart/items/"+margheritaID, map[string]any{
		"user_id":       "cart-user-zero",
		"restaurant_id": "rest-napoli",
		"quantity":      0,
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	getResp := doGetWithAuth(t, "/api/cart?user_id=cart-user-zero&restaurant_id=rest-napoli")
	defer getResp.Body.Close()

	body := decodeJSON[cartBody](t, getResp)
	if len(body.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(body.Items))
	}
}

func TestCart_RemoveItem_NotFound(t *testing.T) {
	resp := do(t, http.MethodDelete,
		"/api/cart/items/"+margheritaID+"?user_id=cart-user-missing&restaurant_id=rest-napoli",
		nil, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCart_Clear(t *testing.T) {
	addToCart(t, "cart-user-clear", margheritaID, 1)

	resp := do(t, http.MethodDelete, "/api/cart?user_id=cart-user-clear&restaurant_id=rest-napoli", nil, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	getResp := doGetWithAuth(t, "/api/cart?user_id=cart-user-clear&restaurant_id=rest-napoli")
	defer getResp.Body.Close()

	body := decodeJSON[cartBody](t, getResp)
	if len(body.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(body.Items))
	}
}
