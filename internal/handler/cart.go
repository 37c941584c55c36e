package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/platemate/order-api/internal/domain/cart"
)

type cartLineDTO struct {
	MenuItemID string          `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

type cartResponse struct {
	UserID       string          `json:"user_id"`
	RestaurantID string          `json:"restaurant_id"`
	Items        []cartLineDTO   `json:"items"`
	Total        decimal.Decimal `json:"total"`
}

func toCartLineDTO(l cart.Line) cartLineDTO {
	return cartLineDTO{
		MenuItemID: l.MenuItemID,
		Quantity:   l.Quantity,
		Price:      l.Price,
	}
}

func toCartResponse(userID, restaurantID string, lines []cart.Line) cartResponse {
	resp := cartResponse{
		UserID:       userID,
		RestaurantID: restaurantID,
		Items:        make([]cartLineDTO, 0, len(lines)),
		Total:        decimal.Zero,
	}
	for _, l := range lines {
		resp.Items = append(resp.Items, toCartLineDTO(l))
		resp.Total = resp.Total.Add(l.Price)
	}
	return resp
}

// cartKey extracts the user and restaurant identifying a cart from query
// parameters. Every cart endpoint is keyed by this pair.
func cartKey(r *http.Request) (userID, restaurantID string, ok bool) {
	userID = r.URL.Query().Get("user_id")
	restaurantID = r.URL.Query().Get("restaurant_id")
	return userID, restaurantID, userID != "" && restaurantID != ""
}

type addItemRequest struct {
	UserID       string `json:"user_id"`
	RestaurantID string `json:"restaurant_id"`
	MenuItemID   string `json:"menu_item_id"`
	Quantity     int    `json:"quantity"`
}

// AddCartItem handles POST /cart/items.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.RestaurantID == "" || req.MenuItemID == "" {
		respondError(w, http.StatusBadRequest, "user_id, restaurant_id, and menu_item_id are required")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "quantity must be greater than 0")
		return
	}

	line, err := h.carts.AddItem(r.Context(), req.UserID, req.RestaurantID, req.MenuItemID, req.Quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCartLineDTO(*line))
}

type updateQuantityRequest struct {
	UserID       string `json:"user_id"`
	RestaurantID string `json:"restaurant_id"`
	Quantity     int    `json:"quantity"`
}

// UpdateCartItem handles PATCH /cart/items/{menuItemID}. Quantity zero (or
// below) removes the line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	menuItemID := chi.URLParam(r, "menuItemID")

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.RestaurantID == "" {
		respondError(w, http.StatusBadRequest, "user_id and restaurant_id are required")
		return
	}

	line, err := h.carts.UpdateQuantity(r.Context(), req.UserID, req.RestaurantID, menuItemID, req.Quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if line == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, toCartLineDTO(*line))
}

// RemoveCartItem handles DELETE /cart/items/{menuItemID}.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID, restaurantID, ok := cartKey(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "user_id and restaurant_id query parameters are required")
		return
	}

	if err := h.carts.RemoveItem(r.Context(), userID, restaurantID, chi.URLParam(r, "menuItemID")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCart handles GET /cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, restaurantID, ok := cartKey(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "user_id and restaurant_id query parameters are required")
		return
	}

	lines, err := h.carts.GetCart(r.Context(), userID, restaurantID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(userID, restaurantID, lines))
}

// ClearCart handles DELETE /cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, restaurantID, ok := cartKey(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "user_id and restaurant_id query parameters are required")
		return
	}

	if err := h.carts.ClearCart(r.Context(), userID, restaurantID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
