package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/platemate/order-api/internal/domain/cart"
	"github.com/platemate/order-api/internal/domain/order"
)

type placeOrderRequest struct {
	UserID            string        `json:"user_id"`
	RestaurantID      string        `json:"restaurant_id"`
	DeliveryAddressID string        `json:"delivery_address_id"`
	Items             []cartLineDTO `json:"items"`
}

// placeOrderResponse covers both placement outcomes. Placed discriminates:
// when false, UnavailableItems lists the claims that no longer match the
// stored cart and no order was created.
type placeOrderResponse struct {
	Placed           bool          `json:"placed"`
	Message          string        `json:"message"`
	Order            *orderDTO     `json:"order,omitempty"`
	UnavailableItems []cartLineDTO `json:"unavailable_items,omitempty"`
}

type orderDTO struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	RestaurantID      string          `json:"restaurant_id"`
	DeliveryAddressID string          `json:"delivery_address_id,omitempty"`
	Status            string          `json:"status"`
	OrderTime         time.Time       `json:"order_time"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	Items             []cartLineDTO   `json:"items"`
}

func toOrderDTO(o *order.Order) *orderDTO {
	items := make([]cartLineDTO, 0, len(o.Items))
	for _, l := range o.Items {
		items = append(items, toCartLineDTO(l))
	}
	return &orderDTO{
		ID:                o.ID,
		UserID:            o.UserID,
		RestaurantID:      o.RestaurantID,
		DeliveryAddressID: o.DeliveryAddressID,
		Status:            string(o.Status),
		OrderTime:         o.OrderTime,
		TotalPrice:        o.TotalPrice,
		Items:             items,
	}
}

// PlaceOrder handles POST /orders. Both outcomes respond 200: an order body
// when placed, or the unavailable items when the claimed cart diverged from
// the stored one. Only validation and lookup failures are errors.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.RestaurantID == "" {
		respondError(w, http.StatusBadRequest, "user_id and restaurant_id are required")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "items required")
		return
	}

	lines := make([]cart.Line, len(req.Items))
	for i, it := range req.Items {
		lines[i] = cart.Line{
			UserID:       req.UserID,
			RestaurantID: req.RestaurantID,
			MenuItemID:   it.MenuItemID,
			Quantity:     it.Quantity,
			Price:        it.Price,
		}
	}

	res, err := h.orders.Place(r.Context(), order.PlaceRequest{
		UserID:            req.UserID,
		RestaurantID:      req.RestaurantID,
		DeliveryAddressID: req.DeliveryAddressID,
		Lines:             lines,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := placeOrderResponse{
		Placed:  res.Placed,
		Message: res.Message,
	}
	if res.Placed {
		resp.Order = toOrderDTO(res.Order)
	} else {
		resp.UnavailableItems = make([]cartLineDTO, 0, len(res.Unavailable))
		for _, l := range res.Unavailable {
			resp.UnavailableItems = append(resp.UnavailableItems, toCartLineDTO(l))
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// CancelOrder handles POST /orders/{orderID}/cancel.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Cancel(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderDTO(o))
}

// CompleteOrder handles POST /orders/{orderID}/complete. Idempotent.
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.MarkCompleted(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderDTO(o))
}

// ListUserOrders handles GET /users/{userID}/orders.
func (h *Handler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOrderList(w, orders)
}

// ListRestaurantOrders handles GET /restaurants/{restaurantID}/orders.
func (h *Handler) ListRestaurantOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByRestaurant(r.Context(), chi.URLParam(r, "restaurantID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOrderList(w, orders)
}

func respondOrderList(w http.ResponseWriter, orders []order.Order) {
	dtos := make([]*orderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, toOrderDTO(&orders[i]))
	}
	respondJSON(w, http.StatusOK, dtos)
}
