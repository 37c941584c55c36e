// Package handler exposes the HTTP API: restaurant menus, cart operations,
// and order placement and lifecycle.
package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/platemate/order-api/internal/domain/cart"
	"github.com/platemate/order-api/internal/domain/menu"
	"github.com/platemate/order-api/internal/domain/order"
	"github.com/platemate/order-api/internal/domain/user"
)

// Handler holds the domain services behind the HTTP API.
type Handler struct {
	carts  *cart.Service
	orders *order.Service
	menu   menu.Repository
	users  user.Client
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(carts *cart.Service, orders *order.Service, items menu.Repository, users user.Client) *Handler {
	return &Handler{
		carts:  carts,
		orders: orders,
		menu:   items,
		users:  users,
	}
}

// Routes returns the API router. Authentication is applied by the caller.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/restaurants/{restaurantID}/menu", h.ListMenu)
	r.Get("/restaurants/{restaurantID}/orders", h.ListRestaurantOrders)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddCartItem)
		r.Patch("/items/{menuItemID}", h.UpdateCartItem)
		r.Delete("/items/{menuItemID}", h.RemoveCartItem)
	})

	r.Post("/orders", h.PlaceOrder)
	r.Post("/orders/{orderID}/cancel", h.CancelOrder)
	r.Post("/orders/{orderID}/complete", h.CompleteOrder)
	r.Get("/users/{userID}/orders", h.ListUserOrders)

	r.Get("/addresses/{addressID}", h.GetAddress)

	return r
}
