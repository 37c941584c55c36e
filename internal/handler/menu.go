package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/platemate/order-api/internal/domain/menu"
)

type menuItemDTO struct {
	ID           string          `json:"id"`
	RestaurantID string          `json:"restaurant_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Available    bool            `json:"available"`
}

func toMenuItemDTO(it menu.Item) menuItemDTO {
	return menuItemDTO{
		ID:           it.ID,
		RestaurantID: it.RestaurantID,
		Name:         it.Name,
		Category:     it.Category,
		Price:        it.Price,
		Available:    it.Available,
	}
}

// ListMenu handles GET /restaurants/{restaurantID}/menu.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.ListByRestaurant(r.Context(), chi.URLParam(r, "restaurantID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	dtos := make([]menuItemDTO, 0, len(items))
	for _, it := range items {
		dtos = append(dtos, toMenuItemDTO(it))
	}
	respondJSON(w, http.StatusOK, dtos)
}

type addressDTO struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
}

// GetAddress handles GET /addresses/{addressID}, proxying the user service's
// address lookup.
func (h *Handler) GetAddress(w http.ResponseWriter, r *http.Request) {
	a, err := h.users.GetAddressByID(r.Context(), chi.URLParam(r, "addressID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, addressDTO{
		ID:      a.ID,
		UserID:  a.UserID,
		Street:  a.Street,
		City:    a.City,
		ZipCode: a.ZipCode,
	})
}
