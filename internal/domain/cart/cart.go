package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for cart operations.
var (
	ErrCartEmpty    = errors.New("no cart items for this user and restaurant")
	ErrLineNotFound = errors.New("cart line not found")
)

// ItemUnavailableError indicates a menu item cannot be added to a cart
// because the restaurant has marked it unavailable.
type ItemUnavailableError struct {
	MenuItemID string
}

func (e *ItemUnavailableError) Error() string {
	return "menu item " + e.MenuItemID + " is not available"
}

// Line is one menu item in a user's pre-checkout basket for a restaurant.
// Price is the total for the line (unit price times quantity), not the unit
// price; the unit price is re-derived from it on quantity changes.
type Line struct {
	UserID       string          `json:"user_id"`
	RestaurantID string          `json:"restaurant_id"`
	MenuItemID   string          `json:"menu_item_id"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

// UnitPrice derives the per-item price from the stored line total using
// bankers' rounding at two decimal places, so repeated quantity edits do not
// drift the price.
func (l Line) UnitPrice() decimal.Decimal {
	if l.Quantity <= 0 {
		return l.Price
	}
	return l.Price.Div(decimal.NewFromInt(int64(l.Quantity))).RoundBank(2)
}

// Repository defines persistence operations for cart lines. A line is keyed
// by (user, restaurant, menu item).
type Repository interface {
	// Get returns the line for the key, or ErrLineNotFound.
	Get(ctx context.Context, userID, restaurantID, menuItemID string) (*Line, error)
	// ListByUserAndRestaurant returns all lines for the pair, possibly empty.
	ListByUserAndRestaurant(ctx context.Context, userID, restaurantID string) ([]Line, error)
	ListByUser(ctx context.Context, userID string) ([]Line, error)
	// Save inserts the line or overwrites quantity and price of an existing one.
	Save(ctx context.Context, line *Line) error
	Delete(ctx context.Context, userID, restaurantID, menuItemID string) error
	// DeleteAll removes every line for the user and restaurant pair.
	DeleteAll(ctx context.Context, userID, restaurantID string) error
}
