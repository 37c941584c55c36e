package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// Item is a single dish on a restaurant's menu. Price is the unit price.
type Item struct {
	ID           string
	RestaurantID string
	Name         string
	Category     string
	Price        decimal.Decimal
	Available    bool
}

// Repository defines read operations over the menu catalog.
type Repository interface {
	ListByRestaurant(ctx context.Context, restaurantID string) ([]Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
}
