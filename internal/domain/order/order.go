package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/platemate/order-api/internal/domain/cart"
)

// Sentinel errors for order operations.
var (
	ErrNotFound = errors.New("order not found")
	// ErrNotCustomer is returned when the requesting user is missing or does
	// not hold the customer role.
	ErrNotCustomer = errors.New("only customers can place orders")
	// ErrCancelWindowExpired is returned when a cancellation arrives after the
	// configured window following placement.
	ErrCancelWindowExpired = errors.New("cancellation window has expired")
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Order is the record written at placement time. Items is a denormalized
// snapshot of the cart lines at the moment of purchase, so later cart edits
// cannot alter a placed order.
type Order struct {
	ID                string
	UserID            string
	RestaurantID      string
	DeliveryAddressID string
	Status            Status
	OrderTime         time.Time
	TotalPrice        decimal.Decimal
	Items             []cart.Line
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	// GetByID returns the order or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Order, error)
	// UpdateStatus sets the order's status, returning ErrNotFound when no row
	// matches the ID.
	UpdateStatus(ctx context.Context, id string, status Status) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]Order, error)
}
