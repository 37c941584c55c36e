package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/platemate/order-api/internal/domain/cart"
	"github.com/platemate/order-api/internal/domain/user"
)

// Config holds the tunables of the order service.
type Config struct {
	// CancelWindow is how long after placement an order may still be
	// cancelled.
	CancelWindow time.Duration
	// MatchMode controls reconciliation strictness during placement.
	MatchMode cart.MatchMode
	// TracerProvider and MeterProvider instrument the service. Nil means
	// no-op instrumentation.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Service orchestrates order placement against the cart store and the remote
// user service, and owns order lifecycle transitions.
type Service struct {
	users  user.Client
	carts  cart.Repository
	orders Repository
	cfg    Config
	now    func() time.Time

	tracer    trace.Tracer
	placed    metric.Int64Counter
	rejected  metric.Int64Counter
	cancelled metric.Int64Counter
}

// NewService creates an order Service with the required dependencies.
func NewService(users user.Client, carts cart.Repository, orders Repository, cfg Config) *Service {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = tracenoop.NewTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = metricnoop.NewMeterProvider()
	}
	meter := cfg.MeterProvider.Meter("order")
	placed, _ := meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders placed successfully"))
	rejected, _ := meter.Int64Counter("orders.rejected",
		metric.WithDescription("Placements rejected by cart reconciliation"))
	cancelled, _ := meter.Int64Counter("orders.cancelled",
		metric.WithDescription("Orders cancelled"))
	return &Service{
		users:     users,
		carts:     carts,
		orders:    orders,
		cfg:       cfg,
		now:       time.Now,
		tracer:    cfg.TracerProvider.Tracer("order"),
		placed:    placed,
		rejected:  rejected,
		cancelled: cancelled,
	}
}

// PlaceRequest holds the input for placing an order. Lines is the client's
// claim of its cart contents; the stored cart remains authoritative.
type PlaceRequest struct {
	UserID            string
	RestaurantID      string
	DeliveryAddressID string
	Lines             []cart.Line
}

// PlaceResult is the outcome of a placement attempt. Placed discriminates the
// two non-error outcomes: the order was created, or some claimed lines no
// longer matched the stored cart and nothing was changed.
type PlaceResult struct {
	Placed      bool
	Order       *Order
	Unavailable []cart.Line
	Message     string
}

// Place runs the placement sequence: verify the customer, load and reconcile
// the cart, debit the wallet, persist the order snapshot, and clear the cart.
//
// A reconciliation mismatch is NOT an error: it returns Placed=false with the
// offending lines and leaves wallet, orders, and cart untouched. A wallet
// debit failure aborts before any order row is written. The debit, the order
// insert, and the cart clear are three separate effects with no surrounding
// transaction; a crash between them leaves partial state behind.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	ctx, span := s.tracer.Start(ctx, "order.Place",
		trace.WithAttributes(attribute.String("restaurant.id", req.RestaurantID)))
	defer span.End()

	u, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrNotCustomer
		}
		return nil, errors.Wrap(err, "get user")
	}
	if u.Role != user.RoleCustomer {
		return nil, ErrNotCustomer
	}

	stored, err := s.carts.ListByUserAndRestaurant(ctx, req.UserID, req.RestaurantID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart lines")
	}
	if len(stored) == 0 {
		return nil, cart.ErrCartEmpty
	}

	rec := cart.Reconcile(stored, req.Lines, s.cfg.MatchMode)
	if len(rec.Unavailable) > 0 {
		s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("restaurant.id", req.RestaurantID)))
		return &PlaceResult{
			Placed:      false,
			Unavailable: rec.Unavailable,
			Message:     unavailableMessage(rec.Unavailable),
		}, nil
	}

	total := decimal.Zero
	for _, l := range rec.Available {
		total = total.Add(l.Price)
	}

	if err := s.users.DebitWallet(ctx, req.UserID, total); err != nil {
		return nil, errors.Wrap(err, "debit wallet")
	}

	o := &Order{
		ID:                uuid.New().String(),
		UserID:            req.UserID,
		RestaurantID:      req.RestaurantID,
		DeliveryAddressID: req.DeliveryAddressID,
		Status:            StatusCompleted,
		OrderTime:         s.now(),
		TotalPrice:        total,
		Items:             rec.Available,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if err := s.carts.DeleteAll(ctx, req.UserID, req.RestaurantID); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}

	s.placed.Add(ctx, 1, metric.WithAttributes(attribute.String("restaurant.id", req.RestaurantID)))
	return &PlaceResult{
		Placed:  true,
		Order:   o,
		Message: "Order placed successfully.",
	}, nil
}

// unavailableMessage lists every rejected line so the client can see exactly
// which claims diverged from the stored cart.
func unavailableMessage(lines []cart.Line) string {
	var b strings.Builder
	b.WriteString("some cart items are no longer valid: ")
	for i, l := range lines {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "menu item %s (quantity %d, price %s)", l.MenuItemID, l.Quantity, l.Price.StringFixed(2))
	}
	return b.String()
}

// Cancel transitions the order to cancelled. It fails with
// ErrCancelWindowExpired when called after OrderTime plus the configured
// window, leaving the status unchanged. The wallet is not refunded on
// cancellation.
func (s *Service) Cancel(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.now().After(o.OrderTime.Add(s.cfg.CancelWindow)) {
		return nil, ErrCancelWindowExpired
	}

	if err := s.orders.UpdateStatus(ctx, orderID, StatusCancelled); err != nil {
		return nil, errors.Wrap(err, "update status")
	}
	s.cancelled.Add(ctx, 1)
	o.Status = StatusCancelled
	return o, nil
}

// MarkCompleted transitions the order to completed. Calling it on an already
// completed order is a no-op that succeeds.
func (s *Service) MarkCompleted(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, orderID, StatusCompleted); err != nil {
		return nil, errors.Wrap(err, "update status")
	}
	o.Status = StatusCompleted
	return o, nil
}

// ListByUser returns every order placed by the user.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListByRestaurant returns every order placed at the restaurant.
func (s *Service) ListByRestaurant(ctx context.Context, restaurantID string) ([]Order, error) {
	return s.orders.ListByRestaurant(ctx, restaurantID)
}
