package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/platemate/order-api/internal/domain/menu"
)

// Service encapsulates cart mutation logic: adding items, quantity edits with
// price recomputation, and removals.
type Service struct {
	lines Repository
	menu  menu.Repository
}

// NewService creates a cart Service backed by the given repositories.
func NewService(lines Repository, items menu.Repository) *Service {
	return &Service{
		lines: lines,
		menu:  items,
	}
}

// AddItem puts quantity units of a menu item into the user's cart for the
// item's restaurant. When a line for the item already exists the quantities
// merge and the price is recomputed from the line's stored unit price;
// otherwise a new line is created priced from the menu item.
func (s *Service) AddItem(ctx context.Context, userID, restaurantID, menuItemID string, quantity int) (*Line, error) {
	if quantity <= 0 {
		return nil, errors.New("quantity must be greater than 0")
	}

	item, err := s.menu.GetByID(ctx, menuItemID)
	if err != nil {
		return nil, errors.Wrapf(err, "get menu item %s", menuItemID)
	}
	if !item.Available {
		return nil, &ItemUnavailableError{MenuItemID: menuItemID}
	}
	if item.RestaurantID != restaurantID {
		return nil, errors.Wrapf(menu.ErrNotFound, "menu item %s does not belong to restaurant %s", menuItemID, restaurantID)
	}

	line, err := s.lines.Get(ctx, userID, restaurantID, menuItemID)
	switch {
	case err == nil:
		unit := line.UnitPrice()
		line.Quantity += quantity
		line.Price = unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
	case errors.Is(err, ErrLineNotFound):
		line = &Line{
			UserID:       userID,
			RestaurantID: restaurantID,
			MenuItemID:   menuItemID,
			Quantity:     quantity,
			Price:        item.Price.Mul(decimal.NewFromInt(int64(quantity))),
		}
	default:
		return nil, errors.Wrap(err, "get cart line")
	}

	if err := s.lines.Save(ctx, line); err != nil {
		return nil, errors.Wrap(err, "save cart line")
	}
	return line, nil
}

// UpdateQuantity sets the line's quantity. Negative quantities clamp to zero,
// and zero removes the line entirely (a nil line is returned in that case).
// The price is recomputed from the previously stored unit price.
func (s *Service) UpdateQuantity(ctx context.Context, userID, restaurantID, menuItemID string, quantity int) (*Line, error) {
	if quantity < 0 {
		quantity = 0
	}

	line, err := s.lines.Get(ctx, userID, restaurantID, menuItemID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart line")
	}

	if quantity == 0 {
		if err := s.lines.Delete(ctx, userID, restaurantID, menuItemID); err != nil {
			return nil, errors.Wrap(err, "delete cart line")
		}
		return nil, nil
	}

	unit := line.UnitPrice()
	line.Quantity = quantity
	line.Price = unit.Mul(decimal.NewFromInt(int64(quantity)))

	if err := s.lines.Save(ctx, line); err != nil {
		return nil, errors.Wrap(err, "save cart line")
	}
	return line, nil
}

// RemoveItem deletes the line for the menu item from the user's cart.
func (s *Service) RemoveItem(ctx context.Context, userID, restaurantID, menuItemID string) error {
	if _, err := s.lines.Get(ctx, userID, restaurantID, menuItemID); err != nil {
		return errors.Wrap(err, "get cart line")
	}
	return s.lines.Delete(ctx, userID, restaurantID, menuItemID)
}

// GetCart returns all lines for the user and restaurant pair. An empty cart
// is an empty slice, not an error.
func (s *Service) GetCart(ctx context.Context, userID, restaurantID string) ([]Line, error) {
	lines, err := s.lines.ListByUserAndRestaurant(ctx, userID, restaurantID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart lines")
	}
	return lines, nil
}

// ClearCart removes every line for the user and restaurant pair.
func (s *Service) ClearCart(ctx context.Context, userID, restaurantID string) error {
	return s.lines.DeleteAll(ctx, userID, restaurantID)
}
