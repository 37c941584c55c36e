package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platemate/order-api/internal/domain/cart"
)

const (
	getCartLineSQL = `SELECT user_id, restaurant_id, menu_item_id, quantity, price
	FROM cart_lines
	WHERE user_id = $1 AND restaurant_id = $2 AND menu_item_id = $3`

	listCartLinesSQL = `SELECT user_id, restaurant_id, menu_item_id, quantity, price
	FROM cart_lines
	WHERE user_id = $1 AND restaurant_id = $2
	ORDER BY menu_item_id`

	listCartLinesByUserSQL = `SELECT user_id, restaurant_id, menu_item_id, quantity, price
	FROM cart_lines
	WHERE user_id = $1
	ORDER BY restaurant_id, menu_item_id`

	saveCartLineSQL = `INSERT INTO cart_lines (user_id, restaurant_id, menu_item_id, quantity, price, updated_at)
	VALUES ($1, $2, $3, $4, $5, now())
	ON CONFLICT (user_id, restaurant_id, menu_item_id)
	DO UPDATE SET quantity = EXCLUDED.quantity, price = EXCLUDED.price, updated_at = now()`

	deleteCartLineSQL = `DELETE FROM cart_lines
	WHERE user_id = $1 AND restaurant_id = $2 AND menu_item_id = $3`

	deleteAllCartLinesSQL = `DELETE FROM cart_lines
	WHERE user_id = $1 AND restaurant_id = $2`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns the line for (user, restaurant, menu item), or
// cart.ErrLineNotFound when no row exists.
func (r *CartRepository) Get(ctx context.Context, userID, restaurantID, menuItemID string) (*cart.Line, error) {
	row := r.pool.QueryRow(ctx, getCartLineSQL, userID, restaurantID, menuItemID)

	var l cart.Line
	err := row.Scan(&l.UserID, &l.RestaurantID, &l.MenuItemID, &l.Quantity, &l.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrLineNotFound
		}
		return nil, fmt.Errorf("getting cart line: %w", err)
	}
	return &l, nil
}

// ListByUserAndRestaurant returns all lines for the pair, possibly empty.
func (r *CartRepository) ListByUserAndRestaurant(ctx context.Context, userID, restaurantID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartLinesSQL, userID, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("listing cart lines: %w", err)
	}
	return scanCartLines(rows)
}

// ListByUser returns all of the user's lines across restaurants.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartLinesByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart lines: %w", err)
	}
	return scanCartLines(rows)
}

// Save upserts the line on its (user, restaurant, menu item) key.
func (r *CartRepository) Save(ctx context.Context, l *cart.Line) error {
	_, err := r.pool.Exec(ctx, saveCartLineSQL,
		l.UserID, l.RestaurantID, l.MenuItemID, l.Quantity, l.Price,
	)
	if err != nil {
		return fmt.Errorf("saving cart line: %w", err)
	}
	return nil
}

// Delete removes a single line.
func (r *CartRepository) Delete(ctx context.Context, userID, restaurantID, menuItemID string) error {
	_, err := r.pool.Exec(ctx, deleteCartLineSQL, userID, restaurantID, menuItemID)
	if err != nil {
		return fmt.Errorf("deleting cart line: %w", err)
	}
	return nil
}

// DeleteAll removes every line for the user and restaurant pair.
func (r *CartRepository) DeleteAll(ctx context.Context, userID, restaurantID string) error {
	_, err := r.pool.Exec(ctx, deleteAllCartLinesSQL, userID, restaurantID)
	if err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

func scanCartLines(rows pgx.Rows) ([]cart.Line, error) {
	defer rows.Close()

	var lines []cart.Line
	for rows.Next() {
		var l cart.Line
		if err := rows.Scan(&l.UserID, &l.RestaurantID, &l.MenuItemID, &l.Quantity, &l.Price); err != nil {
			return nil, fmt.Errorf("scanning cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading cart lines: %w", err)
	}
	return lines, nil
}
