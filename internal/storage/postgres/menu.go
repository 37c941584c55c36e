package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platemate/order-api/internal/domain/menu"
)

const (
	listMenuItemsSQL = `SELECT id, restaurant_id, name, category, price, available
	FROM menu_items
	WHERE restaurant_id = $1
	ORDER BY category, name`

	getMenuItemSQL = `SELECT id, restaurant_id, name, category, price, available
	FROM menu_items
	WHERE id = $1`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// ListByRestaurant returns the restaurant's menu ordered by category and name.
func (r *MenuRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuItemsSQL, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	defer rows.Close()

	var items []menu.Item
	for rows.Next() {
		var it menu.Item
		if err := rows.Scan(&it.ID, &it.RestaurantID, &it.Name, &it.Category, &it.Price, &it.Available); err != nil {
			return nil, fmt.Errorf("scanning menu item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading menu items: %w", err)
	}
	return items, nil
}

// GetByID returns a single menu item, or menu.ErrNotFound.
func (r *MenuRepository) GetByID(ctx context.Context, id string) (*menu.Item, error) {
	row := r.pool.QueryRow(ctx, getMenuItemSQL, id)

	var it menu.Item
	err := row.Scan(&it.ID, &it.RestaurantID, &it.Name, &it.Category, &it.Price, &it.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}
	return &it, nil
}
