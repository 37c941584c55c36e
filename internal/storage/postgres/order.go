package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platemate/order-api/internal/domain/cart"
	"github.com/platemate/order-api/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, user_id, restaurant_id, delivery_address_id, status, order_time, total_price, items)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getOrderSQL = `SELECT id, user_id, restaurant_id, delivery_address_id, status, order_time, total_price, items
	FROM orders
	WHERE id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	listOrdersByUserSQL = `SELECT id, user_id, restaurant_id, delivery_address_id, status, order_time, total_price, items
	FROM orders
	WHERE user_id = $1
	ORDER BY order_time DESC`

	listOrdersByRestaurantSQL = `SELECT id, user_id, restaurant_id, delivery_address_id, status, order_time, total_price, items
	FROM orders
	WHERE restaurant_id = $1
	ORDER BY order_time DESC`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. The cart line snapshot is serialized to JSON
// for storage in the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, o.RestaurantID, o.DeliveryAddressID,
		string(o.Status), o.OrderTime, o.TotalPrice, itemsJSON,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns the order or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, getOrderSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return o, nil
}

// UpdateStatus sets the order's status. Returns order.ErrNotFound when no row
// matched.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating order %q status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return scanOrders(rows)
}

// ListByRestaurant returns the restaurant's orders, newest first.
func (r *OrderRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByRestaurantSQL, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return scanOrders(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var (
		o         order.Order
		status    string
		itemsJSON []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &o.RestaurantID, &o.DeliveryAddressID,
		&status, &o.OrderTime, &o.TotalPrice, &itemsJSON)
	if err != nil {
		return nil, err
	}

	o.Status = order.Status(status)
	var items []cart.Line
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, fmt.Errorf("unmarshaling order items: %w", err)
	}
	o.Items = items
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]order.Order, error) {
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading orders: %w", err)
	}
	return orders, nil
}
