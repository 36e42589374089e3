package repository

import (
	"context"
	"database/sql"
	"fmt"

	"vendo/internal/domain"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// Save writes the order and its line items in one transaction and
	// fills in the generated order ID.
	Save(ctx context.Context, order *domain.Order) error
	// List returns all orders with their items, newest first.
	List(ctx context.Context) ([]*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Save persists an order and its items atomically
func (r *orderRepository) Save(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (created_at, total)
		VALUES ($1, $2)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, orderQuery, order.CreatedAt, order.Total).Scan(&order.ID); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, product_name, brand_name, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, item := range order.Items {
		_, err := tx.ExecContext(
			ctx,
			itemQuery,
			order.ID,
			item.ProductID,
			item.ProductName,
			item.BrandName,
			item.Quantity,
			item.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order transaction: %w", err)
	}

	return nil
}

// List retrieves all orders with their line items
func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	query := `
		SELECT id, created_at, total
		FROM orders
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	byID := map[int64]*domain.Order{}
	for rows.Next() {
		order := &domain.Order{}
		if err := rows.Scan(&order.ID, &order.CreatedAt, &order.Total); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
		byID[order.ID] = order
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	itemQuery := `
		SELECT order_id, product_id, product_name, brand_name, quantity, price
		FROM order_items
		ORDER BY id ASC
	`
	itemRows, err := r.db.QueryContext(ctx, itemQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID int64
		var item domain.OrderItem
		err := itemRows.Scan(
			&orderID,
			&item.ProductID,
			&item.ProductName,
			&item.BrandName,
			&item.Quantity,
			&item.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := byID[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	if err = itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return orders, nil
}
