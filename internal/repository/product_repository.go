package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vendo/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	List(ctx context.Context, brand string, minPrice, maxPrice domain.Amount) ([]*domain.Product, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	AdjustStock(ctx context.Context, id int64, delta int) error
	BulkInsert(ctx context.Context, products []*domain.Product) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// List retrieves products joined with their brand name, optionally
// filtered by brand name and price range. An empty brand or "All"
// disables the brand filter.
func (r *productRepository) List(ctx context.Context, brand string, minPrice, maxPrice domain.Amount) ([]*domain.Product, error) {
	query := `
		SELECT p.id, p.name, p.price, p.stock, p.brand_id, b.name
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		WHERE p.price >= $1 AND p.price <= $2
	`
	args := []interface{}{minPrice, maxPrice}

	if brand = strings.TrimSpace(brand); brand != "" && brand != "All" {
		query += " AND b.name = $3"
		args = append(args, brand)
	}
	query += " ORDER BY p.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product := &domain.Product{}
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Price,
			&product.Stock,
			&product.BrandID,
			&product.BrandName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT p.id, p.name, p.price, p.stock, p.brand_id, b.name
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		WHERE p.id = $1
	`

	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.Stock,
		&product.BrandID,
		&product.BrandName,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// AdjustStock applies a signed delta to a product's stock count. The
// repository does not clamp the result; callers must guarantee the new
// stock is non-negative before invoking it.
func (r *productRepository) AdjustStock(ctx context.Context, id int64, delta int) error {
	query := `UPDATE products SET stock = stock + $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// BulkInsert writes a batch of imported products inside one transaction
// so a concurrent settlement never observes a half-written import.
func (r *productRepository) BulkInsert(ctx context.Context, products []*domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (name, price, stock, brand_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	for _, product := range products {
		err := tx.QueryRowContext(
			ctx,
			query,
			product.Name,
			product.Price,
			product.Stock,
			product.BrandID,
		).Scan(&product.ID)
		if err != nil {
			return fmt.Errorf("failed to insert product %q: %w", product.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import transaction: %w", err)
	}

	return nil
}
