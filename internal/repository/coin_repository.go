package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vendo/internal/domain"
)

var (
	ErrCoinNotFound = errors.New("coin denomination not found")
)

// CoinRepository defines the interface for coin inventory access
type CoinRepository interface {
	// ListDesc returns the coin inventory ordered by denomination,
	// largest first, the order the change algorithm consumes it in.
	ListDesc(ctx context.Context) ([]domain.Coin, error)
	// Adjust applies a signed delta to a denomination's quantity. It
	// does not clamp; the settlement engine pre-checks non-negativity.
	Adjust(ctx context.Context, denomination, delta int) error
}

type coinRepository struct {
	db *sql.DB
}

// NewCoinRepository creates a new instance of CoinRepository
func NewCoinRepository(db *sql.DB) CoinRepository {
	return &coinRepository{db: db}
}

// ListDesc retrieves all coins ordered by denomination descending
func (r *coinRepository) ListDesc(ctx context.Context) ([]domain.Coin, error) {
	query := `
		SELECT denomination, quantity
		FROM coins
		ORDER BY denomination DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list coins: %w", err)
	}
	defer rows.Close()

	coins := []domain.Coin{}
	for rows.Next() {
		var coin domain.Coin
		if err := rows.Scan(&coin.Denomination, &coin.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan coin: %w", err)
		}
		coins = append(coins, coin)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coins: %w", err)
	}

	return coins, nil
}

// Adjust applies a quantity delta to one denomination
func (r *coinRepository) Adjust(ctx context.Context, denomination, delta int) error {
	query := `UPDATE coins SET quantity = quantity + $2 WHERE denomination = $1`

	result, err := r.db.ExecContext(ctx, query, denomination, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust coin quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCoinNotFound
	}

	return nil
}
