package repository

import (
	"context"
	"errors"
	"testing"
)

func TestCoinRepositoryListDescOrdersByDenomination(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewCoinRepository(testDB)

	// Insert out of order on purpose.
	seedCoin(t, 2, 100)
	seedCoin(t, 10, 20)
	seedCoin(t, 1, 100)
	seedCoin(t, 5, 50)

	coins, err := repo.ListDesc(ctx)
	if err != nil {
		t.Fatalf("ListDesc failed: %v", err)
	}
	if len(coins) != 4 {
		t.Fatalf("expected 4 denominations, got %d", len(coins))
	}

	wantOrder := []int{10, 5, 2, 1}
	wantQuantity := map[int]int{10: 20, 5: 50, 2: 100, 1: 100}
	for i, coin := range coins {
		if coin.Denomination != wantOrder[i] {
			t.Errorf("position %d: expected denomination %d, got %d", i, wantOrder[i], coin.Denomination)
		}
		if coin.Quantity != wantQuantity[coin.Denomination] {
			t.Errorf("denomination %d: expected quantity %d, got %d",
				coin.Denomination, wantQuantity[coin.Denomination], coin.Quantity)
		}
	}
}

func TestCoinRepositoryAdjust(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewCoinRepository(testDB)

	seedCoin(t, 10, 20)

	if err := repo.Adjust(ctx, 10, -4); err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if err := repo.Adjust(ctx, 10, 7); err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}

	coins, err := repo.ListDesc(ctx)
	if err != nil {
		t.Fatalf("ListDesc failed: %v", err)
	}
	if len(coins) != 1 || coins[0].Quantity != 23 {
		t.Fatalf("expected quantity 23 after -4 +7, got %+v", coins)
	}
}

func TestCoinRepositoryAdjustUnknownDenomination(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewCoinRepository(testDB)

	seedCoin(t, 1, 100)

	if err := repo.Adjust(ctx, 25, 1); !errors.Is(err, ErrCoinNotFound) {
		t.Errorf("expected ErrCoinNotFound, got %v", err)
	}
}
