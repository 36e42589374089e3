package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"vendo/internal/domain"
	"vendo/internal/repository"
	"vendo/internal/session"
)

var (
	ErrEmptyCart              = errors.New("cart is empty")
	ErrInsufficientFunds      = errors.New("inserted coins do not cover the cart total")
	ErrExactChangeUnavailable = errors.New("machine cannot return exact change")
	ErrInvalidCoins           = errors.New("invalid coin input")
	ErrStockExceeded          = errors.New("requested quantity exceeds available stock")
)

// SettlementResult is returned to the caller after a successful payment.
type SettlementResult struct {
	OrderID  int64                  `json:"order_id"`
	Total    domain.Amount          `json:"total"`
	Inserted domain.Amount          `json:"inserted"`
	Change   domain.ChangeBreakdown `json:"change"`
}

// SettlementService executes one payment attempt as an atomic unit over
// the cart, the coin and product inventory, and order persistence.
//
// Every Settle call runs inside a single mutex. The engine reads
// inventory, computes change, re-validates, and only then mutates;
// interleaving two settlements between the read and the mutation could
// drive coin or stock counts negative, so the critical section covers
// the whole attempt.
type SettlementService struct {
	mu       sync.Mutex
	products repository.ProductRepository
	coins    repository.CoinRepository
	orders   repository.OrderRepository
	sessions *session.Manager
	logger   *zap.Logger
}

// NewSettlementService creates a new instance of SettlementService
func NewSettlementService(
	products repository.ProductRepository,
	coins repository.CoinRepository,
	orders repository.OrderRepository,
	sessions *session.Manager,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		products: products,
		coins:    coins,
		orders:   orders,
		sessions: sessions,
		logger:   logger,
	}
}

// Settle validates funds, computes change, and commits stock decrement,
// coin adjustments and the order record together, or commits nothing.
//
// Failure semantics: on any error before the commit phase the machine
// state is untouched and the cart stays intact for a retry. Inserted
// coins are never credited on failure; physically they go back to the
// customer, so the coin pool must not count them.
func (s *SettlementService) Settle(ctx context.Context, sess *session.Session, inserted map[int]int) (*SettlementResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sessions.Owns(sess.ID) {
		return nil, session.ErrMachineLocked
	}

	cart := sess.CartSnapshot()
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	var insertedAmount domain.Amount
	for denomination, count := range inserted {
		if denomination <= 0 || count < 0 {
			return nil, fmt.Errorf("%w: denomination %d x %d", ErrInvalidCoins, denomination, count)
		}
		insertedAmount += domain.Amount(denomination) * domain.Amount(count)
	}

	totalOwed := cart.Total()
	if insertedAmount < totalOwed {
		return nil, fmt.Errorf("%w: inserted %d, owed %d", ErrInsufficientFunds, insertedAmount, totalOwed)
	}

	coins, err := s.coins.ListDesc(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read coin inventory: %w", err)
	}

	change, remainder := MakeChange(insertedAmount-totalOwed, coins)
	if remainder > 0 {
		s.logger.Warn("Exact change unavailable",
			zap.Int64("owed", int64(totalOwed)),
			zap.Int64("inserted", int64(insertedAmount)),
			zap.Int64("remainder", int64(remainder)),
		)
		return nil, fmt.Errorf("%w: short by %d", ErrExactChangeUnavailable, remainder)
	}

	// Staging: every check that could fail the commit runs here, against
	// current reads, so the mutation phase below cannot be rejected.
	known := make(map[int]bool, len(coins))
	for _, coin := range coins {
		known[coin.Denomination] = true
	}
	for denomination := range inserted {
		if !known[denomination] {
			return nil, fmt.Errorf("denomination %d: %w", denomination, repository.ErrCoinNotFound)
		}
	}

	// Stock is checked against the combined quantity per product, so a
	// cart carrying the same product on several lines cannot slip past
	// the check and drive stock negative in the commit phase.
	orderItems := make([]domain.OrderItem, 0, len(cart.Items))
	requested := make(map[int64]int, len(cart.Items))
	for _, item := range cart.Items {
		if item.Quantity == 0 {
			continue
		}
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, err)
		}
		requested[item.ProductID] += item.Quantity
		if product.Stock < requested[item.ProductID] {
			return nil, fmt.Errorf("%w: %s has %d left, %d requested",
				ErrStockExceeded, product.Name, product.Stock, requested[item.ProductID])
		}
		orderItems = append(orderItems, domain.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.Name,
			BrandName:   product.BrandName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}

	// Commit phase. Ordering follows the physical machine: dispense
	// change, release products, then bank the inserted coins.
	for denomination, count := range change {
		if err := s.coins.Adjust(ctx, denomination, -count); err != nil {
			return nil, fmt.Errorf("failed to dispense %d x %d: %w", count, denomination, err)
		}
	}
	for _, item := range orderItems {
		if err := s.products.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to decrement stock for product %d: %w", item.ProductID, err)
		}
	}
	for denomination, count := range inserted {
		if count == 0 {
			continue
		}
		if err := s.coins.Adjust(ctx, denomination, count); err != nil {
			return nil, fmt.Errorf("failed to credit %d x %d: %w", count, denomination, err)
		}
	}

	order := &domain.Order{
		CreatedAt: time.Now(),
		Total:     totalOwed,
		Items:     orderItems,
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	sess.UpdateCart(func(cart *domain.Cart) { cart.Clear() })
	s.sessions.Release(sess.ID)

	s.logger.Info("Settlement completed",
		zap.Int64("order_id", order.ID),
		zap.Int64("total", int64(totalOwed)),
		zap.Int64("inserted", int64(insertedAmount)),
		zap.String("session_id", sess.ID.String()),
	)

	return &SettlementResult{
		OrderID:  order.ID,
		Total:    totalOwed,
		Inserted: insertedAmount,
		Change:   change,
	}, nil
}
