package service

import (
	"context"
	"errors"
	"fmt"

	"vendo/internal/domain"
	"vendo/internal/repository"
	"vendo/internal/session"
)

var (
	ErrInvalidQuantity = errors.New("quantity must not be negative")
)

// CartService validates and applies cart mutations for the session that
// holds the machine.
type CartService struct {
	products repository.ProductRepository
	sessions *session.Manager
}

// NewCartService creates a new instance of CartService
func NewCartService(products repository.ProductRepository, sessions *session.Manager) *CartService {
	return &CartService{
		products: products,
		sessions: sessions,
	}
}

// AddItem adds quantity units of a product to the session's cart,
// accumulating onto an existing line. The line snapshots the product's
// current name and price. The combined quantity must not exceed stock.
func (s *CartService) AddItem(ctx context.Context, sess *session.Session, productID int64, quantity int) (int, error) {
	if !s.sessions.Owns(sess.ID) {
		return 0, session.ErrMachineLocked
	}
	if quantity <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("product %d: %w", productID, err)
	}

	cart := sess.CartSnapshot()
	current := 0
	if line := cart.Find(productID); line != nil {
		current = line.Quantity
	}
	if current+quantity > product.Stock {
		return 0, fmt.Errorf("%w: %s has %d left, %d requested",
			ErrStockExceeded, product.Name, product.Stock, current+quantity)
	}

	count := 0
	sess.UpdateCart(func(cart *domain.Cart) {
		if line := cart.Find(productID); line != nil {
			line.Quantity += quantity
		} else {
			cart.Items = append(cart.Items, domain.CartItem{
				ProductID: productID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  quantity,
			})
		}
		count = cart.Count()
	})

	return count, nil
}

// ReplaceItem is one requested line of a whole-cart replacement.
type ReplaceItem struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=0"`
}

// ReplaceItems swaps the entire cart for the given lines. Lines naming
// the same product merge into one, and the stock check runs against the
// combined quantity; one bad line rejects the whole replacement and
// leaves the cart unchanged. Zero-quantity lines are dropped.
func (s *CartService) ReplaceItems(ctx context.Context, sess *session.Session, items []ReplaceItem) error {
	if !s.sessions.Owns(sess.ID) {
		return session.ErrMachineLocked
	}

	lines := make([]domain.CartItem, 0, len(items))
	index := make(map[int64]int, len(items))
	stock := make(map[int64]int, len(items))
	for _, item := range items {
		if item.Quantity < 0 {
			return fmt.Errorf("%w: got %d for product %d", ErrInvalidQuantity, item.Quantity, item.ProductID)
		}

		i, ok := index[item.ProductID]
		if !ok {
			product, err := s.products.FindByID(ctx, item.ProductID)
			if err != nil {
				return fmt.Errorf("product %d: %w", item.ProductID, err)
			}
			lines = append(lines, domain.CartItem{
				ProductID: item.ProductID,
				Name:      product.Name,
				Price:     product.Price,
			})
			i = len(lines) - 1
			index[item.ProductID] = i
			stock[item.ProductID] = product.Stock
		}

		lines[i].Quantity += item.Quantity
		if lines[i].Quantity > stock[item.ProductID] {
			return fmt.Errorf("%w: %s has %d left, %d requested",
				ErrStockExceeded, lines[i].Name, stock[item.ProductID], lines[i].Quantity)
		}
	}

	replacement := make([]domain.CartItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity > 0 {
			replacement = append(replacement, line)
		}
	}

	sess.UpdateCart(func(cart *domain.Cart) {
		cart.Items = replacement
	})

	return nil
}
