package service

import (
	"context"
	"fmt"

	"vendo/internal/domain"
	"vendo/internal/repository"
)

// OrderService serves the read-only order history.
type OrderService struct {
	orders repository.OrderRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orders repository.OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

// History returns every persisted order, newest first.
func (s *OrderService) History(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	return orders, nil
}
