package service

import (
	"context"
	"fmt"

	"vendo/internal/domain"
	"vendo/internal/repository"
)

// DefaultMaxPrice caps the price filter when the caller does not
// provide an upper bound.
const DefaultMaxPrice domain.Amount = 1000

// CatalogService serves read-only product and brand lookups.
type CatalogService struct {
	products repository.ProductRepository
	brands   repository.BrandRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(products repository.ProductRepository, brands repository.BrandRepository) *CatalogService {
	return &CatalogService{
		products: products,
		brands:   brands,
	}
}

// List returns products filtered by brand name and price range. An
// empty or "All" brand matches everything; maxPrice <= 0 falls back to
// DefaultMaxPrice.
func (s *CatalogService) List(ctx context.Context, brand string, minPrice, maxPrice domain.Amount) ([]*domain.Product, error) {
	if minPrice < 0 {
		minPrice = 0
	}
	if maxPrice <= 0 {
		maxPrice = DefaultMaxPrice
	}

	products, err := s.products.List(ctx, brand, minPrice, maxPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	return products, nil
}

// Brands returns the names of every brand.
func (s *CatalogService) Brands(ctx context.Context) ([]string, error) {
	brands, err := s.brands.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}

	names := make([]string, 0, len(brands))
	for _, brand := range brands {
		names = append(names, brand.Name)
	}
	return names, nil
}
