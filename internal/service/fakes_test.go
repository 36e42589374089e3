package service

import (
	"context"
	"sort"
	"sync"

	"vendo/internal/domain"
	"vendo/internal/repository"
)

// In-memory fakes for the storage ports. They mirror the repository
// contracts, including the no-clamping rule on adjustments, and offer
// state snapshots so tests can assert that failed settlements mutate
// nothing.

type memProductRepo struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	nextID   int64
}

func newMemProductRepo(products ...domain.Product) *memProductRepo {
	repo := &memProductRepo{products: make(map[int64]*domain.Product), nextID: 1}
	for i := range products {
		p := products[i]
		if p.ID == 0 {
			p.ID = repo.nextID
		}
		if p.ID >= repo.nextID {
			repo.nextID = p.ID + 1
		}
		repo.products[p.ID] = &p
	}
	return repo
}

func (r *memProductRepo) List(ctx context.Context, brand string, minPrice, maxPrice domain.Amount) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(r.products))
	for id := range r.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products := []*domain.Product{}
	for _, id := range ids {
		p := *r.products[id]
		if p.Price < minPrice || p.Price > maxPrice {
			continue
		}
		if brand != "" && brand != "All" && p.BrandName != brand {
			continue
		}
		products = append(products, &p)
	}
	return products, nil
}

func (r *memProductRepo) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (r *memProductRepo) AdjustStock(ctx context.Context, id int64, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.Stock += delta
	return nil
}

func (r *memProductRepo) BulkInsert(ctx context.Context, products []*domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, product := range products {
		product.ID = r.nextID
		r.nextID++
		copied := *product
		r.products[copied.ID] = &copied
	}
	return nil
}

func (r *memProductRepo) snapshot() map[int64]domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := make(map[int64]domain.Product, len(r.products))
	for id, product := range r.products {
		state[id] = *product
	}
	return state
}

type memBrandRepo struct {
	brands map[int64]domain.Brand
}

func newMemBrandRepo(brands ...domain.Brand) *memBrandRepo {
	repo := &memBrandRepo{brands: make(map[int64]domain.Brand)}
	for _, brand := range brands {
		repo.brands[brand.ID] = brand
	}
	return repo
}

func (r *memBrandRepo) List(ctx context.Context) ([]*domain.Brand, error) {
	ids := make([]int64, 0, len(r.brands))
	for id := range r.brands {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.brands[ids[i]].Name < r.brands[ids[j]].Name
	})

	brands := []*domain.Brand{}
	for _, id := range ids {
		brand := r.brands[id]
		brands = append(brands, &brand)
	}
	return brands, nil
}

func (r *memBrandRepo) FindByID(ctx context.Context, id int64) (*domain.Brand, error) {
	brand, ok := r.brands[id]
	if !ok {
		return nil, repository.ErrBrandNotFound
	}
	return &brand, nil
}

type memCoinRepo struct {
	mu    sync.Mutex
	coins map[int]int
}

func newMemCoinRepo(coins map[int]int) *memCoinRepo {
	copied := make(map[int]int, len(coins))
	for denomination, quantity := range coins {
		copied[denomination] = quantity
	}
	return &memCoinRepo{coins: copied}
}

func (r *memCoinRepo) ListDesc(ctx context.Context) ([]domain.Coin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	denominations := make([]int, 0, len(r.coins))
	for denomination := range r.coins {
		denominations = append(denominations, denomination)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(denominations)))

	coins := make([]domain.Coin, 0, len(denominations))
	for _, denomination := range denominations {
		coins = append(coins, domain.Coin{Denomination: denomination, Quantity: r.coins[denomination]})
	}
	return coins, nil
}

func (r *memCoinRepo) Adjust(ctx context.Context, denomination, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.coins[denomination]; !ok {
		return repository.ErrCoinNotFound
	}
	r.coins[denomination] += delta
	return nil
}

func (r *memCoinRepo) snapshot() map[int]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := make(map[int]int, len(r.coins))
	for denomination, quantity := range r.coins {
		state[denomination] = quantity
	}
	return state
}

type memOrderRepo struct {
	mu     sync.Mutex
	orders []*domain.Order
	nextID int64
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{nextID: 1}
}

func (r *memOrderRepo) Save(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order.ID = r.nextID
	r.nextID++

	copied := *order
	copied.Items = make([]domain.OrderItem, len(order.Items))
	copy(copied.Items, order.Items)
	r.orders = append(r.orders, &copied)
	return nil
}

func (r *memOrderRepo) List(ctx context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders := make([]*domain.Order, 0, len(r.orders))
	for i := len(r.orders) - 1; i >= 0; i-- {
		copied := *r.orders[i]
		orders = append(orders, &copied)
	}
	return orders, nil
}
