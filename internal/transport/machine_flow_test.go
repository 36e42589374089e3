package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"

	"vendo/internal/domain"
	"vendo/internal/repository"
	"vendo/internal/service"
	"vendo/internal/session"
)

// Mock repositories for testing

type mockProductRepository struct {
	products map[int64]*domain.Product
}

func newMockProductRepository(products ...domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[int64]*domain.Product)}
	for i := range products {
		p := products[i]
		m.products[p.ID] = &p
	}
	return m
}

func (m *mockProductRepository) List(ctx context.Context, brand string, minPrice, maxPrice domain.Amount) ([]*domain.Product, error) {
	ids := make([]int64, 0, len(m.products))
	for id := range m.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products := []*domain.Product{}
	for _, id := range ids {
		p := *m.products[id]
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

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) AdjustStock(ctx context.Context, id int64, delta int) error {
	product, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.Stock += delta
	return nil
}

func (m *mockProductRepository) BulkInsert(ctx context.Context, products []*domain.Product) error {
	for i, product := range products {
		product.ID = int64(len(m.products) + i + 1)
		copied := *product
		m.products[copied.ID] = &copied
	}
	return nil
}

type mockBrandRepository struct {
	brands []domain.Brand
}

func (m *mockBrandRepository) List(ctx context.Context) ([]*domain.Brand, error) {
	brands := make([]*domain.Brand, 0, len(m.brands))
	for i := range m.brands {
		brands = append(brands, &m.brands[i])
	}
	return brands, nil
}

func (m *mockBrandRepository) FindByID(ctx context.Context, id int64) (*domain.Brand, error) {
	for i := range m.brands {
		if m.brands[i].ID == id {
			return &m.brands[i], nil
		}
	}
	return nil, repository.ErrBrandNotFound
}

type mockCoinRepository struct {
	coins map[int]int
}

func (m *mockCoinRepository) ListDesc(ctx context.Context) ([]domain.Coin, error) {
	denominations := make([]int, 0, len(m.coins))
	for denomination := range m.coins {
		denominations = append(denominations, denomination)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(denominations)))

	coins := make([]domain.Coin, 0, len(denominations))
	for _, denomination := range denominations {
		coins = append(coins, domain.Coin{Denomination: denomination, Quantity: m.coins[denomination]})
	}
	return coins, nil
}

func (m *mockCoinRepository) Adjust(ctx context.Context, denomination, delta int) error {
	if _, ok := m.coins[denomination]; !ok {
		return repository.ErrCoinNotFound
	}
	m.coins[denomination] += delta
	return nil
}

type mockOrderRepository struct {
	orders []*domain.Order
}

func (m *mockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	order.ID = int64(len(m.orders) + 1)
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0, len(m.orders))
	for i := len(m.orders) - 1; i >= 0; i-- {
		orders = append(orders, m.orders[i])
	}
	return orders, nil
}

// newTestRouter wires the full API surface over the mocks, the way the
// server package does over real repositories.
func newTestRouter() (chi.Router, *mockCoinRepository) {
	products := newMockProductRepository(
		domain.Product{ID: 1, Name: "Coca-Cola Classic", Price: 50, Stock: 10, BrandID: 1, BrandName: "Coca-Cola"},
		domain.Product{ID: 2, Name: "Fanta Orange", Price: 40, Stock: 15, BrandID: 2, BrandName: "Fanta"},
	)
	brands := &mockBrandRepository{brands: []domain.Brand{
		{ID: 1, Name: "Coca-Cola"},
		{ID: 2, Name: "Fanta"},
	}}
	coins := &mockCoinRepository{coins: map[int]int{1: 100, 2: 100, 5: 50, 10: 20}}
	orders := &mockOrderRepository{}

	logger := zap.NewNop()
	sessions := session.NewManager(0, logger)

	catalogService := service.NewCatalogService(products, brands)
	cartService := service.NewCartService(products, sessions)
	settlementService := service.NewSettlementService(products, coins, orders, sessions, logger)
	orderService := service.NewOrderService(orders)

	router := chi.NewRouter()
	NewCatalogHandler(catalogService, sessions, logger).RegisterRoutes(router)
	NewCartHandler(cartService, sessions, logger).RegisterRoutes(router)
	NewPaymentHandler(settlementService, sessions, logger).RegisterRoutes(router, nil)
	NewOrderHandler(orderService, logger).RegisterRoutes(router)

	return router, coins
}

// doJSON sends a request carrying the session cookie and returns the
// recorder. A non-nil cookie is attached; the response cookie, if any,
// is handed back for the next call.
func doJSON(t *testing.T, router chi.Router, method, path string, body interface{}, cookie *http.Cookie) (*httptest.ResponseRecorder, *http.Cookie) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return w, c
		}
	}
	return w, cookie
}

func TestShoppingFlowEndToEnd(t *testing.T) {
	router, coins := newTestRouter()

	// First contact creates a session and acquires the machine.
	w, cookie := doJSON(t, router, http.MethodGet, "/api/cart", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/cart returned %d", w.Code)
	}
	if cookie == nil {
		t.Fatal("expected a session cookie on first contact")
	}

	// Two colas into the cart.
	w, cookie = doJSON(t, router, http.MethodPost, "/api/cart/items",
		AddItemRequest{ProductID: 1, Quantity: 2}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/cart/items returned %d: %s", w.Code, w.Body.String())
	}

	var cart CartResponse
	if err := json.Unmarshal(w.Body.Bytes(), &cart); err != nil {
		t.Fatalf("failed to decode cart response: %v", err)
	}
	if cart.Total != 100 || cart.CartCount != 2 {
		t.Errorf("unexpected cart state: %+v", cart)
	}

	// Pay 100 owed with eleven tens; ten back as change.
	w, cookie = doJSON(t, router, http.MethodPost, "/api/payment",
		PaymentRequest{Coins: map[string]int{"10": 11}}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/payment returned %d: %s", w.Code, w.Body.String())
	}

	var result service.SettlementResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode settlement response: %v", err)
	}
	if result.Total != 100 || result.Inserted != 110 {
		t.Errorf("unexpected settlement result: %+v", result)
	}
	if result.Change[10] != 1 {
		t.Errorf("expected one ten-coin in change, got %v", result.Change)
	}
	if coins.coins[10] != 20-1+11 {
		t.Errorf("expected ten-coin slot at 30, got %d", coins.coins[10])
	}

	// Cart is cleared and the order appears in the history.
	w, cookie = doJSON(t, router, http.MethodGet, "/api/cart", nil, cookie)
	if err := json.Unmarshal(w.Body.Bytes(), &cart); err != nil {
		t.Fatalf("failed to decode cart response: %v", err)
	}
	if cart.CartCount != 0 {
		t.Errorf("expected empty cart after payment, got count %d", cart.CartCount)
	}

	w, _ = doJSON(t, router, http.MethodGet, "/api/orders", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/orders returned %d", w.Code)
	}
	var history struct {
		Orders []*domain.Order `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &history); err != nil {
		t.Fatalf("failed to decode orders response: %v", err)
	}
	if len(history.Orders) != 1 || history.Orders[0].Total != 100 {
		t.Errorf("unexpected order history: %+v", history.Orders)
	}
}

func TestPaymentSumsAliasedDenominationKeys(t *testing.T) {
	router, coins := newTestRouter()

	_, cookie := doJSON(t, router, http.MethodGet, "/api/cart", nil, nil)
	w, cookie := doJSON(t, router, http.MethodPost, "/api/cart/items",
		AddItemRequest{ProductID: 1, Quantity: 2}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/cart/items returned %d: %s", w.Code, w.Body.String())
	}

	// "10" and "010" are distinct JSON keys for the same denomination;
	// their counts must add up to eleven tens, not overwrite each other.
	w, _ = doJSON(t, router, http.MethodPost, "/api/payment",
		PaymentRequest{Coins: map[string]int{"10": 10, "010": 1}}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/payment returned %d: %s", w.Code, w.Body.String())
	}

	var result service.SettlementResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode settlement response: %v", err)
	}
	if result.Inserted != 110 {
		t.Errorf("expected inserted 110, got %d", result.Inserted)
	}
	if result.Change[10] != 1 {
		t.Errorf("expected one ten-coin in change, got %v", result.Change)
	}
	if coins.coins[10] != 20-1+11 {
		t.Errorf("expected ten-coin slot at 30, got %d", coins.coins[10])
	}
}

func TestSecondShopperIsLockedOut(t *testing.T) {
	router, _ := newTestRouter()

	// First shopper takes the machine.
	_, first := doJSON(t, router, http.MethodGet, "/api/cart", nil, nil)
	if first == nil {
		t.Fatal("expected a session cookie for the first shopper")
	}

	// Second shopper, fresh cookie, tries to add an item.
	_, second := doJSON(t, router, http.MethodGet, "/api/cart", nil, nil)
	w, _ := doJSON(t, router, http.MethodPost, "/api/cart/items",
		AddItemRequest{ProductID: 1, Quantity: 1}, second)
	if w.Code != http.StatusLocked {
		t.Fatalf("expected 423 for locked machine, got %d", w.Code)
	}

	// The first shopper is unaffected.
	w, _ = doJSON(t, router, http.MethodPost, "/api/cart/items",
		AddItemRequest{ProductID: 1, Quantity: 1}, first)
	if w.Code != http.StatusOK {
		t.Fatalf("lock holder should still shop, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPaymentErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(t *testing.T, router chi.Router) *http.Cookie
		payment  PaymentRequest
		wantCode int
	}{
		{
			name: "empty cart",
			prepare: func(t *testing.T, router chi.Router) *http.Cookie {
				_, cookie := doJSON(t, router, http.MethodGet, "/api/cart", nil, nil)
				return cookie
			},
			payment:  PaymentRequest{Coins: map[string]int{"10": 5}},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "insufficient funds",
			prepare: func(t *testing.T, router chi.Router) *http.Cookie {
				w, cookie := doJSON(t, router, http.MethodPost, "/api/cart/items",
					AddItemRequest{ProductID: 1, Quantity: 2}, nil)
				if w.Code != http.StatusOK {
					t.Fatalf("setup add failed: %d", w.Code)
				}
				return cookie
			},
			payment:  PaymentRequest{Coins: map[string]int{"10": 5}},
			wantCode: http.StatusPaymentRequired,
		},
		{
			name: "bad denomination string",
			prepare: func(t *testing.T, router chi.Router) *http.Cookie {
				_, cookie := doJSON(t, router, http.MethodGet, "/api/cart", nil, nil)
				return cookie
			},
			payment:  PaymentRequest{Coins: map[string]int{"gold": 1}},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter()
			cookie := tt.prepare(t, router)

			w, _ := doJSON(t, router, http.MethodPost, "/api/payment", tt.payment, cookie)
			if w.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestProperty_InvalidAddItemPayloadsAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("non-positive product ids and quantities return 400", prop.ForAll(
		func(productID int64, quantity int) bool {
			router, _ := newTestRouter()
			_, cookie := doJSON(t, router, http.MethodGet, "/api/cart", nil, nil)

			w, _ := doJSON(t, router, http.MethodPost, "/api/cart/items",
				AddItemRequest{ProductID: productID, Quantity: quantity}, cookie)
			return w.Code == http.StatusBadRequest
		},
		gen.Int64Range(-10, 0),
		gen.IntRange(-10, 0),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
