package transport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vendo/internal/domain"
	"vendo/internal/middleware"
	"vendo/internal/service"
	"vendo/internal/session"
)

// CatalogResponse is the catalog page payload: the filtered products,
// the brand filter options, and this session's view of the machine.
type CatalogResponse struct {
	Products      []*domain.Product `json:"products"`
	Brands        []string          `json:"brands"`
	CartCount     int               `json:"cart_count"`
	MachineLocked bool              `json:"machine_locked"`
}

// CatalogHandler handles HTTP requests for catalog browsing
type CatalogHandler struct {
	catalog  *service.CatalogService
	sessions *session.Manager
	logger   *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog *service.CatalogService, sessions *session.Manager, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:  catalog,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/catalog", h.List)
	r.Get("/api/brands", h.Brands)
}

// List handles catalog browsing with brand and price filters
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := resolveSession(w, r, h.sessions)

	brand := r.URL.Query().Get("brand")
	minPrice := parseAmount(r.URL.Query().Get("min_price"), 0)
	maxPrice := parseAmount(r.URL.Query().Get("max_price"), 0)

	products, err := h.catalog.List(r.Context(), brand, minPrice, maxPrice)
	if err != nil {
		h.logger.Error("Catalog listing failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	brands, err := h.catalog.Brands(r.Context())
	if err != nil {
		h.logger.Error("Brand listing failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load brands")
		return
	}

	cart := sess.CartSnapshot()
	middleware.RespondWithJSON(w, http.StatusOK, CatalogResponse{
		Products:      products,
		Brands:        brands,
		CartCount:     cart.Count(),
		MachineLocked: sess.ReadOnly(),
	})
}

// Brands handles the brand filter options lookup
func (h *CatalogHandler) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.Brands(r.Context())
	if err != nil {
		h.logger.Error("Brand listing failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load brands")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string][]string{"brands": brands})
}

func parseAmount(raw string, fallback domain.Amount) domain.Amount {
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return domain.Amount(value)
}
