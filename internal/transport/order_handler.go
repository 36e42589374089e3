package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vendo/internal/middleware"
	"vendo/internal/service"
)

// OrderHandler serves the read-only order history
type OrderHandler struct {
	orders *service.OrderService
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/orders", h.History)
}

// History lists all settled orders
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.History(r.Context())
	if err != nil {
		h.logger.Error("Order history failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}
