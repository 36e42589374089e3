package transport

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vendo/internal/domain"
	"vendo/internal/middleware"
	"vendo/internal/repository"
	"vendo/internal/service"
	"vendo/internal/session"
)

// AddItemRequest is the payload for adding one product to the cart.
type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// ReplaceCartRequest is the payload for a whole-cart replacement.
type ReplaceCartRequest struct {
	Items []service.ReplaceItem `json:"items" validate:"required,dive"`
}

// CartResponse reports the cart state after a read or mutation.
type CartResponse struct {
	Items     []domain.CartItem `json:"items"`
	Total     domain.Amount     `json:"total"`
	CartCount int               `json:"cart_count"`
}

// CartHandler handles HTTP requests for cart operations
type CartHandler struct {
	cart     *service.CartService
	sessions *session.Manager
	logger   *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cart *service.CartService, sessions *session.Manager, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cart:     cart,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers cart routes
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Replace)
		r.Post("/items", h.AddItem)
	})
}

// Get returns the session's current cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := resolveSession(w, r, h.sessions)
	cart := sess.CartSnapshot()

	middleware.RespondWithJSON(w, http.StatusOK, CartResponse{
		Items:     cart.Items,
		Total:     cart.Total(),
		CartCount: cart.Count(),
	})
}

// AddItem adds one product line to the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess := resolveSession(w, r, h.sessions)

	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Add item validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	count, err := h.cart.AddItem(r.Context(), sess, req.ProductID, req.Quantity)
	if err != nil {
		h.respondCartError(w, err)
		return
	}

	cart := sess.CartSnapshot()
	middleware.RespondWithJSON(w, http.StatusOK, CartResponse{
		Items:     cart.Items,
		Total:     cart.Total(),
		CartCount: count,
	})
}

// Replace swaps the whole cart for the submitted lines
func (h *CartHandler) Replace(w http.ResponseWriter, r *http.Request) {
	sess := resolveSession(w, r, h.sessions)

	var req ReplaceCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Cart replace validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.cart.ReplaceItems(r.Context(), sess, req.Items); err != nil {
		h.respondCartError(w, err)
		return
	}

	cart := sess.CartSnapshot()
	middleware.RespondWithJSON(w, http.StatusOK, CartResponse{
		Items:     cart.Items,
		Total:     cart.Total(),
		CartCount: cart.Count(),
	})
}

func (h *CartHandler) respondCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrMachineLocked):
		middleware.RespondWithError(w, http.StatusLocked, "machine is in use by another shopper")
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, service.ErrInvalidQuantity):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStockExceeded):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Cart operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "cart operation failed")
	}
}
