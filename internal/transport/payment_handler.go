package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vendo/internal/middleware"
	"vendo/internal/repository"
	"vendo/internal/service"
	"vendo/internal/session"
)

// PaymentRequest carries the inserted coins. JSON object keys are
// strings, so denominations arrive as "10": 3 and are parsed here.
type PaymentRequest struct {
	Coins map[string]int `json:"coins" validate:"required"`
}

// PaymentHandler handles HTTP requests for payment settlement
type PaymentHandler struct {
	settlement *service.SettlementService
	sessions   *session.Manager
	logger     *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(settlement *service.SettlementService, sessions *session.Manager, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		settlement: settlement,
		sessions:   sessions,
		logger:     logger,
	}
}

// RegisterRoutes registers the payment route, wrapped by the supplied
// rate limiter.
func (h *PaymentHandler) RegisterRoutes(r chi.Router, rateLimit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if rateLimit != nil {
			r.Use(rateLimit)
		}
		r.Post("/api/payment", h.Pay)
	})
}

// Pay runs one settlement attempt for the session's cart
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	sess := resolveSession(w, r, h.sessions)

	var req PaymentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Payment validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Keys like "10" and "010" parse to the same denomination, so counts
	// are summed rather than overwritten.
	inserted := make(map[int]int, len(req.Coins))
	for raw, count := range req.Coins {
		denomination, err := strconv.Atoi(raw)
		if err != nil || denomination <= 0 || count < 0 {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid coin denomination "+raw)
			return
		}
		inserted[denomination] += count
	}

	result, err := h.settlement.Settle(r.Context(), sess, inserted)
	if err != nil {
		h.respondSettlementError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *PaymentHandler) respondSettlementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrMachineLocked):
		middleware.RespondWithError(w, http.StatusLocked, "machine is in use by another shopper")
	case errors.Is(err, service.ErrEmptyCart):
		middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, service.ErrInvalidCoins):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		middleware.RespondWithError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, service.ErrExactChangeUnavailable):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStockExceeded):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrProductNotFound), errors.Is(err, repository.ErrCoinNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("Settlement failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "payment failed")
	}
}
