package transport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vendo/internal/middleware"
	"vendo/internal/service"
)

// maxImportSize caps the uploaded workbook at 8 MiB.
const maxImportSize = 8 << 20

// ImportHandler handles HTTP requests for bulk product import
type ImportHandler struct {
	importer *service.ImportService
	logger   *zap.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importer *service.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		importer: importer,
		logger:   logger,
	}
}

// RegisterRoutes registers the import route, wrapped by the supplied
// rate limiter.
func (h *ImportHandler) RegisterRoutes(r chi.Router, rateLimit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if rateLimit != nil {
			r.Use(rateLimit)
		}
		r.Post("/api/products/import", h.Upload)
	})
}

// Upload accepts a multipart .xlsx file and imports its product rows
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "please attach a file")
		return
	}
	defer file.Close()

	name := strings.ToLower(header.Filename)
	if !strings.HasSuffix(name, ".xlsx") {
		middleware.RespondWithError(w, http.StatusBadRequest, "only .xlsx files are supported")
		return
	}

	count, err := h.importer.ImportXLSX(r.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnreadableFile), errors.Is(err, service.ErrNoValidRows):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Product import failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "import failed")
		}
		return
	}

	h.logger.Info("Import completed",
		zap.String("file", header.Filename),
		zap.Int("imported", count),
	)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"imported": count})
}
