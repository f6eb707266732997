package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"asset-tracker-backend/internal/audit"
	"asset-tracker-backend/internal/importer"
	"asset-tracker-backend/internal/inventory"
	"asset-tracker-backend/internal/status"
	"asset-tracker-backend/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc            *inventory.Service
	imports        importer.Submitter
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(svc *inventory.Service, imports importer.Submitter, maxUploadBytes int64, logger *zap.Logger) *Handler {
	return &Handler{
		svc:            svc,
		imports:        imports,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// respondError maps domain errors to HTTP responses. Unexpected errors are
// attached to the context for the access log and reported as 500.
func respondError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, inventory.ErrInvalidInput),
		errors.Is(err, inventory.ErrDepartmentNotFound),
		errors.Is(err, status.ErrUnknownStatus):
		code = http.StatusBadRequest
	case errors.Is(err, store.ErrDuplicateDepartmentName):
		code = http.StatusConflict
	case errors.Is(err, audit.ErrMissingDate):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, importer.ErrQueueStopped):
		code = http.StatusServiceUnavailable
	}

	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(code, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

// sendWorkbook writes an xlsx download response.
func sendWorkbook(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, body)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
