package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"asset-tracker-backend/internal/status"
)

// GetStatuses handles GET /api/statuses.
func (h *Handler) GetStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, status.All())
}
