package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"asset-tracker-backend/internal/store"
)

// GetAuditLogs handles GET /api/audit-logs?since=&until=&q=&limit=&offset=.
// since and until are RFC3339 timestamps.
func (h *Handler) GetAuditLogs(c *gin.Context) {
	filter := store.AuditFilter{Contains: c.Query("q")}

	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{"since", &filter.Since},
		{"until", &filter.Until},
	} {
		v := c.Query(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid '" + p.name + "' timestamp format. Use RFC3339."})
			return
		}
		*p.dst = t
	}

	var err error
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if filter.Offset, err = queryInt(c, "offset"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, total, err := h.svc.AuditLogs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries, "total": total})
}
