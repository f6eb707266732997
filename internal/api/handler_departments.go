package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type departmentRequest struct {
	Name string `json:"name" binding:"required"`
}

// GetDepartments handles GET /api/departments.
func (h *Handler) GetDepartments(c *gin.Context) {
	depts, err := h.svc.ListDepartments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, depts)
}

// PostDepartment handles POST /api/departments.
func (h *Handler) PostDepartment(c *gin.Context) {
	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	dept, err := h.svc.CreateDepartment(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dept)
}
