package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"asset-tracker-backend/internal/inventory"
	"asset-tracker-backend/internal/sheet"
	"asset-tracker-backend/internal/status"
	"asset-tracker-backend/internal/store"
)

// exportLimit bounds a single export.
const exportLimit = 100000

// equipmentRequest is the JSON body of create and update requests.
// Date accepts YYYY-MM-DD or RFC3339.
type equipmentRequest struct {
	Name         string  `json:"name"`
	Model        string  `json:"model"`
	Code         string  `json:"code"`
	Status       *int    `json:"status"`
	Date         string  `json:"date"`
	Remark       *string `json:"remark"`
	DepartmentID int64   `json:"departmentId"`
}

func (r equipmentRequest) input() (inventory.EquipmentInput, error) {
	in := inventory.EquipmentInput{
		Name:         r.Name,
		Model:        r.Model,
		Code:         r.Code,
		Remark:       r.Remark,
		DepartmentID: r.DepartmentID,
	}
	if r.Status == nil {
		return in, fmt.Errorf("%w: status is required", inventory.ErrInvalidInput)
	}
	in.Status = *r.Status

	if r.Date != "" {
		d, err := parseDate(r.Date)
		if err != nil {
			return in, fmt.Errorf("%w: date %q is not YYYY-MM-DD", inventory.ErrInvalidInput, r.Date)
		}
		in.Date = &d
	}
	return in, nil
}

func parseDate(s string) (time.Time, error) {
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, s)
}

func equipmentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid equipment ID"})
		return 0, false
	}
	return id, true
}

// equipmentFilter reads department_id, status, q, sort, limit and offset query parameters.
func equipmentFilter(c *gin.Context) (store.EquipmentFilter, error) {
	filter := store.EquipmentFilter{
		Search: c.Query("q"),
		Sort:   c.Query("sort"),
	}

	if v := c.Query("department_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid department_id")
		}
		filter.DepartmentID = id
	}

	if v := c.Query("status"); v != "" {
		code, err := strconv.Atoi(v)
		if err != nil || !status.Valid(code) {
			return filter, fmt.Errorf("invalid status")
		}
		filter.Status = &code
	}

	var err error
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(c, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

// GetEquipmentList handles GET /api/equipment.
func (h *Handler) GetEquipmentList(c *gin.Context) {
	filter, err := equipmentFilter(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// GetEquipment handles GET /api/equipment/:id.
func (h *Handler) GetEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		return
	}
	eq, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, eq)
}

func (h *Handler) bindEquipment(c *gin.Context) (inventory.EquipmentInput, bool) {
	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return inventory.EquipmentInput{}, false
	}
	in, err := req.input()
	if err != nil {
		respondError(c, err)
		return in, false
	}
	return in, true
}

// PostEquipment handles POST /api/equipment.
func (h *Handler) PostEquipment(c *gin.Context) {
	in, ok := h.bindEquipment(c)
	if !ok {
		return
	}
	eq, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, eq)
}

// PutEquipment handles PUT /api/equipment/:id.
func (h *Handler) PutEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		return
	}
	in, ok := h.bindEquipment(c)
	if !ok {
		return
	}
	eq, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, eq)
}

// DeleteEquipment handles DELETE /api/equipment/:id.
func (h *Handler) DeleteEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportEquipment handles GET /api/equipment/export. It accepts the list filters.
func (h *Handler) ExportEquipment(c *gin.Context) {
	filter, err := equipmentFilter(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter.Limit, filter.Offset = exportLimit, 0

	items, _, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	buf, err := sheet.WriteEquipment(items)
	if err != nil {
		respondError(c, err)
		return
	}
	sendWorkbook(c, fmt.Sprintf("设备清单-%s.xlsx", time.Now().Format("20060102")), buf.Bytes())
}
