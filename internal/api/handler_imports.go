package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"asset-tracker-backend/internal/sheet"
)

// PostImport handles POST /api/imports. The workbook is sent as the multipart field "file".
func (h *Handler) PostImport(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	rows, err := sheet.ReadRows(f)
	if err != nil {
		h.logger.Warn("Rejected import upload", zap.String("file", fh.Filename), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "not a readable xlsx workbook"})
		return
	}

	count, err := h.imports.Submit(c.Request.Context(), rows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"imported": count})
}

// GetImportTemplate handles GET /api/imports/template.
func (h *Handler) GetImportTemplate(c *gin.Context) {
	buf, err := sheet.ImportTemplate()
	if err != nil {
		respondError(c, err)
		return
	}
	sendWorkbook(c, "设备导入模板.xlsx", buf.Bytes())
}
