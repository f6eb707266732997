package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"asset-tracker-backend/config"
	"asset-tracker-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. responseCache backs the
// GET list endpoints and is flushed by every successful write. Background
// housekeeping stops when ctx is done.
func NewRouter(ctx context.Context, h *Handler, cfg *config.ServerConfig, responseCache *cache.Cache, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.Logger(logger))

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, 10*time.Minute)
	go limiter.RunSweeper(ctx, time.Minute)

	caching := mw.Cache(responseCache, time.Duration(cfg.CacheTTLSeconds)*time.Second)

	r.GET("/health", h.Health)

	// API group
	api := r.Group("/api")
	api.Use(mw.RateLimiter(limiter), mw.Invalidate(responseCache))
	{
		api.GET("/statuses", caching, h.GetStatuses)

		api.GET("/departments", caching, h.GetDepartments)
		api.POST("/departments", h.PostDepartment)

		api.GET("/equipment", caching, h.GetEquipmentList)
		api.POST("/equipment", h.PostEquipment)
		api.GET("/equipment/export", h.ExportEquipment)
		api.GET("/equipment/:id", caching, h.GetEquipment)
		api.PUT("/equipment/:id", h.PutEquipment)
		api.DELETE("/equipment/:id", h.DeleteEquipment)

		api.POST("/imports", h.PostImport)
		api.GET("/imports/template", h.GetImportTemplate)

		api.GET("/audit-logs", caching, h.GetAuditLogs)
	}

	return r
}
