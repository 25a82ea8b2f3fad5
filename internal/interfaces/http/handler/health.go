package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/claimswift/backend/internal/interfaces/http/dto"
	"github.com/claimswift/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

const healthPingTimeout = 2 * time.Second

// DatabaseProbe is the part of persistence.Database the health check needs.
type DatabaseProbe interface {
	Ping(ctx context.Context) error
	Stats() sql.DBStats
}

// HealthHandler reports process and database liveness.
type HealthHandler struct {
	BaseHandler
	db DatabaseProbe
}

func NewHealthHandler(db DatabaseProbe) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check godoc
//
//	@Summary	Service health
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	dto.Response
//	@Failure	503	{object}	dto.Response
//	@Router		/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		resp := dto.NewErrorResponse(dto.ErrCodeUnavailable, "Database unreachable", middleware.GetRequestID(c))
		resp.Data = gin.H{"status": "DOWN", "database": "DOWN"}
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeUnavailable), resp)
		return
	}
	stats := h.db.Stats()
	h.Success(c, gin.H{
		"status":   "UP",
		"database": "UP",
		"pool": gin.H{
			"open":    stats.OpenConnections,
			"in_use":  stats.InUse,
			"idle":    stats.Idle,
			"waiting": stats.WaitCount,
		},
	})
}

// RegisterRoutes mounts /health on rg.
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Check)
}
