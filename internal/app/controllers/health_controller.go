package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models/dto"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports service health
type HealthController struct {
	db     Pinger
	logger zerolog.Logger
}

// NewHealthController creates a new HealthController. db may be nil.
func NewHealthController(db Pinger, logger zerolog.Logger) *HealthController {
	return &HealthController{
		db:     db,
		logger: logger,
	}
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service healthy"
// @Failure 503 {object} dto.HealthResponse "Database unreachable"
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	if c.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if err := c.db.Ping(pingCtx); err != nil {
			c.logger.Warn().Err(err).Msg("Health check failed to reach the database")
			ctx.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "degraded", Timestamp: time.Now()})
			return
		}
	}
	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Timestamp: time.Now()})
}
