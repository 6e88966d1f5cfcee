package websocket

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/middleware"
	"github.com/yigit/examhub/internal/pkg/apperrors"
)

// ExamChecker confirms that a monitored exam exists
type ExamChecker interface {
	ExamExists(ctx context.Context, examID int64) (bool, error)
}

// Handler upgrades monitoring requests to WebSocket connections
type Handler struct {
	hub    *Hub
	exams  ExamChecker
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, exams ExamChecker, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		exams:  exams,
		logger: logger,
	}
}

// HandleConnection godoc
// @Summary Live proctoring feed
// @Description Upgrades to a WebSocket that streams the proctoring events of one exam as JSON messages. Browsers may pass the token as ?token=.
// @Tags proctoring
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 101 {string} string "Switching Protocols"
// @Failure 400 {object} dto.ErrorResponse "Invalid exam ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id}/proctoring/live [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	examID, ok := middleware.ParseIDParam(c, "id", "exam")
	if !ok {
		return
	}
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	exists, err := h.exams.ExamExists(c.Request.Context(), examID)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	if !exists {
		middleware.HandleAPIError(c, apperrors.NewCustomError(apperrors.ErrExamNotFound, "Exam not found"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("examID", examID).
			Int64("userID", principal.ID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	monitor := newMonitor(h.hub, conn, principal.ID, examID, h.logger)
	if !h.hub.join(monitor) {
		conn.Close()
		return
	}

	go monitor.forward()
	go monitor.watchPeer()
}
