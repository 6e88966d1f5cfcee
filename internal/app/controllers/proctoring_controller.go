package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/app/services"
	"github.com/yigit/examhub/internal/middleware"
)

// ProctoringController records and reports browser monitoring events
type ProctoringController struct {
	proctoringService *services.ProctoringService
	logger            zerolog.Logger
}

// NewProctoringController creates a new ProctoringController
func NewProctoringController(proctoringService *services.ProctoringService, logger zerolog.Logger) *ProctoringController {
	return &ProctoringController{
		proctoringService: proctoringService,
		logger:            logger,
	}
}

// LogEvent godoc
// @Summary Log a proctoring event
// @Description Appends a monitoring event for the caller and pushes it to live monitors. flagCount is the caller's flag-worthy event total for the exam across all attempts.
// @Tags proctoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Param request body dto.LogEventRequest true "Event"
// @Success 201 {object} dto.APIResponse{data=dto.LogEventResponse} "Event logged"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this exam"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id}/proctoring [post]
func (c *ProctoringController) LogEvent(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}
	examID, ok := middleware.ParseIDParam(ctx, "id", "exam")
	if !ok {
		return
	}
	var req dto.LogEventRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	logged, err := c.proctoringService.LogEvent(ctx.Request.Context(), examID, principal.ID, req.EventType, req.Details)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.LogEventResponse{
		ID:        logged.Event.ID,
		EventType: logged.Event.EventType,
		CreatedAt: logged.Event.CreatedAt.Format(dto.WallClockLayout),
		FlagCount: logged.FlagCount,
	}, "Event logged"))
}

// ListEvents godoc
// @Summary List proctoring events of an exam
// @Tags proctoring
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Param studentId query int false "Only events of this student"
// @Success 200 {object} dto.APIResponse{data=[]models.ProctoringEvent} "Events retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id}/proctoring [get]
func (c *ProctoringController) ListEvents(ctx *gin.Context) {
	examID, ok := middleware.ParseIDParam(ctx, "id", "exam")
	if !ok {
		return
	}
	studentID, ok := optionalQueryID(ctx, "studentId", "student")
	if !ok {
		return
	}

	events, err := c.proctoringService.ListEvents(ctx.Request.Context(), examID, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(events, ""))
}

// Summary godoc
// @Summary Per-student proctoring summary
// @Description Tallies events per student, most flagged first. More than three flags marks a student as flagged.
// @Tags proctoring
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 200 {object} dto.APIResponse{data=[]domain.StudentTally} "Summary retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid exam ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id}/proctoring/summary [get]
func (c *ProctoringController) Summary(ctx *gin.Context) {
	examID, ok := middleware.ParseIDParam(ctx, "id", "exam")
	if !ok {
		return
	}

	tallies, err := c.proctoringService.SummarizeProctoring(ctx.Request.Context(), examID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(tallies, ""))
}

// ListAllEvents godoc
// @Summary List every proctoring event
// @Tags proctoring
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.ProctoringEvent} "Events retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /proctoring/events [get]
func (c *ProctoringController) ListAllEvents(ctx *gin.Context) {
	events, err := c.proctoringService.ListAllEvents(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(events, ""))
}
