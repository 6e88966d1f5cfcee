package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/app/services"
	"github.com/yigit/examhub/internal/middleware"
	"github.com/yigit/examhub/internal/pkg/apperrors"
)

// ExamController handles exam scheduling, attempts and reporting
type ExamController struct {
	examService *services.ExamService
	logger      zerolog.Logger
}

// NewExamController creates a new ExamController
func NewExamController(examService *services.ExamService, logger zerolog.Logger) *ExamController {
	return &ExamController{
		examService: examService,
		logger:      logger,
	}
}

// CreateExam godoc
// @Summary Create an exam
// @Description Creates an exam, optionally linking student groups. Times are wall-clock values without an offset.
// @Tags exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateExamRequest true "Exam details"
// @Success 201 {object} dto.APIResponse{data=dto.ExamResponse} "Exam created"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /exams [post]
func (c *ExamController) CreateExam(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}
	var req dto.CreateExamRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	exam, err := c.examService.CreateExam(ctx.Request.Context(), principal, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(exam, "Exam created"))
}

// ListExams godoc
// @Summary List exams
// @Description Staff see every exam; students see published exams they can access
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by effective status (Draft, Scheduled, Live, Completed)"
// @Success 200 {object} dto.APIResponse{data=[]dto.ExamResponse} "Exams retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /exams [get]
func (c *ExamController) ListExams(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}
	status := models.ExamStatus(ctx.Query("status"))
	if status != "" && !status.Valid() {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Unknown exam status "+string(status)))
		return
	}

	exams, err := c.examService.ListExams(ctx.Request.Context(), principal, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(exams, ""))
}

// ListAllExams godoc
// @Summary List every exam
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ExamResponse} "Exams retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /exams/admin/all [get]
func (c *ExamController) ListAllExams(ctx *gin.Context) {
	exams, err := c.examService.ListAllExams(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(exams, ""))
}

// GetExam godoc
// @Summary Get exam by ID
// @Description Students must be allowed to take the exam; staff also receive the candidate list
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 200 {object} dto.APIResponse{data=dto.ExamDetailResponse} "Exam retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid exam ID"
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this exam"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id", "exam")
	if !ok {
		return
	}

	exam, err := c.examService.GetExam(ctx.Request.Context(), principal, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(exam, ""))
}

// UpdateExam godoc
// @Summary Update an exam
// @Description Partially updates an exam. Changing the window re-derives the status unless the exam is a draft.
// @Tags exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Param request body dto.UpdateExamRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.ExamResponse} "Exam updated"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id} [patch]
func (c *ExamController) UpdateExam(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id", "exam")
	if !ok {
		return
	}
	var req dto.UpdateExamRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	exam, err := c.examService.UpdateExam(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(exam, "Exam updated"))
}

// DeleteExam godoc
// @Summary Delete an exam
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 200 {object} dto.APIResponse "Exam deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid exam ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id} [delete]
func (c *ExamController) DeleteExam(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id", "exam")
	if !ok {
		return
	}

	if err := c.examService.DeleteExam(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Exam deleted"))
}

// StartExam godoc
// @Summary Start an exam attempt
// @Description Opens the caller's attempt. Fails while the exam is a draft, before it starts or after it ends.
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 200 {object} dto.APIResponse{data=dto.StartExamResponse} "Attempt started"
// @Failure 400 {object} dto.ErrorResponse "Exam not started, ended or already completed"
// @Failure 403 {object} dto.ErrorResponse "Draft exam or not assigned"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id}/start [post]
func (c *ExamController) StartExam(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id", "exam")
	if !ok {
		return
	}

	resp, err := c.examService.StartExam(ctx.Request.Context(), id, principal.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Exam started"))
}

// AssignCandidates godoc
// @Summary Assign students to an exam
// @Tags exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Param request body dto.AssignCandidatesRequest true "Student IDs"
// @Success 200 {object} dto.APIResponse{data=dto.AssignCandidatesResponse} "Candidates assigned"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id}/candidates [post]
func (c *ExamController) AssignCandidates(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id", "exam")
	if !ok {
		return
	}
	var req dto.AssignCandidatesRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	added, err := c.examService.AssignCandidates(ctx.Request.Context(), id, req.StudentIDs)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.AssignCandidatesResponse{CandidatesAdded: added}, "Candidates assigned"))
}

// StudentResults godoc
// @Summary Own exam results
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.StudentResultResponse} "Results retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /exams/student/results [get]
func (c *ExamController) StudentResults(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}

	results, err := c.examService.StudentResults(ctx.Request.Context(), principal.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(results, ""))
}

// Analytics godoc
// @Summary Exam analytics
// @Description Exam counts and per-exam average scores. Teachers see their own exams, admins see all.
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AnalyticsResponse} "Analytics retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /exams/teacher/analytics [get]
func (c *ExamController) Analytics(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}

	resp, err := c.examService.Analytics(ctx.Request.Context(), principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// Grading godoc
// @Summary Grading overview
// @Description Exams with candidate, completion and average score figures
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.GradingExamResponse} "Overview retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /exams/teacher/grading [get]
func (c *ExamController) Grading(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}

	resp, err := c.examService.GradingOverview(ctx.Request.Context(), principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}
