package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/app/services"
	"github.com/yigit/examhub/internal/domain"
	"github.com/yigit/examhub/internal/middleware"
)

// QuestionController handles exam questions and answer submission
type QuestionController struct {
	questionService *services.QuestionService
	logger          zerolog.Logger
}

// NewQuestionController creates a new QuestionController
func NewQuestionController(questionService *services.QuestionService, logger zerolog.Logger) *QuestionController {
	return &QuestionController{
		questionService: questionService,
		logger:          logger,
	}
}

// optionalQueryID reads an optional positive integer query parameter.
// It writes a 400 and returns false when the value is malformed.
func optionalQueryID(ctx *gin.Context, key, name string) (*int64, bool) {
	raw := ctx.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondInvalidID(ctx, name)
		return nil, false
	}
	return &id, true
}

// ListBank godoc
// @Summary Question bank
// @Description Every question across exams with its exam title and subject
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.BankQuestion} "Questions retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /questions [get]
func (c *QuestionController) ListBank(ctx *gin.Context) {
	questions, err := c.questionService.ListBank(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(questions, ""))
}

// ListQuestions godoc
// @Summary List exam questions
// @Description Students receive questions without correctness flags or model answers
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Question} "Questions retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid exam ID"
// @Failure 403 {object} dto.ErrorResponse "Exam not visible or not assigned"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id}/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}
	examID, ok := middleware.ParseIDParam(ctx, "id", "exam")
	if !ok {
		return
	}

	questions, err := c.questionService.ListQuestions(ctx.Request.Context(), principal, examID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(questions, ""))
}

// CreateQuestion godoc
// @Summary Add a question to an exam
// @Description MCQ questions need at least two options and one correct option
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Param request body dto.CreateQuestionRequest true "Question"
// @Success 201 {object} dto.APIResponse{data=models.Question} "Question created"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id}/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	examID, ok := middleware.ParseIDParam(ctx, "id", "exam")
	if !ok {
		return
	}
	var req dto.CreateQuestionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	question, err := c.questionService.CreateQuestion(ctx.Request.Context(), examID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(question, "Question created"))
}

// UpdateQuestion godoc
// @Summary Update a question
// @Description Sending options replaces the existing options
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Param request body dto.UpdateQuestionRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Question} "Question updated"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /questions/{id} [patch]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id", "question")
	if !ok {
		return
	}
	var req dto.UpdateQuestionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	question, err := c.questionService.UpdateQuestion(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(question, "Question updated"))
}

// DeleteQuestion godoc
// @Summary Delete a question
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Success 200 {object} dto.APIResponse "Question deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid question ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id", "question")
	if !ok {
		return
	}

	if err := c.questionService.DeleteQuestion(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Question deleted"))
}

// SubmitAnswers godoc
// @Summary Submit exam answers
// @Description Grades and stores the caller's answers and completes the attempt. Resubmitting replaces earlier answers.
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Param request body dto.SubmitAnswersRequest true "Answers"
// @Success 200 {object} dto.APIResponse{data=dto.SubmitResultResponse} "Answers graded"
// @Failure 400 {object} dto.ErrorResponse "Empty answers, unknown question or submission closed"
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this exam"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id}/answers [post]
func (c *QuestionController) SubmitAnswers(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}
	examID, ok := middleware.ParseIDParam(ctx, "id", "exam")
	if !ok {
		return
	}
	var req dto.SubmitAnswersRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	answers := make([]domain.SubmittedAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, domain.SubmittedAnswer{
			QuestionID:       a.QuestionID,
			SelectedOptionID: a.SelectedOptionID,
			TextAnswer:       a.TextAnswer,
		})
	}

	result, err := c.questionService.GradeSubmission(ctx.Request.Context(), examID, principal.ID, answers)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SubmitResultResponse{
		TotalScore:   result.TotalScore,
		TotalPoints:  result.TotalPoints,
		Percentage:   result.Percentage,
		Grade:        result.Grade,
		AnswersCount: len(result.Answers),
	}, "Answers submitted"))
}

// ListAnswers godoc
// @Summary List stored answers
// @Description Students see their own answers; staff must pass studentId
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Param studentId query int false "Student whose answers to list (staff only)"
// @Success 200 {object} dto.APIResponse{data=[]dto.AnswerView} "Answers retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid or missing student ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /exams/{id}/answers [get]
func (c *QuestionController) ListAnswers(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}
	examID, ok := middleware.ParseIDParam(ctx, "id", "exam")
	if !ok {
		return
	}
	studentID, ok := optionalQueryID(ctx, "studentId", "student")
	if !ok {
		return
	}

	answers, err := c.questionService.ListAnswers(ctx.Request.Context(), principal, examID, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(answers, ""))
}
