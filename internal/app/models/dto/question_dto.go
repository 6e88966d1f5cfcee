package dto

import "github.com/yigit/examhub/internal/app/models"

// OptionRequest is one answer option of an MCQ question
type OptionRequest struct {
	Text      string `json:"optionText" binding:"required,max=1000" example:"O(n log n)"`
	IsCorrect bool   `json:"isCorrect"`
}

// CreateQuestionRequest represents question creation data
type CreateQuestionRequest struct {
	Text        string              `json:"questionText" binding:"required" example:"What is the complexity of merge sort?"`
	Type        models.QuestionType `json:"questionType" binding:"omitempty,questiontype" example:"MCQ"`
	Points      int                 `json:"points" binding:"omitempty,min=1,max=1000" example:"2"`
	SortOrder   int                 `json:"sortOrder" binding:"omitempty,min=0"`
	ModelAnswer *string             `json:"modelAnswer"`
	Options     []OptionRequest     `json:"options" binding:"omitempty,dive"`
}

// UpdateQuestionRequest represents a partial question update. A non-nil
// options list replaces all existing options.
type UpdateQuestionRequest struct {
	Text        *string              `json:"questionText" binding:"omitempty,min=1"`
	Type        *models.QuestionType `json:"questionType" binding:"omitempty,questiontype"`
	Points      *int                 `json:"points" binding:"omitempty,min=1,max=1000"`
	SortOrder   *int                 `json:"sortOrder" binding:"omitempty,min=0"`
	ModelAnswer *string              `json:"modelAnswer"`
	Options     []OptionRequest      `json:"options" binding:"omitempty,dive"`
}

// AnswerRequest is one submitted answer
type AnswerRequest struct {
	QuestionID       int64   `json:"questionId" binding:"required,min=1" example:"12"`
	SelectedOptionID *int64  `json:"selectedOptionId" example:"40"`
	TextAnswer       *string `json:"textAnswer"`
}

// SubmitAnswersRequest carries a whole submission
type SubmitAnswersRequest struct {
	Answers []AnswerRequest `json:"answers" binding:"required,dive"`
}

// SubmitResultResponse is the graded outcome of a submission
type SubmitResultResponse struct {
	TotalScore   int    `json:"totalScore" example:"8"`
	TotalPoints  int    `json:"totalPoints" example:"10"`
	Percentage   int    `json:"percentage" example:"80"`
	Grade        string `json:"grade" example:"A"`
	AnswersCount int    `json:"answersCount" example:"5"`
}

// AnswerView is a stored answer joined with its question for review
type AnswerView struct {
	QuestionID         int64               `json:"questionId"`
	QuestionText       string              `json:"questionText"`
	QuestionType       models.QuestionType `json:"questionType"`
	Points             int                 `json:"points"`
	SelectedOptionID   *int64              `json:"selectedOptionId"`
	SelectedOptionText *string             `json:"selectedOptionText"`
	TextAnswer         *string             `json:"textAnswer"`
	IsCorrect          *bool               `json:"isCorrect"`
}
