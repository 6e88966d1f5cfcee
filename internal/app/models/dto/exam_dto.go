package dto

import (
	"time"

	"github.com/yigit/examhub/internal/app/models"
)

// WallClockLayout formats exam times without a zone so clients read them as local time
const WallClockLayout = "2006-01-02T15:04:05"

// CreateExamRequest represents exam creation data. Times are local
// wall-clock strings; an empty or unparsable start means now and an empty
// end means start plus durationMinutes.
type CreateExamRequest struct {
	Title           string            `json:"title" binding:"required,max=255" example:"Algorithms Midterm"`
	Subject         string            `json:"subject" binding:"required,max=255" example:"CS201"`
	StartTime       string            `json:"startTime" example:"2024-05-01T09:00"`
	EndTime         string            `json:"endTime" example:"2024-05-01T10:30"`
	DurationMinutes int               `json:"durationMinutes" binding:"omitempty,min=1,max=1440" example:"90"`
	SecurityLevel   string            `json:"securityLevel" binding:"omitempty,max=50" example:"High"`
	Status          models.ExamStatus `json:"status" binding:"omitempty,examstatus" example:"Draft"`
	GroupIDs        []int64           `json:"groupIds" binding:"omitempty,dive,min=1"`
}

// UpdateExamRequest represents a partial exam update
type UpdateExamRequest struct {
	Title           *string            `json:"title" binding:"omitempty,max=255"`
	Subject         *string            `json:"subject" binding:"omitempty,max=255"`
	StartTime       *string            `json:"startTime"`
	EndTime         *string            `json:"endTime"`
	DurationMinutes *int               `json:"durationMinutes" binding:"omitempty,min=1,max=1440"`
	SecurityLevel   *string            `json:"securityLevel" binding:"omitempty,max=50"`
	Status          *models.ExamStatus `json:"status" binding:"omitempty,examstatus"`
}

// ExamResponse is an exam as returned to clients with its effective status
type ExamResponse struct {
	ID              int64             `json:"id" example:"1"`
	Title           string            `json:"title" example:"Algorithms Midterm"`
	Subject         string            `json:"subject" example:"CS201"`
	StartTime       string            `json:"startTime" example:"2024-05-01T09:00:00"`
	EndTime         string            `json:"endTime" example:"2024-05-01T10:30:00"`
	DurationMinutes int               `json:"durationMinutes" example:"90"`
	SecurityLevel   string            `json:"securityLevel" example:"High"`
	Status          models.ExamStatus `json:"status" example:"Live"`
	CreatedBy       int64             `json:"createdBy"`
	TeacherName     string            `json:"teacherName,omitempty"`
	CandidateCount  int               `json:"candidatesCount"`
	CreatedAt       string            `json:"createdAt"`
}

// ExamDetailResponse adds the candidate list for staff
type ExamDetailResponse struct {
	ExamResponse
	Candidates []models.ExamCandidate `json:"candidates,omitempty"`
}

// NewExamResponse converts an exam, reporting status as given
func NewExamResponse(exam *models.Exam, status models.ExamStatus) ExamResponse {
	return ExamResponse{
		ID:              exam.ID,
		Title:           exam.Title,
		Subject:         exam.Subject,
		StartTime:       formatWallClock(exam.StartTime),
		EndTime:         formatWallClock(exam.EndTime),
		DurationMinutes: exam.DurationMinutes,
		SecurityLevel:   exam.SecurityLevel,
		Status:          status,
		CreatedBy:       exam.CreatedBy,
		TeacherName:     exam.CreatorName,
		CandidateCount:  exam.CandidateCount,
		CreatedAt:       formatWallClock(exam.CreatedAt),
	}
}

func formatWallClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(WallClockLayout)
}

// StartExamResponse is returned when a student starts an exam
type StartExamResponse struct {
	ExamID    int64                  `json:"examId"`
	Status    models.CandidateStatus `json:"status" example:"In-Progress"`
	StartedAt string                 `json:"startedAt"`
	EndTime   string                 `json:"endTime"`
}

// AssignCandidatesRequest explicitly assigns students to an exam
type AssignCandidatesRequest struct {
	StudentIDs []int64 `json:"studentIds" binding:"required,min=1,dive,min=1"`
}

// AssignCandidatesResponse reports how many assignments were added
type AssignCandidatesResponse struct {
	CandidatesAdded int `json:"candidatesAdded"`
}

// StudentResultResponse is one of the caller's exam results
type StudentResultResponse struct {
	ExamID  int64                  `json:"examId"`
	Title   string                 `json:"title"`
	Subject string                 `json:"subject"`
	Date    string                 `json:"date"`
	Status  models.CandidateStatus `json:"status"`
	Score   *int                   `json:"score"`
	Grade   string                 `json:"grade"`
}

// NewStudentResultResponse converts a result row
func NewStudentResultResponse(r models.StudentResult) StudentResultResponse {
	return StudentResultResponse{
		ExamID:  r.ExamID,
		Title:   r.Title,
		Subject: r.Subject,
		Date:    formatWallClock(r.StartTime),
		Status:  r.Status,
		Score:   r.Score,
		Grade:   r.Grade,
	}
}

// AnalyticsSummary counts a teacher's exams by phase
type AnalyticsSummary struct {
	TotalExams     int64 `json:"totalExams"`
	UpcomingExams  int64 `json:"upcomingExams"`
	CompletedExams int64 `json:"completedExams"`
}

// ExamAverage is the mean candidate score of one exam
type ExamAverage struct {
	Title        string `json:"title"`
	AverageScore int    `json:"avgScore"`
}

// AnalyticsResponse is the teacher dashboard payload
type AnalyticsResponse struct {
	Summary   AnalyticsSummary `json:"summary"`
	AvgScores []ExamAverage    `json:"avgScores"`
}

// GradingExamResponse is one row of the grading overview
type GradingExamResponse struct {
	ID             int64             `json:"id"`
	Title          string            `json:"title"`
	Subject        string            `json:"subject"`
	Date           string            `json:"date"`
	Status         models.ExamStatus `json:"status"`
	CandidateCount int64             `json:"candidatesCount"`
	CompletedCount int64             `json:"completedCount"`
	AverageScore   *int              `json:"avgScore"`
}
