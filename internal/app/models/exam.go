package models

import "time"

// ExamStatus is the lifecycle state of an exam
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "Draft"
	ExamStatusScheduled ExamStatus = "Scheduled"
	ExamStatusLive      ExamStatus = "Live"
	ExamStatusCompleted ExamStatus = "Completed"
)

// Valid reports whether s is a known exam status
func (s ExamStatus) Valid() bool {
	switch s {
	case ExamStatusDraft, ExamStatusScheduled, ExamStatusLive, ExamStatusCompleted:
		return true
	default:
		return false
	}
}

// Exam defines the exam model based on the 'exams' table.
// StartTime and EndTime are naive wall-clock values.
type Exam struct {
	ID              int64      `json:"id" db:"id" example:"1"`
	Title           string     `json:"title" db:"title" example:"Algorithms Midterm"`
	Subject         string     `json:"subject" db:"subject" example:"CS201"`
	StartTime       time.Time  `json:"startTime" db:"start_time"`
	EndTime         time.Time  `json:"endTime" db:"end_time"`
	DurationMinutes int        `json:"durationMinutes" db:"duration_minutes" example:"60"`
	SecurityLevel   string     `json:"securityLevel" db:"security_level" example:"High"`
	Status          ExamStatus `json:"status" db:"status" example:"Scheduled"`
	CreatedBy       int64      `json:"createdBy" db:"created_by"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`

	CreatorName    string `json:"creatorName,omitempty" db:"-"`
	CandidateCount int    `json:"candidateCount" db:"-"`
}

// ExamUpdate carries a partial exam update; nil means unchanged
type ExamUpdate struct {
	Title           *string
	Subject         *string
	StartTime       *time.Time
	EndTime         *time.Time
	DurationMinutes *int
	SecurityLevel   *string
	Status          *ExamStatus
}

// Empty reports whether the update changes nothing
func (u ExamUpdate) Empty() bool {
	return u.Title == nil && u.Subject == nil && u.StartTime == nil && u.EndTime == nil &&
		u.DurationMinutes == nil && u.SecurityLevel == nil && u.Status == nil
}

// CandidateStatus is the progress of one student in one exam
type CandidateStatus string

const (
	CandidateInProgress CandidateStatus = "In-Progress"
	CandidateCompleted  CandidateStatus = "Completed"
)

// GradePending is stored while no grade can be computed
const GradePending = "Pending"

// ExamCandidate defines the 'exam_candidates' row linking a student to an exam
type ExamCandidate struct {
	ExamID    int64           `json:"examId" db:"exam_id"`
	StudentID int64           `json:"studentId" db:"student_id"`
	Status    CandidateStatus `json:"status" db:"status" example:"In-Progress"`
	Score     *int            `json:"score" db:"score"`
	Grade     string          `json:"grade" db:"grade" example:"Pending"`
	Assigned  bool            `json:"assigned" db:"assigned"`
	StartedAt *time.Time      `json:"startedAt,omitempty" db:"started_at"`

	StudentName  string  `json:"name,omitempty" db:"-"`
	StudentEmail string  `json:"email,omitempty" db:"-"`
	SpecialID    *string `json:"specialId,omitempty" db:"-"`
	PhotoURL     *string `json:"photo,omitempty" db:"-"`
}

// StudentResult is a candidate row joined with its exam, as shown to the student
type StudentResult struct {
	ExamID    int64           `json:"examId"`
	Title     string          `json:"title"`
	Subject   string          `json:"subject"`
	StartTime time.Time       `json:"startTime"`
	Status    CandidateStatus `json:"status"`
	Score     *int            `json:"score"`
	Grade     string          `json:"grade"`
}

// ExamScoreSummary aggregates candidate scores for one exam
type ExamScoreSummary struct {
	ExamID         int64      `json:"examId"`
	Title          string     `json:"title"`
	Subject        string     `json:"subject"`
	StartTime      time.Time  `json:"-"`
	EndTime        time.Time  `json:"-"`
	Duration       int        `json:"-"`
	Status         ExamStatus `json:"status"`
	CandidateCount int64      `json:"candidatesCount"`
	CompletedCount int64      `json:"completedCount"`
	AverageScore   *float64   `json:"avgScore"`
}

// ExamCounts splits a set of exams by phase relative to now
type ExamCounts struct {
	Total     int64
	Upcoming  int64
	Completed int64
}

// ExamFilter narrows an exam listing
type ExamFilter struct {
	CreatedBy *int64
}
