package models

import "time"

// QuestionType distinguishes how a question is answered and graded
type QuestionType string

const (
	QuestionMCQ         QuestionType = "MCQ"
	QuestionShortAnswer QuestionType = "short_answer"
)

// Valid reports whether t is a known question type
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMCQ, QuestionShortAnswer:
		return true
	default:
		return false
	}
}

// Question defines the 'exam_questions' row
type Question struct {
	ID          int64        `json:"id" db:"id"`
	ExamID      int64        `json:"examId" db:"exam_id"`
	Text        string       `json:"questionText" db:"question_text"`
	Type        QuestionType `json:"questionType" db:"question_type"`
	Points      int          `json:"points" db:"points"`
	SortOrder   int          `json:"sortOrder" db:"sort_order"`
	ModelAnswer *string      `json:"modelAnswer,omitempty" db:"model_answer"`
	Options     []Option     `json:"options" db:"-"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
}

// Option defines the 'question_options' row; IsCorrect is hidden from students
type Option struct {
	ID         int64  `json:"id" db:"id"`
	QuestionID int64  `json:"questionId" db:"question_id"`
	Text       string `json:"optionText" db:"option_text"`
	IsCorrect  *bool  `json:"isCorrect,omitempty" db:"is_correct"`
}

// QuestionUpdate carries a partial question update; nil means unchanged
type QuestionUpdate struct {
	Text        *string
	Type        *QuestionType
	Points      *int
	SortOrder   *int
	ModelAnswer *string
	Options     []Option
}

// BankQuestion is a question as listed in the global bank
type BankQuestion struct {
	Question
	ExamTitle   string `json:"examTitle"`
	ExamSubject string `json:"examSubject"`
	TeacherName string `json:"teacherName"`
}

// Answer defines the 'student_answers' row; IsCorrect nil means unknown
type Answer struct {
	ID               int64     `json:"id" db:"id"`
	ExamID           int64     `json:"examId" db:"exam_id"`
	StudentID        int64     `json:"studentId" db:"student_id"`
	QuestionID       int64     `json:"questionId" db:"question_id"`
	SelectedOptionID *int64    `json:"selectedOptionId" db:"selected_option_id"`
	TextAnswer       *string   `json:"textAnswer" db:"text_answer"`
	IsCorrect        *bool     `json:"isCorrect" db:"is_correct"`
	AnsweredAt       time.Time `json:"answeredAt" db:"answered_at"`
}
