package models

import (
	"encoding/json"
	"time"
)

// ProctoringEvent is one append-only browser monitoring event
type ProctoringEvent struct {
	ID          int64           `json:"id" db:"id"`
	ExamID      int64           `json:"examId" db:"exam_id"`
	StudentID   int64           `json:"studentId" db:"student_id"`
	EventType   string          `json:"eventType" db:"event_type" example:"tab_switch"`
	Details     json.RawMessage `json:"details,omitempty" db:"details" swaggertype:"object"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	StudentName string          `json:"studentName,omitempty" db:"-"`
}
