package domain

import (
	"sort"
	"time"

	"github.com/yigit/examhub/internal/app/models"
)

// Flag-worthy proctoring event types
const (
	EventTabSwitch   = "tab_switch"
	EventFocusLoss   = "focus_loss"
	EventCopyAttempt = "copy_attempt"
	EventDevTools    = "devtools"
	EventFaceWarning = "face_warning"
	EventRightClick  = "right_click"
	EventCameraOff   = "camera_off"
)

const (
	// FlaggedThreshold is the flag count a student must exceed to be "flagged"
	FlaggedThreshold = 3
	// AlertThreshold is the flag count a student must exceed to raise a live alert
	AlertThreshold = 0
	// MaxWarnings is how many flag-worthy events a session tolerates before auto submit
	MaxWarnings = 3
)

// Summary statuses
const (
	SummaryGood    = "good"
	SummaryFlagged = "flagged"
)

var flagWorthy = map[string]struct{}{
	EventTabSwitch:   {},
	EventFocusLoss:   {},
	EventCopyAttempt: {},
	EventDevTools:    {},
	EventFaceWarning: {},
	EventRightClick:  {},
	EventCameraOff:   {},
}

// IsFlagWorthy reports whether an event type counts against the student
func IsFlagWorthy(eventType string) bool {
	_, ok := flagWorthy[eventType]
	return ok
}

// FlagWorthyTypes lists the flag-worthy event types in a stable order
func FlagWorthyTypes() []string {
	types := make([]string, 0, len(flagWorthy))
	for t := range flagWorthy {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// StudentTally is the per-student proctoring summary of one exam
type StudentTally struct {
	StudentID   int64     `json:"studentId"`
	StudentName string    `json:"studentName,omitempty"`
	TotalEvents int       `json:"totalEvents"`
	FlagCount   int       `json:"flagCount"`
	Status      string    `json:"status"`
	HasAlerts   bool      `json:"hasAlerts"`
	LastEventAt time.Time `json:"lastEventAt"`
}

// Summarize tallies events per student, most flagged first
func Summarize(events []models.ProctoringEvent) []StudentTally {
	byStudent := make(map[int64]*StudentTally)
	for _, ev := range events {
		t, ok := byStudent[ev.StudentID]
		if !ok {
			t = &StudentTally{StudentID: ev.StudentID}
			byStudent[ev.StudentID] = t
		}
		if t.StudentName == "" {
			t.StudentName = ev.StudentName
		}
		t.TotalEvents++
		if IsFlagWorthy(ev.EventType) {
			t.FlagCount++
		}
		if ev.CreatedAt.After(t.LastEventAt) {
			t.LastEventAt = ev.CreatedAt
		}
	}

	out := make([]StudentTally, 0, len(byStudent))
	for _, t := range byStudent {
		t.Status = SummaryGood
		if t.FlagCount > FlaggedThreshold {
			t.Status = SummaryFlagged
		}
		t.HasAlerts = t.FlagCount > AlertThreshold
		out = append(out, *t)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FlagCount != out[j].FlagCount {
			return out[i].FlagCount > out[j].FlagCount
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}

// Escalation tracks flag-worthy events within one exam attempt and decides
// when the client must auto submit. It is session scoped and never persisted.
type Escalation struct {
	MaxWarnings int
	warnings    int
}

// NewEscalation creates an Escalation with the default warning budget
func NewEscalation() *Escalation {
	return &Escalation{MaxWarnings: MaxWarnings}
}

// Record registers an event and reports the warning count and whether the
// attempt must now be submitted. Non flag-worthy events change nothing.
func (e *Escalation) Record(eventType string) (warnings int, autoSubmit bool) {
	if IsFlagWorthy(eventType) {
		e.warnings++
	}
	return e.warnings, e.warnings >= e.MaxWarnings
}

// Warnings returns the warnings counted so far
func (e *Escalation) Warnings() int {
	return e.warnings
}

// Reset starts a new attempt
func (e *Escalation) Reset() {
	e.warnings = 0
}
