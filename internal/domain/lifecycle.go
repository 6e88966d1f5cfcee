// Package domain holds the exam rules that do not depend on transport or storage:
// lifecycle derivation, access resolution, grading and proctoring tallies.
package domain

import (
	"math"
	"strings"
	"time"

	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/pkg/apperrors"
)

// DefaultDurationMinutes is used when an exam is created without a duration
const DefaultDurationMinutes = 60

var wallClockLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// WallClock drops the location of t and keeps its wall-clock reading.
// Exam times are stored without a time zone and compared this way.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Now returns the server's local wall-clock time
func Now() time.Time {
	return WallClock(time.Now())
}

// ParseWallClock parses a client supplied date such as "2024-05-01T09:30".
// Values with an explicit offset keep the wall-clock reading as written.
func ParseWallClock(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range wallClockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return WallClock(t), true
	}
	return time.Time{}, false
}

// Window is the normalised [Start, End] interval of an exam
type Window struct {
	Start time.Time
	End   time.Time
}

// NormalizeWindow applies the creation defaults: a missing or invalid start
// becomes now (to the minute), a missing or invalid end becomes start plus
// the duration, and a non-positive duration becomes DefaultDurationMinutes.
func NormalizeWindow(startRaw, endRaw string, durationMinutes int, now time.Time) (Window, int) {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}

	start, ok := ParseWallClock(startRaw)
	if !ok {
		start = WallClock(now).Truncate(time.Minute)
	}

	end, ok := ParseWallClock(endRaw)
	if !ok {
		end = start.Add(time.Duration(durationMinutes) * time.Minute)
	}

	return Window{Start: start, End: end}, durationMinutes
}

// ResolveStatus derives the status of a non-draft exam from its window
func ResolveStatus(start, end, now time.Time) models.ExamStatus {
	now = WallClock(now)
	switch {
	case now.After(WallClock(end)):
		return models.ExamStatusCompleted
	case !now.Before(WallClock(start)):
		return models.ExamStatusLive
	default:
		return models.ExamStatusScheduled
	}
}

// ExamWindow returns the window of a stored exam, filling missing bounds
func ExamWindow(exam *models.Exam, now time.Time) Window {
	start := exam.StartTime
	if start.IsZero() {
		start = WallClock(now)
	}
	end := exam.EndTime
	if end.IsZero() {
		minutes := exam.DurationMinutes
		if minutes <= 0 {
			minutes = DefaultDurationMinutes
		}
		end = start.Add(time.Duration(minutes) * time.Minute)
	}
	return Window{Start: start, End: end}
}

// EffectiveStatus is the status shown to clients. Drafts stay drafts;
// everything else is derived from the window at read time.
func EffectiveStatus(exam *models.Exam, now time.Time) models.ExamStatus {
	if exam.Status == models.ExamStatusDraft {
		return models.ExamStatusDraft
	}
	w := ExamWindow(exam, now)
	return ResolveStatus(w.Start, w.End, now)
}

// CheckStart decides whether a student may start the exam right now
func CheckStart(exam *models.Exam, now time.Time) error {
	if exam.Status == models.ExamStatusDraft {
		return apperrors.NewForbiddenError("Exam is not visible").WithCode(apperrors.CodeExamNotVisible)
	}

	now = WallClock(now)
	w := ExamWindow(exam, now)
	if now.Before(w.Start) {
		seconds := int64(math.Ceil(w.Start.Sub(now).Seconds()))
		return apperrors.NewForbiddenError("Exam has not started yet").
			WithCode(apperrors.CodeNotStartedYet).
			WithDetails(map[string]interface{}{"startsInSeconds": seconds})
	}
	if now.After(w.End) {
		return apperrors.NewForbiddenError("Exam has ended").WithCode(apperrors.CodeExamExpired)
	}
	return nil
}

// CheckSubmit decides whether answers may still be accepted; grace extends
// the window past the end to absorb in-flight submissions.
func CheckSubmit(exam *models.Exam, now time.Time, grace time.Duration) error {
	if exam.Status == models.ExamStatusDraft {
		return apperrors.NewForbiddenError("Exam is not visible").WithCode(apperrors.CodeExamNotVisible)
	}

	now = WallClock(now)
	w := ExamWindow(exam, now)
	if now.Before(w.Start) {
		return apperrors.NewForbiddenError("Exam has not started yet").WithCode(apperrors.CodeNotStartedYet)
	}
	if now.After(w.End.Add(grace)) {
		return apperrors.NewForbiddenError("Submission window has closed").WithCode(apperrors.CodeSubmissionClosed)
	}
	return nil
}
