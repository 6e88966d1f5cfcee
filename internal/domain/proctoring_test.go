package domain

import (
	"testing"
	"time"

	"github.com/yigit/examhub/internal/app/models"
)

func events(studentID int64, types ...string) []models.ProctoringEvent {
	out := make([]models.ProctoringEvent, 0, len(types))
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, typ := range types {
		out = append(out, models.ProctoringEvent{
			ExamID:    1,
			StudentID: studentID,
			EventType: typ,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestIsFlagWorthy(t *testing.T) {
	for _, typ := range []string{"tab_switch", "focus_loss", "copy_attempt", "devtools", "face_warning", "right_click", "camera_off"} {
		if !IsFlagWorthy(typ) {
			t.Errorf("%s should be flag-worthy", typ)
		}
	}
	for _, typ := range []string{"heartbeat", "exam_started", ""} {
		if IsFlagWorthy(typ) {
			t.Errorf("%q should not be flag-worthy", typ)
		}
	}
}

func TestSummarizeThreshold(t *testing.T) {
	var all []models.ProctoringEvent
	all = append(all, events(1, "tab_switch", "tab_switch", "tab_switch", "tab_switch")...)
	all = append(all, events(2, "tab_switch", "tab_switch", "tab_switch", "heartbeat")...)
	all = append(all, events(3, "heartbeat")...)

	got := Summarize(all)
	if len(got) != 3 {
		t.Fatalf("got %d tallies, want 3", len(got))
	}

	want := []struct {
		student   int64
		total     int
		flags     int
		status    string
		hasAlerts bool
	}{
		{1, 4, 4, SummaryFlagged, true},
		{2, 4, 3, SummaryGood, true},
		{3, 1, 0, SummaryGood, false},
	}
	for i, w := range want {
		g := got[i]
		if g.StudentID != w.student || g.TotalEvents != w.total || g.FlagCount != w.flags ||
			g.Status != w.status || g.HasAlerts != w.hasAlerts {
			t.Errorf("tally %d = %+v, want %+v", i, g, w)
		}
	}

	if !got[0].LastEventAt.Equal(all[3].CreatedAt) {
		t.Errorf("last event = %v, want %v", got[0].LastEventAt, all[3].CreatedAt)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(nil); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestEscalation(t *testing.T) {
	e := NewEscalation()

	if n, submit := e.Record("heartbeat"); n != 0 || submit {
		t.Fatalf("neutral event escalated: %d %v", n, submit)
	}
	e.Record("tab_switch")
	e.Record("focus_loss")
	n, submit := e.Record("camera_off")
	if n != 3 || !submit {
		t.Fatalf("third warning: got %d %v, want 3 true", n, submit)
	}

	e.Reset()
	if e.Warnings() != 0 {
		t.Errorf("reset left %d warnings", e.Warnings())
	}
	if _, submit := e.Record("devtools"); submit {
		t.Errorf("fresh attempt should not auto submit on first warning")
	}
}
