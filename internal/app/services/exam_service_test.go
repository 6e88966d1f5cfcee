package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/pkg/apperrors"
)

var (
	teacher = models.Principal{ID: 2, Email: "t@example.edu", Role: models.RoleTeacher}
	admin   = models.Principal{ID: 9001, Email: "a@example.edu", Role: models.RoleAdmin}
	student = models.Principal{ID: 10, Email: "s@example.edu", Role: models.RoleStudent}
)

func wall(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestExamService() (*ExamService, *fakeExamStore, *fakeTx) {
	store := newFakeExamStore()
	tx := &fakeTx{stores: []snapshotter{store}}
	svc := NewExamService(store, tx, testLogger)
	svc.now = nowFunc
	return svc, store, tx
}

func errorCode(err error) string {
	var ce *apperrors.CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func TestCreateExamDerivesStatus(t *testing.T) {
	svc, store, tx := newTestExamService()

	tests := []struct {
		name  string
		req   dto.CreateExamRequest
		want  models.ExamStatus
		start string
		end   string
	}{
		{
			name:  "future window is scheduled",
			req:   dto.CreateExamRequest{Title: "Midterm", Subject: "CS201", StartTime: "2024-05-16T09:00", DurationMinutes: 90},
			want:  models.ExamStatusScheduled,
			start: "2024-05-16T09:00:00",
			end:   "2024-05-16T10:30:00",
		},
		{
			name:  "running window is live",
			req:   dto.CreateExamRequest{Title: "Quiz", Subject: "CS101", StartTime: "2024-05-15T09:30", EndTime: "2024-05-15T11:00"},
			want:  models.ExamStatusLive,
			start: "2024-05-15T09:30:00",
			end:   "2024-05-15T11:00:00",
		},
		{
			name:  "past window is completed",
			req:   dto.CreateExamRequest{Title: "Old", Subject: "CS100", StartTime: "2024-05-14T09:00", EndTime: "2024-05-14T10:00"},
			want:  models.ExamStatusCompleted,
			start: "2024-05-14T09:00:00",
			end:   "2024-05-14T10:00:00",
		},
		{
			name:  "draft is kept",
			req:   dto.CreateExamRequest{Title: "Draft", Subject: "CS300", StartTime: "2024-05-15T09:30", EndTime: "2024-05-15T11:00", Status: models.ExamStatusDraft},
			want:  models.ExamStatusDraft,
			start: "2024-05-15T09:30:00",
			end:   "2024-05-15T11:00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.CreateExam(context.Background(), teacher, &tt.req)
			if err != nil {
				t.Fatalf("CreateExam: %v", err)
			}
			if resp.Status != tt.want {
				t.Errorf("status = %s, want %s", resp.Status, tt.want)
			}
			if resp.StartTime != tt.start || resp.EndTime != tt.end {
				t.Errorf("window = %s..%s, want %s..%s", resp.StartTime, resp.EndTime, tt.start, tt.end)
			}
			stored := store.exams[resp.ID]
			if stored.Status != tt.want {
				t.Errorf("stored status = %s, want %s", stored.Status, tt.want)
			}
			if stored.SecurityLevel != "Standard" {
				t.Errorf("security level = %q, want Standard", stored.SecurityLevel)
			}
		})
	}

	if tx.calls != len(tests) {
		t.Errorf("transactions = %d, want %d", tx.calls, len(tests))
	}
}

func TestCreateExamRejectsInvertedWindow(t *testing.T) {
	svc, store, _ := newTestExamService()
	req := &dto.CreateExamRequest{Title: "Bad", Subject: "X", StartTime: "2024-05-16T10:00", EndTime: "2024-05-16T09:00"}

	_, err := svc.CreateExam(context.Background(), teacher, req)
	if !errors.Is(err, apperrors.ErrBadRequest) {
		t.Fatalf("want bad request, got %v", err)
	}
	if len(store.exams) != 0 {
		t.Errorf("no exam should be stored, got %d", len(store.exams))
	}
}

func TestCreateExamLinksGroups(t *testing.T) {
	svc, store, _ := newTestExamService()
	req := &dto.CreateExamRequest{Title: "Final", Subject: "CS", StartTime: "2024-05-20T09:00", GroupIDs: []int64{4, 5}}

	resp, err := svc.CreateExam(context.Background(), teacher, req)
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	if got := store.groups[resp.ID]; len(got) != 2 {
		t.Errorf("linked groups = %v, want [4 5]", got)
	}
}

func TestCreateExamRollsBackOnGroupLinkFailure(t *testing.T) {
	svc, store, tx := newTestExamService()
	store.failLink = errors.New("group 5 does not exist")
	req := &dto.CreateExamRequest{Title: "Final", Subject: "CS", StartTime: "2024-05-20T09:00", GroupIDs: []int64{4, 5}}

	if _, err := svc.CreateExam(context.Background(), teacher, req); err == nil {
		t.Fatal("CreateExam should fail when groups cannot be linked")
	}
	if tx.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", tx.rollbacks)
	}
	if len(store.exams) != 0 || len(store.groups) != 0 {
		t.Errorf("exam persisted after failed link: exams=%d groups=%v", len(store.exams), store.groups)
	}
}

func TestListExamsForStudent(t *testing.T) {
	svc, store, _ := newTestExamService()
	global := store.add(models.Exam{Title: "Global", StartTime: wall("2024-05-15T09:00"), EndTime: wall("2024-05-15T12:00"), Status: models.ExamStatusScheduled})
	store.add(models.Exam{Title: "Draft", StartTime: wall("2024-05-15T09:00"), EndTime: wall("2024-05-15T12:00"), Status: models.ExamStatusDraft})
	other := store.add(models.Exam{Title: "Others", StartTime: wall("2024-05-16T09:00"), EndTime: wall("2024-05-16T12:00"), Status: models.ExamStatusScheduled})
	store.candidates[candidateKey{other.ID, 99}] = &models.ExamCandidate{ExamID: other.ID, StudentID: 99, Assigned: true}

	exams, err := svc.ListExams(context.Background(), student, "")
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	if len(exams) != 1 || exams[0].ID != global.ID {
		t.Fatalf("student sees %+v, want only the global exam", exams)
	}
	if exams[0].Status != models.ExamStatusLive {
		t.Errorf("effective status = %s, want Live", exams[0].Status)
	}

	all, err := svc.ListExams(context.Background(), teacher, "")
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("teacher sees %d exams, want 3", len(all))
	}

	live, err := svc.ListExams(context.Background(), teacher, models.ExamStatusLive)
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	if len(live) != 1 {
		t.Errorf("live filter returned %d exams, want 1", len(live))
	}
}

func TestGetExamHidesDraftFromStudents(t *testing.T) {
	svc, store, _ := newTestExamService()
	draft := store.add(models.Exam{Title: "Draft", StartTime: wall("2024-05-15T09:00"), EndTime: wall("2024-05-15T12:00"), Status: models.ExamStatusDraft})

	_, err := svc.GetExam(context.Background(), student, draft.ID)
	if !errors.Is(err, apperrors.ErrPermissionDenied) || errorCode(err) != apperrors.CodeExamNotVisible {
		t.Fatalf("want EXAM_NOT_VISIBLE, got %v", err)
	}

	detail, err := svc.GetExam(context.Background(), teacher, draft.ID)
	if err != nil {
		t.Fatalf("teacher GetExam: %v", err)
	}
	if detail.Status != models.ExamStatusDraft {
		t.Errorf("status = %s, want Draft", detail.Status)
	}
}

func TestStartExamGates(t *testing.T) {
	svc, store, _ := newTestExamService()
	future := store.add(models.Exam{StartTime: wall("2024-05-15T10:30"), EndTime: wall("2024-05-15T12:00"), Status: models.ExamStatusScheduled})
	past := store.add(models.Exam{StartTime: wall("2024-05-15T08:00"), EndTime: wall("2024-05-15T09:00"), Status: models.ExamStatusCompleted})
	draft := store.add(models.Exam{StartTime: wall("2024-05-15T09:00"), EndTime: wall("2024-05-15T12:00"), Status: models.ExamStatusDraft})
	assigned := store.add(models.Exam{StartTime: wall("2024-05-15T09:00"), EndTime: wall("2024-05-15T12:00"), Status: models.ExamStatusLive})
	store.candidates[candidateKey{assigned.ID, 99}] = &models.ExamCandidate{ExamID: assigned.ID, StudentID: 99, Assigned: true}

	tests := []struct {
		name   string
		examID int64
		is     error
		code   string
	}{
		{"not started", future.ID, apperrors.ErrPermissionDenied, apperrors.CodeNotStartedYet},
		{"expired", past.ID, apperrors.ErrPermissionDenied, apperrors.CodeExamExpired},
		{"draft", draft.ID, apperrors.ErrPermissionDenied, apperrors.CodeExamNotVisible},
		{"not assigned", assigned.ID, apperrors.ErrPermissionDenied, apperrors.CodeNotAssigned},
		{"missing", 404, apperrors.ErrResourceNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.StartExam(context.Background(), tt.examID, student.ID)
			if !errors.Is(err, tt.is) {
				t.Fatalf("want %v, got %v", tt.is, err)
			}
			if errorCode(err) != tt.code {
				t.Errorf("code = %q, want %q", errorCode(err), tt.code)
			}
		})
	}

	_, err := svc.StartExam(context.Background(), future.ID, student.ID)
	var ce *apperrors.CustomError
	if !errors.As(err, &ce) || ce.Details["startsInSeconds"] != int64(1800) {
		t.Errorf("startsInSeconds detail = %v, want 1800", ce.Details)
	}
}

func TestStartExamCreatesCandidateOnce(t *testing.T) {
	svc, store, _ := newTestExamService()
	exam := store.add(models.Exam{StartTime: wall("2024-05-15T09:00"), EndTime: wall("2024-05-15T12:00"), Status: models.ExamStatusLive})

	first, err := svc.StartExam(context.Background(), exam.ID, student.ID)
	if err != nil {
		t.Fatalf("StartExam: %v", err)
	}
	if first.Status != models.CandidateInProgress {
		t.Errorf("status = %s, want In-Progress", first.Status)
	}
	if first.StartedAt != "2024-05-15T10:00:00" || first.EndTime != "2024-05-15T12:00:00" {
		t.Errorf("unexpected times %s / %s", first.StartedAt, first.EndTime)
	}

	svc.now = func() time.Time { return fixedNow.Add(10 * time.Minute) }
	second, err := svc.StartExam(context.Background(), exam.ID, student.ID)
	if err != nil {
		t.Fatalf("second StartExam: %v", err)
	}
	if second.StartedAt != first.StartedAt {
		t.Errorf("restart moved startedAt from %s to %s", first.StartedAt, second.StartedAt)
	}
	if len(store.candidates) != 1 {
		t.Errorf("candidates = %d, want 1", len(store.candidates))
	}

	store.candidates[candidateKey{exam.ID, student.ID}].Status = models.CandidateCompleted
	_, err = svc.StartExam(context.Background(), exam.ID, student.ID)
	if !errors.Is(err, apperrors.ErrBadRequest) || errorCode(err) != apperrors.CodeAlreadyCompleted {
		t.Errorf("want ALREADY_COMPLETED, got %v", err)
	}
}

func TestUpdateExamRederivesStatus(t *testing.T) {
	svc, store, _ := newTestExamService()
	exam := store.add(models.Exam{StartTime: wall("2024-05-16T09:00"), EndTime: wall("2024-05-16T10:00"), Status: models.ExamStatusScheduled})
	draft := store.add(models.Exam{StartTime: wall("2024-05-16T09:00"), EndTime: wall("2024-05-16T10:00"), Status: models.ExamStatusDraft})

	start := "2024-05-15T09:00"
	end := "2024-05-15T11:00"
	resp, err := svc.UpdateExam(context.Background(), exam.ID, &dto.UpdateExamRequest{StartTime: &start, EndTime: &end})
	if err != nil {
		t.Fatalf("UpdateExam: %v", err)
	}
	if resp.Status != models.ExamStatusLive || store.exams[exam.ID].Status != models.ExamStatusLive {
		t.Errorf("status = %s (stored %s), want Live", resp.Status, store.exams[exam.ID].Status)
	}

	if _, err := svc.UpdateExam(context.Background(), draft.ID, &dto.UpdateExamRequest{StartTime: &start, EndTime: &end}); err != nil {
		t.Fatalf("UpdateExam draft: %v", err)
	}
	if store.exams[draft.ID].Status != models.ExamStatusDraft {
		t.Errorf("draft status changed to %s", store.exams[draft.ID].Status)
	}

	if _, err := svc.UpdateExam(context.Background(), exam.ID, &dto.UpdateExamRequest{}); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("empty update: want bad request, got %v", err)
	}
	bad := "tomorrow"
	if _, err := svc.UpdateExam(context.Background(), exam.ID, &dto.UpdateExamRequest{StartTime: &bad}); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("invalid time: want bad request, got %v", err)
	}
}

func TestAssignCandidatesDeduplicates(t *testing.T) {
	svc, store, _ := newTestExamService()
	exam := store.add(models.Exam{StartTime: wall("2024-05-16T09:00"), EndTime: wall("2024-05-16T10:00"), Status: models.ExamStatusScheduled})

	added, err := svc.AssignCandidates(context.Background(), exam.ID, []int64{7, 3, 7, 3})
	if err != nil {
		t.Fatalf("AssignCandidates: %v", err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}

	ok, err := svc.CanAccess(context.Background(), exam.ID, 3)
	if err != nil || !ok {
		t.Errorf("assigned student denied: ok=%v err=%v", ok, err)
	}
	ok, err = svc.CanAccess(context.Background(), exam.ID, 4)
	if err != nil || ok {
		t.Errorf("unassigned student allowed on a non-global exam: ok=%v err=%v", ok, err)
	}
}

func TestAnalyticsRoundsAverages(t *testing.T) {
	svc, store, _ := newTestExamService()
	avg1, avg2 := 72.5, 88.4
	store.counts = models.ExamCounts{Total: 3, Upcoming: 1, Completed: 1}
	store.summaries = []models.ExamScoreSummary{
		{ExamID: 1, Title: "A", AverageScore: &avg1},
		{ExamID: 2, Title: "B"},
		{ExamID: 3, Title: "C", AverageScore: &avg2},
	}

	resp, err := svc.Analytics(context.Background(), teacher)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if resp.Summary.TotalExams != 3 || resp.Summary.UpcomingExams != 1 || resp.Summary.CompletedExams != 1 {
		t.Errorf("unexpected summary %+v", resp.Summary)
	}
	if len(resp.AvgScores) != 2 {
		t.Fatalf("averages = %+v, want 2 entries", resp.AvgScores)
	}
	if resp.AvgScores[0].AverageScore != 73 || resp.AvgScores[1].AverageScore != 88 {
		t.Errorf("rounded averages = %+v", resp.AvgScores)
	}
}

func TestGradingOverviewEffectiveStatus(t *testing.T) {
	svc, store, _ := newTestExamService()
	avg := 64.6
	store.summaries = []models.ExamScoreSummary{
		{ExamID: 1, Title: "Running", StartTime: wall("2024-05-15T09:00"), EndTime: wall("2024-05-15T11:00"), Status: models.ExamStatusScheduled, CandidateCount: 3, CompletedCount: 1, AverageScore: &avg},
		{ExamID: 2, Title: "Draft", StartTime: wall("2024-05-15T09:00"), EndTime: wall("2024-05-15T11:00"), Status: models.ExamStatusDraft},
	}

	rows, err := svc.GradingOverview(context.Background(), admin)
	if err != nil {
		t.Fatalf("GradingOverview: %v", err)
	}
	if rows[0].Status != models.ExamStatusLive {
		t.Errorf("status = %s, want Live", rows[0].Status)
	}
	if rows[0].AverageScore == nil || *rows[0].AverageScore != 65 {
		t.Errorf("avg = %v, want 65", rows[0].AverageScore)
	}
	if rows[1].Status != models.ExamStatusDraft || rows[1].AverageScore != nil {
		t.Errorf("draft row = %+v", rows[1])
	}
}

func TestUniqueIDs(t *testing.T) {
	got := uniqueIDs([]int64{5, 1, 5, 3, 1})
	want := []int64{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("uniqueIDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("uniqueIDs = %v, want %v", got, want)
		}
	}
}
