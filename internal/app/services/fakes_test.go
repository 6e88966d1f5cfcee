package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/db"
	"github.com/yigit/examhub/internal/pkg/apperrors"
)

var testLogger = zerolog.Nop()

// fixedNow is a Wednesday morning used as "now" across service tests
var fixedNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

func nowFunc() time.Time { return fixedNow }

// snapshotter captures in-memory state and returns a function restoring it
type snapshotter interface {
	snapshot() func()
}

// fakeTx runs the work without a real transaction, restoring the
// registered stores when the work fails
type fakeTx struct {
	calls     int
	rollbacks int
	stores    []snapshotter
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	f.calls++
	restores := make([]func(), 0, len(f.stores))
	for _, s := range f.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(ctx, nil); err != nil {
		f.rollbacks++
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// syncNotifier records notifications synchronously
type syncNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (n *syncNotifier) Notify(notifications ...models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notifications...)
}

func (n *syncNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type candidateKey struct{ exam, student int64 }

// fakeExamStore keeps exams, candidates and group links in memory
type fakeExamStore struct {
	nextID     int64
	exams      map[int64]*models.Exam
	candidates map[candidateKey]*models.ExamCandidate
	groups     map[int64][]int64 // exam -> groups
	members    map[int64][]int64 // group -> users
	summaries  []models.ExamScoreSummary
	counts     models.ExamCounts
	failCreate error
	failLink   error
}

func newFakeExamStore() *fakeExamStore {
	return &fakeExamStore{
		exams:      make(map[int64]*models.Exam),
		candidates: make(map[candidateKey]*models.ExamCandidate),
		groups:     make(map[int64][]int64),
		members:    make(map[int64][]int64),
	}
}

func (f *fakeExamStore) snapshot() func() {
	nextID := f.nextID
	exams := make(map[int64]*models.Exam, len(f.exams))
	for id, e := range f.exams {
		exams[id] = e
	}
	groups := make(map[int64][]int64, len(f.groups))
	for id, g := range f.groups {
		groups[id] = append([]int64(nil), g...)
	}
	return func() {
		f.nextID, f.exams, f.groups = nextID, exams, groups
	}
}

func (f *fakeExamStore) add(exam models.Exam) *models.Exam {
	f.nextID++
	if exam.ID == 0 {
		exam.ID = f.nextID
	}
	e := exam
	f.exams[e.ID] = &e
	return &e
}

func (f *fakeExamStore) ExamExists(_ context.Context, examID int64) (bool, error) {
	_, ok := f.exams[examID]
	return ok, nil
}

func (f *fakeExamStore) CountAssignments(_ context.Context, examID int64) (int64, error) {
	var n int64
	for k, c := range f.candidates {
		if k.exam == examID && c.Assigned {
			n++
		}
	}
	return n + int64(len(f.groups[examID])), nil
}

func (f *fakeExamStore) IsAssigned(_ context.Context, examID, studentID int64) (bool, error) {
	if c, ok := f.candidates[candidateKey{examID, studentID}]; ok && c.Assigned {
		return true, nil
	}
	for _, g := range f.groups[examID] {
		for _, m := range f.members[g] {
			if m == studentID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeExamStore) CreateExam(_ context.Context, _ pgx.Tx, exam *models.Exam) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	stored := f.add(*exam)
	exam.ID = stored.ID
	return nil
}

func (f *fakeExamStore) LinkGroups(_ context.Context, _ pgx.Tx, examID int64, groupIDs []int64) error {
	if f.failLink != nil {
		return f.failLink
	}
	for _, g := range groupIDs {
		linked := false
		for _, existing := range f.groups[examID] {
			if existing == g {
				linked = true
			}
		}
		if !linked {
			f.groups[examID] = append(f.groups[examID], g)
		}
	}
	return nil
}

func (f *fakeExamStore) GetExamByID(_ context.Context, id int64) (*models.Exam, error) {
	e, ok := f.exams[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("Exam not found")
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExamStore) sorted() []*models.Exam {
	out := make([]*models.Exam, 0, len(f.exams))
	for _, e := range f.exams {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeExamStore) ListExams(_ context.Context, filter models.ExamFilter) ([]*models.Exam, error) {
	var out []*models.Exam
	for _, e := range f.sorted() {
		if filter.CreatedBy != nil && e.CreatedBy != *filter.CreatedBy {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeExamStore) ListAccessibleExams(ctx context.Context, studentID int64) ([]*models.Exam, error) {
	var out []*models.Exam
	for _, e := range f.sorted() {
		if e.Status == models.ExamStatusDraft {
			continue
		}
		total, _ := f.CountAssignments(ctx, e.ID)
		assigned, _ := f.IsAssigned(ctx, e.ID, studentID)
		if total == 0 || assigned {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExamStore) UpdateExam(_ context.Context, id int64, upd models.ExamUpdate) error {
	e, ok := f.exams[id]
	if !ok {
		return apperrors.NewResourceNotFoundError("Exam not found")
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Subject != nil {
		e.Subject = *upd.Subject
	}
	if upd.StartTime != nil {
		e.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		e.EndTime = *upd.EndTime
	}
	if upd.DurationMinutes != nil {
		e.DurationMinutes = *upd.DurationMinutes
	}
	if upd.SecurityLevel != nil {
		e.SecurityLevel = *upd.SecurityLevel
	}
	if upd.Status != nil {
		e.Status = *upd.Status
	}
	return nil
}

func (f *fakeExamStore) DeleteExam(_ context.Context, id int64) error {
	if _, ok := f.exams[id]; !ok {
		return apperrors.NewResourceNotFoundError("Exam not found")
	}
	delete(f.exams, id)
	return nil
}

func (f *fakeExamStore) ListCandidates(_ context.Context, examID int64) ([]models.ExamCandidate, error) {
	out := make([]models.ExamCandidate, 0)
	for k, c := range f.candidates {
		if k.exam == examID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (f *fakeExamStore) StartCandidate(_ context.Context, examID, studentID int64, startedAt time.Time) (*models.ExamCandidate, error) {
	key := candidateKey{examID, studentID}
	c, ok := f.candidates[key]
	if !ok {
		c = &models.ExamCandidate{ExamID: examID, StudentID: studentID, Status: models.CandidateInProgress, Grade: models.GradePending}
		f.candidates[key] = c
	}
	if c.StartedAt == nil {
		t := startedAt
		c.StartedAt = &t
	}
	cp := *c
	return &cp, nil
}

func (f *fakeExamStore) AssignCandidates(_ context.Context, _ pgx.Tx, examID int64, studentIDs []int64) (int, error) {
	added := 0
	for _, id := range studentIDs {
		key := candidateKey{examID, id}
		if c, ok := f.candidates[key]; ok {
			c.Assigned = true
			continue
		}
		f.candidates[key] = &models.ExamCandidate{
			ExamID: examID, StudentID: id, Status: models.CandidateInProgress, Grade: models.GradePending, Assigned: true,
		}
		added++
	}
	return added, nil
}

func (f *fakeExamStore) CompleteCandidate(_ context.Context, _ pgx.Tx, examID, studentID int64, score int, grade string) error {
	key := candidateKey{examID, studentID}
	c, ok := f.candidates[key]
	if !ok {
		c = &models.ExamCandidate{ExamID: examID, StudentID: studentID}
		f.candidates[key] = c
	}
	s := score
	c.Score = &s
	c.Grade = grade
	c.Status = models.CandidateCompleted
	return nil
}

func (f *fakeExamStore) ListStudentResults(_ context.Context, studentID int64) ([]models.StudentResult, error) {
	out := make([]models.StudentResult, 0)
	for k, c := range f.candidates {
		if k.student != studentID {
			continue
		}
		e := f.exams[k.exam]
		out = append(out, models.StudentResult{
			ExamID: e.ID, Title: e.Title, Subject: e.Subject, StartTime: e.StartTime,
			Status: c.Status, Score: c.Score, Grade: c.Grade,
		})
	}
	return out, nil
}

func (f *fakeExamStore) CountExams(_ context.Context, _ *int64, _ time.Time) (models.ExamCounts, error) {
	return f.counts, nil
}

func (f *fakeExamStore) ScoreSummaries(_ context.Context, _ *int64) ([]models.ExamScoreSummary, error) {
	return f.summaries, nil
}

// fakeQuestionStore keeps questions in memory
type fakeQuestionStore struct {
	nextID    int64
	nextOptID int64
	questions map[int64]*models.Question
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{questions: make(map[int64]*models.Question)}
}

func cloneQuestion(q *models.Question) models.Question {
	cp := *q
	cp.Options = make([]models.Option, len(q.Options))
	for i, o := range q.Options {
		cp.Options[i] = o
		if o.IsCorrect != nil {
			v := *o.IsCorrect
			cp.Options[i].IsCorrect = &v
		}
	}
	return cp
}

func (f *fakeQuestionStore) ListQuestions(_ context.Context, _ pgx.Tx, examID int64) ([]models.Question, error) {
	out := make([]models.Question, 0)
	for _, q := range f.questions {
		if q.ExamID == examID {
			out = append(out, cloneQuestion(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeQuestionStore) GetQuestionByID(_ context.Context, _ pgx.Tx, id int64) (*models.Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("Question not found")
	}
	cp := cloneQuestion(q)
	return &cp, nil
}

func (f *fakeQuestionStore) CreateQuestion(_ context.Context, _ pgx.Tx, question *models.Question) error {
	f.nextID++
	question.ID = f.nextID
	for i := range question.Options {
		f.nextOptID++
		question.Options[i].ID = f.nextOptID
		question.Options[i].QuestionID = question.ID
	}
	cp := cloneQuestion(question)
	f.questions[question.ID] = &cp
	return nil
}

func (f *fakeQuestionStore) UpdateQuestion(_ context.Context, _ pgx.Tx, id int64, upd models.QuestionUpdate) error {
	q, ok := f.questions[id]
	if !ok {
		return apperrors.NewResourceNotFoundError("Question not found")
	}
	if upd.Text != nil {
		q.Text = *upd.Text
	}
	if upd.Type != nil {
		q.Type = *upd.Type
	}
	if upd.Points != nil {
		q.Points = *upd.Points
	}
	if upd.Options != nil {
		q.Options = nil
		for _, o := range upd.Options {
			f.nextOptID++
			o.ID = f.nextOptID
			o.QuestionID = id
			q.Options = append(q.Options, o)
		}
	}
	return nil
}

func (f *fakeQuestionStore) DeleteQuestion(_ context.Context, id int64) error {
	if _, ok := f.questions[id]; !ok {
		return apperrors.NewResourceNotFoundError("Question not found")
	}
	delete(f.questions, id)
	return nil
}

func (f *fakeQuestionStore) ListBank(_ context.Context) ([]models.BankQuestion, error) {
	return nil, nil
}

type answerKey struct{ exam, student, question int64 }

// fakeAnswerStore upserts answers keyed like the unique constraint
type fakeAnswerStore struct {
	answers  map[answerKey]models.Answer
	replaces int
}

func newFakeAnswerStore() *fakeAnswerStore {
	return &fakeAnswerStore{answers: make(map[answerKey]models.Answer)}
}

func (f *fakeAnswerStore) ReplaceAnswers(_ context.Context, _ pgx.Tx, examID, studentID int64, answers []models.Answer) error {
	f.replaces++
	keep := make(map[int64]bool, len(answers))
	for _, a := range answers {
		keep[a.QuestionID] = true
	}
	for k := range f.answers {
		if k.exam == examID && k.student == studentID && !keep[k.question] {
			delete(f.answers, k)
		}
	}
	for _, a := range answers {
		a.ExamID = examID
		a.StudentID = studentID
		f.answers[answerKey{examID, studentID, a.QuestionID}] = a
	}
	return nil
}

func (f *fakeAnswerStore) ListAnswers(_ context.Context, examID, studentID int64) ([]dto.AnswerView, error) {
	out := make([]dto.AnswerView, 0)
	for k, a := range f.answers {
		if k.exam == examID && k.student == studentID {
			out = append(out, dto.AnswerView{QuestionID: a.QuestionID, IsCorrect: a.IsCorrect})
		}
	}
	return out, nil
}

func (f *fakeAnswerStore) countFor(examID, studentID int64) int {
	n := 0
	for k := range f.answers {
		if k.exam == examID && k.student == studentID {
			n++
		}
	}
	return n
}
