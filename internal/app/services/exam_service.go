package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/db"
	"github.com/yigit/examhub/internal/domain"
	"github.com/yigit/examhub/internal/pkg/apperrors"
)

// analyticsTopExams caps the per-exam averages on the dashboard
const analyticsTopExams = 10

// ExamStore is the exam persistence needed by the exam services
type ExamStore interface {
	domain.AssignmentReader
	CreateExam(ctx context.Context, tx pgx.Tx, exam *models.Exam) error
	LinkGroups(ctx context.Context, tx pgx.Tx, examID int64, groupIDs []int64) error
	GetExamByID(ctx context.Context, id int64) (*models.Exam, error)
	ListExams(ctx context.Context, filter models.ExamFilter) ([]*models.Exam, error)
	ListAccessibleExams(ctx context.Context, studentID int64) ([]*models.Exam, error)
	UpdateExam(ctx context.Context, id int64, upd models.ExamUpdate) error
	DeleteExam(ctx context.Context, id int64) error
	ListCandidates(ctx context.Context, examID int64) ([]models.ExamCandidate, error)
	StartCandidate(ctx context.Context, examID, studentID int64, startedAt time.Time) (*models.ExamCandidate, error)
	AssignCandidates(ctx context.Context, tx pgx.Tx, examID int64, studentIDs []int64) (int, error)
	CompleteCandidate(ctx context.Context, tx pgx.Tx, examID, studentID int64, score int, grade string) error
	ListStudentResults(ctx context.Context, studentID int64) ([]models.StudentResult, error)
	CountExams(ctx context.Context, createdBy *int64, now time.Time) (models.ExamCounts, error)
	ScoreSummaries(ctx context.Context, createdBy *int64) ([]models.ExamScoreSummary, error)
}

// ExamService handles exam scheduling, starting and reporting
type ExamService struct {
	examRepo ExamStore
	access   *domain.AccessResolver
	tx       db.TxManager
	logger   zerolog.Logger
	now      func() time.Time
}

// NewExamService creates a new ExamService
func NewExamService(examRepo ExamStore, tx db.TxManager, logger zerolog.Logger) *ExamService {
	return &ExamService{
		examRepo: examRepo,
		access:   domain.NewAccessResolver(examRepo),
		tx:       tx,
		logger:   logger,
		now:      domain.Now,
	}
}

// CanAccess reports whether a student may see the exam
func (s *ExamService) CanAccess(ctx context.Context, examID, studentID int64) (bool, error) {
	return s.access.CanAccess(ctx, examID, studentID)
}

func (s *ExamService) respond(exam *models.Exam, now time.Time) dto.ExamResponse {
	return dto.NewExamResponse(exam, domain.EffectiveStatus(exam, now))
}

// CreateExam schedules an exam and links its groups in one transaction
func (s *ExamService) CreateExam(ctx context.Context, caller models.Principal, req *dto.CreateExamRequest) (*dto.ExamResponse, error) {
	now := s.now()
	window, duration := domain.NormalizeWindow(req.StartTime, req.EndTime, req.DurationMinutes, now)
	if window.End.Before(window.Start) {
		return nil, apperrors.NewBadRequestError("End time must not be before start time")
	}

	status := domain.ResolveStatus(window.Start, window.End, now)
	if req.Status == models.ExamStatusDraft {
		status = models.ExamStatusDraft
	}

	exam := &models.Exam{
		Title:           req.Title,
		Subject:         req.Subject,
		StartTime:       window.Start,
		EndTime:         window.End,
		DurationMinutes: duration,
		SecurityLevel:   req.SecurityLevel,
		Status:          status,
		CreatedBy:       caller.ID,
	}
	if exam.SecurityLevel == "" {
		exam.SecurityLevel = "Standard"
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.examRepo.CreateExam(ctx, tx, exam); err != nil {
			return err
		}
		return s.examRepo.LinkGroups(ctx, tx, exam.ID, req.GroupIDs)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("examID", exam.ID).Int64("createdBy", caller.ID).Int("groups", len(req.GroupIDs)).Msg("Exam created")
	resp := s.respond(exam, now)
	return &resp, nil
}

// ListExams lists exams for the caller; students only see published exams
// they can access. A non-empty status filters on the effective status.
func (s *ExamService) ListExams(ctx context.Context, caller models.Principal, status models.ExamStatus) ([]dto.ExamResponse, error) {
	var (
		exams []*models.Exam
		err   error
	)
	if caller.IsStaff() {
		exams, err = s.examRepo.ListExams(ctx, models.ExamFilter{})
	} else {
		exams, err = s.examRepo.ListAccessibleExams(ctx, caller.ID)
	}
	if err != nil {
		return nil, err
	}
	return s.toResponses(exams, status), nil
}

// ListAllExams lists every exam for administrators
func (s *ExamService) ListAllExams(ctx context.Context) ([]dto.ExamResponse, error) {
	exams, err := s.examRepo.ListExams(ctx, models.ExamFilter{})
	if err != nil {
		return nil, err
	}
	return s.toResponses(exams, ""), nil
}

func (s *ExamService) toResponses(exams []*models.Exam, status models.ExamStatus) []dto.ExamResponse {
	now := s.now()
	out := make([]dto.ExamResponse, 0, len(exams))
	for _, exam := range exams {
		resp := s.respond(exam, now)
		if status != "" && resp.Status != status {
			continue
		}
		out = append(out, resp)
	}
	return out
}

// loadForStudent fetches a published exam the student can access
func (s *ExamService) loadForStudent(ctx context.Context, examID, studentID int64) (*models.Exam, error) {
	exam, err := s.examRepo.GetExamByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status == models.ExamStatusDraft {
		return nil, apperrors.NewForbiddenError("Exam is not visible").WithCode(apperrors.CodeExamNotVisible)
	}
	if err := s.access.RequireAccess(ctx, examID, studentID); err != nil {
		return nil, err
	}
	return exam, nil
}

// GetExam returns one exam; staff also get the candidate list
func (s *ExamService) GetExam(ctx context.Context, caller models.Principal, examID int64) (*dto.ExamDetailResponse, error) {
	if !caller.IsStaff() {
		exam, err := s.loadForStudent(ctx, examID, caller.ID)
		if err != nil {
			return nil, err
		}
		return &dto.ExamDetailResponse{ExamResponse: s.respond(exam, s.now())}, nil
	}

	exam, err := s.examRepo.GetExamByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.examRepo.ListCandidates(ctx, examID)
	if err != nil {
		return nil, err
	}
	return &dto.ExamDetailResponse{
		ExamResponse: s.respond(exam, s.now()),
		Candidates:   candidates,
	}, nil
}

// UpdateExam applies a partial update. When the window moves and no status
// is given, the status is re-derived from the new window.
func (s *ExamService) UpdateExam(ctx context.Context, examID int64, req *dto.UpdateExamRequest) (*dto.ExamResponse, error) {
	upd := models.ExamUpdate{
		Title:           req.Title,
		Subject:         req.Subject,
		DurationMinutes: req.DurationMinutes,
		SecurityLevel:   req.SecurityLevel,
		Status:          req.Status,
	}

	if req.StartTime != nil {
		t, ok := domain.ParseWallClock(*req.StartTime)
		if !ok {
			return nil, apperrors.NewBadRequestError("Invalid startTime")
		}
		upd.StartTime = &t
	}
	if req.EndTime != nil {
		t, ok := domain.ParseWallClock(*req.EndTime)
		if !ok {
			return nil, apperrors.NewBadRequestError("Invalid endTime")
		}
		upd.EndTime = &t
	}
	if upd.Empty() {
		return nil, apperrors.NewBadRequestError("No fields to update")
	}

	current, err := s.examRepo.GetExamByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	merged := *current
	if upd.StartTime != nil {
		merged.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		merged.EndTime = *upd.EndTime
	}
	if upd.DurationMinutes != nil {
		merged.DurationMinutes = *upd.DurationMinutes
	}
	if merged.EndTime.Before(merged.StartTime) {
		return nil, apperrors.NewBadRequestError("End time must not be before start time")
	}

	windowChanged := upd.StartTime != nil || upd.EndTime != nil || upd.DurationMinutes != nil
	if upd.Status == nil && windowChanged && current.Status != models.ExamStatusDraft {
		w := domain.ExamWindow(&merged, s.now())
		derived := domain.ResolveStatus(w.Start, w.End, s.now())
		upd.Status = &derived
	}

	if err := s.examRepo.UpdateExam(ctx, examID, upd); err != nil {
		return nil, err
	}

	exam, err := s.examRepo.GetExamByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	resp := s.respond(exam, s.now())
	return &resp, nil
}

// DeleteExam removes an exam with its questions, candidates and events
func (s *ExamService) DeleteExam(ctx context.Context, examID int64) error {
	if err := s.examRepo.DeleteExam(ctx, examID); err != nil {
		return err
	}
	s.logger.Info().Int64("examID", examID).Msg("Exam deleted")
	return nil
}

// StartExam opens an attempt for a student
func (s *ExamService) StartExam(ctx context.Context, examID, studentID int64) (*dto.StartExamResponse, error) {
	exam, err := s.examRepo.GetExamByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := domain.CheckStart(exam, now); err != nil {
		return nil, err
	}
	if err := s.access.RequireAccess(ctx, examID, studentID); err != nil {
		return nil, err
	}

	candidate, err := s.examRepo.StartCandidate(ctx, examID, studentID, domain.WallClock(now))
	if err != nil {
		return nil, err
	}
	if candidate.Status == models.CandidateCompleted {
		return nil, apperrors.NewBadRequestError("You have already completed this exam").WithCode(apperrors.CodeAlreadyCompleted)
	}

	startedAt := domain.WallClock(now)
	if candidate.StartedAt != nil {
		startedAt = *candidate.StartedAt
	}
	w := domain.ExamWindow(exam, now)
	return &dto.StartExamResponse{
		ExamID:    examID,
		Status:    candidate.Status,
		StartedAt: startedAt.Format(dto.WallClockLayout),
		EndTime:   w.End.Format(dto.WallClockLayout),
	}, nil
}

// AssignCandidates explicitly assigns students to an exam
func (s *ExamService) AssignCandidates(ctx context.Context, examID int64, studentIDs []int64) (int, error) {
	if _, err := s.examRepo.GetExamByID(ctx, examID); err != nil {
		return 0, err
	}

	var added int
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		n, err := s.examRepo.AssignCandidates(ctx, tx, examID, uniqueIDs(studentIDs))
		added = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// StudentResults lists the caller's attempts
func (s *ExamService) StudentResults(ctx context.Context, studentID int64) ([]dto.StudentResultResponse, error) {
	results, err := s.examRepo.ListStudentResults(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StudentResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, dto.NewStudentResultResponse(r))
	}
	return out, nil
}

func ownerScope(caller models.Principal) *int64 {
	if caller.IsAdmin() {
		return nil
	}
	id := caller.ID
	return &id
}

// Analytics summarises exams and average scores; teachers see their own exams
func (s *ExamService) Analytics(ctx context.Context, caller models.Principal) (*dto.AnalyticsResponse, error) {
	scope := ownerScope(caller)

	counts, err := s.examRepo.CountExams(ctx, scope, s.now())
	if err != nil {
		return nil, err
	}
	summaries, err := s.examRepo.ScoreSummaries(ctx, scope)
	if err != nil {
		return nil, err
	}

	avgs := make([]dto.ExamAverage, 0, analyticsTopExams)
	for _, sum := range summaries {
		if sum.AverageScore == nil {
			continue
		}
		avgs = append(avgs, dto.ExamAverage{Title: sum.Title, AverageScore: int(math.Round(*sum.AverageScore))})
		if len(avgs) == analyticsTopExams {
			break
		}
	}

	return &dto.AnalyticsResponse{
		Summary: dto.AnalyticsSummary{
			TotalExams:     counts.Total,
			UpcomingExams:  counts.Upcoming,
			CompletedExams: counts.Completed,
		},
		AvgScores: avgs,
	}, nil
}

// GradingOverview lists exams with candidate progress and average score
func (s *ExamService) GradingOverview(ctx context.Context, caller models.Principal) ([]dto.GradingExamResponse, error) {
	summaries, err := s.examRepo.ScoreSummaries(ctx, ownerScope(caller))
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]dto.GradingExamResponse, 0, len(summaries))
	for _, sum := range summaries {
		row := dto.GradingExamResponse{
			ID:             sum.ExamID,
			Title:          sum.Title,
			Subject:        sum.Subject,
			Date:           sum.StartTime.Format(dto.WallClockLayout),
			Status:         sum.Status,
			CandidateCount: sum.CandidateCount,
			CompletedCount: sum.CompletedCount,
		}
		if sum.Status != models.ExamStatusDraft {
			exam := models.Exam{StartTime: sum.StartTime, EndTime: sum.EndTime, DurationMinutes: sum.Duration, Status: sum.Status}
			row.Status = domain.EffectiveStatus(&exam, now)
		}
		if sum.AverageScore != nil {
			avg := int(math.Round(*sum.AverageScore))
			row.AverageScore = &avg
		}
		out = append(out, row)
	}
	return out, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
