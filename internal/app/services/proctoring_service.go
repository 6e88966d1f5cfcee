package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/domain"
	"github.com/yigit/examhub/internal/pkg/apperrors"
)

// ProctoringStore is the event persistence needed by ProctoringService
type ProctoringStore interface {
	CreateEvent(ctx context.Context, event *models.ProctoringEvent) error
	ListEvents(ctx context.Context, examID int64, studentID *int64) ([]models.ProctoringEvent, error)
	ListAllEvents(ctx context.Context) ([]models.ProctoringEvent, error)
	CountEvents(ctx context.Context, tx pgx.Tx, examID, studentID int64, eventTypes []string) (int, error)
}

// EventPublisher pushes stored events to live monitors
type EventPublisher interface {
	PublishProctoringEvent(event models.ProctoringEvent)
}

// ProctoringService records browser monitoring events and tallies them
type ProctoringService struct {
	eventRepo ProctoringStore
	examRepo  ExamStore
	users     interface {
		GetUserByID(ctx context.Context, id int64) (*models.User, error)
	}
	access    *domain.AccessResolver
	publisher EventPublisher
	logger    zerolog.Logger
}

// NewProctoringService creates a new ProctoringService. publisher may be nil.
func NewProctoringService(
	eventRepo ProctoringStore,
	examRepo ExamStore,
	userRepo UserStore,
	publisher EventPublisher,
	logger zerolog.Logger,
) *ProctoringService {
	return &ProctoringService{
		eventRepo: eventRepo,
		examRepo:  examRepo,
		users:     userRepo,
		access:    domain.NewAccessResolver(examRepo),
		publisher: publisher,
		logger:    logger,
	}
}

// LoggedEvent is a stored event with the student's flag count for the exam
type LoggedEvent struct {
	Event     *models.ProctoringEvent
	FlagCount int
}

// LogEvent appends an event for the calling student and publishes it live
func (s *ProctoringService) LogEvent(ctx context.Context, examID, studentID int64, eventType string, details json.RawMessage) (*LoggedEvent, error) {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return nil, apperrors.NewBadRequestError("eventType is required")
	}
	if len(details) > 0 && !json.Valid(details) {
		return nil, apperrors.NewBadRequestError("details must be valid JSON")
	}

	if err := s.access.RequireAccess(ctx, examID, studentID); err != nil {
		return nil, err
	}

	event := &models.ProctoringEvent{
		ExamID:    examID,
		StudentID: studentID,
		EventType: eventType,
		Details:   details,
	}
	if err := s.eventRepo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	if domain.IsFlagWorthy(eventType) {
		s.logger.Warn().Int64("examID", examID).Int64("studentID", studentID).Str("eventType", eventType).
			Msg("Flag-worthy proctoring event")
	}

	if s.publisher != nil {
		live := *event
		if user, err := s.users.GetUserByID(ctx, studentID); err == nil {
			live.StudentName = user.Name
		}
		s.publisher.PublishProctoringEvent(live)
	}

	flags, err := s.eventRepo.CountEvents(ctx, nil, examID, studentID, domain.FlagWorthyTypes())
	if err != nil {
		return nil, err
	}
	return &LoggedEvent{Event: event, FlagCount: flags}, nil
}

// ListAllEvents lists every event across exams
func (s *ProctoringService) ListAllEvents(ctx context.Context) ([]models.ProctoringEvent, error) {
	return s.eventRepo.ListAllEvents(ctx)
}

// ListEvents lists the events of an exam, optionally for one student
func (s *ProctoringService) ListEvents(ctx context.Context, examID int64, studentID *int64) ([]models.ProctoringEvent, error) {
	if _, err := s.examRepo.GetExamByID(ctx, examID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListEvents(ctx, examID, studentID)
}

// SummarizeProctoring tallies an exam's events per student
func (s *ProctoringService) SummarizeProctoring(ctx context.Context, examID int64) ([]domain.StudentTally, error) {
	if _, err := s.examRepo.GetExamByID(ctx, examID); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListEvents(ctx, examID, nil)
	if err != nil {
		return nil, err
	}
	return domain.Summarize(events), nil
}
