package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/pkg/apperrors"
	"github.com/yigit/examhub/internal/pkg/dberrors"
	"github.com/yigit/examhub/internal/pkg/logger"
)

// ProctoringRepository handles database operations for proctoring events
type ProctoringRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewProctoringRepository creates a new ProctoringRepository
func NewProctoringRepository(db *pgxpool.Pool) *ProctoringRepository {
	return &ProctoringRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateEvent appends a proctoring event
func (r *ProctoringRepository) CreateEvent(ctx context.Context, event *models.ProctoringEvent) error {
	var details interface{}
	if len(event.Details) > 0 {
		details = string(event.Details)
	}

	sql, args, err := r.sb.Insert("proctoring_events").
		Columns("exam_id", "student_id", "event_type", "details").
		Values(event.ExamID, event.StudentID, event.EventType, details).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create proctoring event SQL")
		return fmt.Errorf("failed to build create proctoring event query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&event.ID, &event.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NewCustomError(apperrors.ErrExamNotFound, "Exam not found")
		}
		logger.Error().Err(err).Int64("examID", event.ExamID).Msg("Error executing create proctoring event query")
		return fmt.Errorf("error creating proctoring event: %w", err)
	}
	return nil
}

// eventsQuery selects events with the student's name, newest first,
// optionally narrowed to one exam and one student
func (r *ProctoringRepository) eventsQuery(examID, studentID *int64) squirrel.SelectBuilder {
	builder := r.sb.Select("p.id", "p.exam_id", "p.student_id", "p.event_type", "p.details", "p.created_at", "u.name").
		From("proctoring_events p").
		Join("users u ON u.id = p.student_id").
		OrderBy("p.created_at DESC", "p.id DESC")
	if examID != nil {
		builder = builder.Where(squirrel.Eq{"p.exam_id": *examID})
	}
	if studentID != nil {
		builder = builder.Where(squirrel.Eq{"p.student_id": *studentID})
	}
	return builder
}

// ListEvents lists the events of an exam, optionally for one student, newest first
func (r *ProctoringRepository) ListEvents(ctx context.Context, examID int64, studentID *int64) ([]models.ProctoringEvent, error) {
	return r.query(ctx, r.eventsQuery(&examID, studentID))
}

// ListAllEvents lists every event across exams, newest first
func (r *ProctoringRepository) ListAllEvents(ctx context.Context) ([]models.ProctoringEvent, error) {
	return r.query(ctx, r.eventsQuery(nil, nil))
}

// CountEvents counts a student's events of the given types in one exam
func (r *ProctoringRepository) CountEvents(ctx context.Context, tx pgx.Tx, examID, studentID int64, eventTypes []string) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("proctoring_events").
		Where(squirrel.Eq{"exam_id": examID, "student_id": studentID, "event_type": eventTypes}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count proctoring events SQL")
		return 0, fmt.Errorf("failed to build count proctoring events query: %w", err)
	}

	var count int64
	if err := querier(r.db, tx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Int64("examID", examID).Msg("Error executing count proctoring events query")
		return 0, fmt.Errorf("error counting proctoring events: %w", err)
	}
	return int(count), nil
}

func (r *ProctoringRepository) query(ctx context.Context, builder squirrel.SelectBuilder) ([]models.ProctoringEvent, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list proctoring events SQL")
		return nil, fmt.Errorf("failed to build list proctoring events query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list proctoring events query")
		return nil, fmt.Errorf("error listing proctoring events: %w", err)
	}
	defer rows.Close()

	events := make([]models.ProctoringEvent, 0)
	for rows.Next() {
		var e models.ProctoringEvent
		var details []byte
		if err := rows.Scan(&e.ID, &e.ExamID, &e.StudentID, &e.EventType, &details, &e.CreatedAt, &e.StudentName); err != nil {
			return nil, fmt.Errorf("error scanning proctoring event: %w", err)
		}
		if len(details) > 0 {
			e.Details = details
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
