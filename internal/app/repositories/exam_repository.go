package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/pkg/apperrors"
	"github.com/yigit/examhub/internal/pkg/dberrors"
	"github.com/yigit/examhub/internal/pkg/logger"
)

var examColumns = []string{
	"e.id", "e.title", "e.subject", "e.start_time", "e.end_time", "e.duration_minutes",
	"e.security_level", "e.status", "e.created_by", "e.created_at", "u.name",
	"(SELECT COUNT(*) FROM exam_candidates ec WHERE ec.exam_id = e.id)",
}

// ExamRepository handles database operations for exams and their candidates
type ExamRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewExamRepository creates a new ExamRepository
func NewExamRepository(db *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ExamRepository) selectExams() squirrel.SelectBuilder {
	return r.sb.Select(examColumns...).From("exams e").Join("users u ON u.id = e.created_by")
}

func scanExam(row pgx.Row) (*models.Exam, error) {
	var exam models.Exam
	var status string
	var candidates int64
	err := row.Scan(
		&exam.ID, &exam.Title, &exam.Subject, &exam.StartTime, &exam.EndTime, &exam.DurationMinutes,
		&exam.SecurityLevel, &status, &exam.CreatedBy, &exam.CreatedAt, &exam.CreatorName, &candidates,
	)
	if err != nil {
		return nil, err
	}
	exam.Status = models.ExamStatus(status)
	exam.CandidateCount = int(candidates)
	return &exam, nil
}

func (r *ExamRepository) queryExams(ctx context.Context, builder squirrel.SelectBuilder) ([]*models.Exam, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list exams SQL")
		return nil, fmt.Errorf("failed to build list exams query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list exams query")
		return nil, fmt.Errorf("error listing exams: %w", err)
	}
	defer rows.Close()

	exams := make([]*models.Exam, 0)
	for rows.Next() {
		exam, err := scanExam(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning exam row")
			return nil, fmt.Errorf("error scanning exam: %w", err)
		}
		exams = append(exams, exam)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exams: %w", err)
	}
	return exams, nil
}

// CreateExam inserts an exam, filling its ID and creation time
func (r *ExamRepository) CreateExam(ctx context.Context, tx pgx.Tx, exam *models.Exam) error {
	sql, args, err := r.sb.Insert("exams").
		Columns("title", "subject", "start_time", "end_time", "duration_minutes", "security_level", "status", "created_by").
		Values(exam.Title, exam.Subject, exam.StartTime, exam.EndTime, exam.DurationMinutes, exam.SecurityLevel, string(exam.Status), exam.CreatedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create exam SQL")
		return fmt.Errorf("failed to build create exam query: %w", err)
	}

	if err := querier(r.db, tx).QueryRow(ctx, sql, args...).Scan(&exam.ID, &exam.CreatedAt); err != nil {
		logger.Error().Err(err).Str("title", exam.Title).Msg("Error executing create exam query")
		return fmt.Errorf("error creating exam: %w", err)
	}
	return nil
}

// LinkGroups assigns groups to an exam; existing links are kept
func (r *ExamRepository) LinkGroups(ctx context.Context, tx pgx.Tx, examID int64, groupIDs []int64) error {
	if len(groupIDs) == 0 {
		return nil
	}

	builder := r.sb.Insert("exam_groups").Columns("exam_id", "group_id")
	for _, groupID := range groupIDs {
		builder = builder.Values(examID, groupID)
	}
	sql, args, err := builder.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building link exam groups SQL")
		return fmt.Errorf("failed to build link exam groups query: %w", err)
	}

	if _, err := querier(r.db, tx).Exec(ctx, sql, args...); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NewResourceNotFoundError("Group or exam not found")
		}
		logger.Error().Err(err).Int64("examID", examID).Msg("Error executing link exam groups query")
		return fmt.Errorf("error linking exam groups: %w", err)
	}
	return nil
}

// GetExamByID retrieves an exam with its creator name and candidate count
func (r *ExamRepository) GetExamByID(ctx context.Context, id int64) (*models.Exam, error) {
	sql, args, err := r.selectExams().Where(squirrel.Eq{"e.id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get exam SQL")
		return nil, fmt.Errorf("failed to build get exam query: %w", err)
	}

	exam, err := scanExam(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("Exam not found")
		}
		logger.Error().Err(err).Int64("examID", id).Msg("Error scanning exam")
		return nil, fmt.Errorf("error getting exam: %w", err)
	}
	return exam, nil
}

// ListExams lists exams, newest start first
func (r *ExamRepository) ListExams(ctx context.Context, filter models.ExamFilter) ([]*models.Exam, error) {
	builder := r.selectExams()
	if filter.CreatedBy != nil {
		builder = builder.Where(squirrel.Eq{"e.created_by": *filter.CreatedBy})
	}
	return r.queryExams(ctx, builder.OrderBy("e.start_time DESC", "e.id DESC"))
}

// accessibleTo matches exams the student may see: global exams, explicit
// assignments and exams assigned to one of the student's groups
func accessibleTo(studentID int64) squirrel.Sqlizer {
	return squirrel.Or{
		squirrel.Expr(`NOT EXISTS (SELECT 1 FROM exam_candidates ec WHERE ec.exam_id = e.id AND ec.assigned)
			AND NOT EXISTS (SELECT 1 FROM exam_groups eg WHERE eg.exam_id = e.id)`),
		squirrel.Expr(`EXISTS (SELECT 1 FROM exam_candidates ec WHERE ec.exam_id = e.id AND ec.student_id = ? AND ec.assigned)`, studentID),
		squirrel.Expr(`EXISTS (SELECT 1 FROM exam_groups eg JOIN group_members gm ON gm.group_id = eg.group_id
			WHERE eg.exam_id = e.id AND gm.user_id = ?)`, studentID),
	}
}

// ListAccessibleExams lists the non-draft exams a student may access
func (r *ExamRepository) ListAccessibleExams(ctx context.Context, studentID int64) ([]*models.Exam, error) {
	builder := r.selectExams().
		Where(squirrel.NotEq{"e.status": string(models.ExamStatusDraft)}).
		Where(accessibleTo(studentID)).
		OrderBy("e.start_time ASC", "e.id ASC")
	return r.queryExams(ctx, builder)
}

// UpdateExam applies the non-nil fields of upd
func (r *ExamRepository) UpdateExam(ctx context.Context, id int64, upd models.ExamUpdate) error {
	set := map[string]interface{}{}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Subject != nil {
		set["subject"] = *upd.Subject
	}
	if upd.StartTime != nil {
		set["start_time"] = *upd.StartTime
	}
	if upd.EndTime != nil {
		set["end_time"] = *upd.EndTime
	}
	if upd.DurationMinutes != nil {
		set["duration_minutes"] = *upd.DurationMinutes
	}
	if upd.SecurityLevel != nil {
		set["security_level"] = *upd.SecurityLevel
	}
	if upd.Status != nil {
		set["status"] = string(*upd.Status)
	}
	if len(set) == 0 {
		return apperrors.NewBadRequestError("No fields to update")
	}
	set["updated_at"] = squirrel.Expr("CURRENT_TIMESTAMP")

	sql, args, err := r.sb.Update("exams").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update exam SQL")
		return fmt.Errorf("failed to build update exam query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("examID", id).Msg("Error executing update exam query")
		return fmt.Errorf("error updating exam: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("Exam not found")
	}
	return nil
}

// DeleteExam removes an exam and, by cascade, everything attached to it
func (r *ExamRepository) DeleteExam(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("exams").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building delete exam SQL")
		return fmt.Errorf("failed to build delete exam query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("examID", id).Msg("Error executing delete exam query")
		return fmt.Errorf("error deleting exam: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("Exam not found")
	}
	return nil
}

// ExamExists reports whether an exam row exists
func (r *ExamRepository) ExamExists(ctx context.Context, examID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM exams WHERE id = $1)`, examID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking exam: %w", err)
	}
	return exists, nil
}

// CountAssignments counts explicit candidate assignments plus group links
func (r *ExamRepository) CountAssignments(ctx context.Context, examID int64) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM exam_candidates WHERE exam_id = $1 AND assigned)
		     + (SELECT COUNT(*) FROM exam_groups WHERE exam_id = $1)`,
		examID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("error counting assignments: %w", err)
	}
	return total, nil
}

// IsAssigned reports an explicit assignment or membership in an assigned group
func (r *ExamRepository) IsAssigned(ctx context.Context, examID, studentID int64) (bool, error) {
	var assigned bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM exam_candidates WHERE exam_id = $1 AND student_id = $2 AND assigned)
		    OR EXISTS (SELECT 1 FROM exam_groups eg JOIN group_members gm ON gm.group_id = eg.group_id
		               WHERE eg.exam_id = $1 AND gm.user_id = $2)`,
		examID, studentID).Scan(&assigned)
	if err != nil {
		return false, fmt.Errorf("error checking assignment: %w", err)
	}
	return assigned, nil
}

// ListCandidates lists the candidates of an exam with their student details
func (r *ExamRepository) ListCandidates(ctx context.Context, examID int64) ([]models.ExamCandidate, error) {
	sql, args, err := r.sb.Select(
		"ec.exam_id", "ec.student_id", "ec.status", "ec.score", "ec.grade", "ec.assigned", "ec.started_at",
		"u.name", "u.email", "u.special_id", "u.photo_url",
	).From("exam_candidates ec").
		Join("users u ON u.id = ec.student_id").
		Where(squirrel.Eq{"ec.exam_id": examID}).
		OrderBy("u.name").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list candidates SQL")
		return nil, fmt.Errorf("failed to build list candidates query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("examID", examID).Msg("Error executing list candidates query")
		return nil, fmt.Errorf("error listing candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]models.ExamCandidate, 0)
	for rows.Next() {
		var c models.ExamCandidate
		var status string
		if err := rows.Scan(&c.ExamID, &c.StudentID, &status, &c.Score, &c.Grade, &c.Assigned, &c.StartedAt,
			&c.StudentName, &c.StudentEmail, &c.SpecialID, &c.PhotoURL); err != nil {
			return nil, fmt.Errorf("error scanning candidate: %w", err)
		}
		c.Status = models.CandidateStatus(status)
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// StartCandidate creates the candidate row on first start and returns its
// current state. A repeated start keeps the original start time.
func (r *ExamRepository) StartCandidate(ctx context.Context, examID, studentID int64, startedAt time.Time) (*models.ExamCandidate, error) {
	sql, args, err := r.sb.Insert("exam_candidates").
		Columns("exam_id", "student_id", "status", "grade", "started_at").
		Values(examID, studentID, string(models.CandidateInProgress), models.GradePending, startedAt).
		Suffix(`ON CONFLICT (exam_id, student_id) DO UPDATE
			SET started_at = COALESCE(exam_candidates.started_at, EXCLUDED.started_at), updated_at = CURRENT_TIMESTAMP
			RETURNING exam_id, student_id, status, score, grade, assigned, started_at`).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building start candidate SQL")
		return nil, fmt.Errorf("failed to build start candidate query: %w", err)
	}

	var c models.ExamCandidate
	var status string
	err = r.db.QueryRow(ctx, sql, args...).Scan(&c.ExamID, &c.StudentID, &status, &c.Score, &c.Grade, &c.Assigned, &c.StartedAt)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return nil, apperrors.NewResourceNotFoundError("Exam not found")
		}
		logger.Error().Err(err).Int64("examID", examID).Int64("studentID", studentID).Msg("Error executing start candidate query")
		return nil, fmt.Errorf("error starting exam: %w", err)
	}
	c.Status = models.CandidateStatus(status)
	return &c, nil
}

// AssignCandidates marks students as explicitly assigned, creating candidate
// rows as needed. It returns how many students were newly assigned.
func (r *ExamRepository) AssignCandidates(ctx context.Context, tx pgx.Tx, examID int64, studentIDs []int64) (int, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}

	builder := r.sb.Insert("exam_candidates").Columns("exam_id", "student_id", "status", "grade", "assigned")
	for _, studentID := range studentIDs {
		builder = builder.Values(examID, studentID, string(models.CandidateInProgress), models.GradePending, true)
	}
	sql, args, err := builder.Suffix(`ON CONFLICT (exam_id, student_id) DO UPDATE
		SET assigned = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE exam_candidates.assigned = FALSE`).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building assign candidates SQL")
		return 0, fmt.Errorf("failed to build assign candidates query: %w", err)
	}

	cmdTag, err := querier(r.db, tx).Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return 0, apperrors.NewResourceNotFoundError("Exam or student not found")
		}
		logger.Error().Err(err).Int64("examID", examID).Msg("Error executing assign candidates query")
		return 0, fmt.Errorf("error assigning candidates: %w", err)
	}
	return int(cmdTag.RowsAffected()), nil
}

// CompleteCandidate records a graded submission, overwriting any previous one
func (r *ExamRepository) CompleteCandidate(ctx context.Context, tx pgx.Tx, examID, studentID int64, score int, grade string) error {
	sql, args, err := r.sb.Insert("exam_candidates").
		Columns("exam_id", "student_id", "status", "score", "grade").
		Values(examID, studentID, string(models.CandidateCompleted), score, grade).
		Suffix(`ON CONFLICT (exam_id, student_id) DO UPDATE
			SET status = EXCLUDED.status, score = EXCLUDED.score, grade = EXCLUDED.grade, updated_at = CURRENT_TIMESTAMP`).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building complete candidate SQL")
		return fmt.Errorf("failed to build complete candidate query: %w", err)
	}

	if _, err := querier(r.db, tx).Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("examID", examID).Int64("studentID", studentID).Msg("Error executing complete candidate query")
		return fmt.Errorf("error completing candidate: %w", err)
	}
	return nil
}

// ListStudentResults lists a student's candidate rows joined with their exams
func (r *ExamRepository) ListStudentResults(ctx context.Context, studentID int64) ([]models.StudentResult, error) {
	sql, args, err := r.sb.Select("e.id", "e.title", "e.subject", "e.start_time", "ec.status", "ec.score", "ec.grade").
		From("exam_candidates ec").
		Join("exams e ON e.id = ec.exam_id").
		Where(squirrel.Eq{"ec.student_id": studentID}).
		OrderBy("e.start_time DESC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building student results SQL")
		return nil, fmt.Errorf("failed to build student results query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error executing student results query")
		return nil, fmt.Errorf("error listing results: %w", err)
	}
	defer rows.Close()

	results := make([]models.StudentResult, 0)
	for rows.Next() {
		var res models.StudentResult
		var status string
		if err := rows.Scan(&res.ExamID, &res.Title, &res.Subject, &res.StartTime, &status, &res.Score, &res.Grade); err != nil {
			return nil, fmt.Errorf("error scanning result: %w", err)
		}
		res.Status = models.CandidateStatus(status)
		results = append(results, res)
	}
	return results, rows.Err()
}

// CountExams splits exams by phase at the given wall-clock time
func (r *ExamRepository) CountExams(ctx context.Context, createdBy *int64, now time.Time) (models.ExamCounts, error) {
	builder := r.sb.Select("COUNT(*)").
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE start_time > ?)", now)).
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE end_time < ?)", now)).
		From("exams")
	if createdBy != nil {
		builder = builder.Where(squirrel.Eq{"created_by": *createdBy})
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count exams SQL")
		return models.ExamCounts{}, fmt.Errorf("failed to build count exams query: %w", err)
	}

	var counts models.ExamCounts
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&counts.Total, &counts.Upcoming, &counts.Completed); err != nil {
		logger.Error().Err(err).Msg("Error executing count exams query")
		return models.ExamCounts{}, fmt.Errorf("error counting exams: %w", err)
	}
	return counts, nil
}

// ScoreSummaries aggregates candidate counts and average completed score per exam
func (r *ExamRepository) ScoreSummaries(ctx context.Context, createdBy *int64) ([]models.ExamScoreSummary, error) {
	builder := r.sb.Select(
		"e.id", "e.title", "e.subject", "e.start_time", "e.end_time", "e.duration_minutes", "e.status",
		"COUNT(ec.student_id)",
		"COUNT(ec.student_id) FILTER (WHERE ec.status = 'Completed')",
		"AVG(ec.score) FILTER (WHERE ec.status = 'Completed')::float8",
	).From("exams e").
		LeftJoin("exam_candidates ec ON ec.exam_id = e.id").
		GroupBy("e.id").
		OrderBy("e.start_time DESC", "e.id DESC")
	if createdBy != nil {
		builder = builder.Where(squirrel.Eq{"e.created_by": *createdBy})
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building score summaries SQL")
		return nil, fmt.Errorf("failed to build score summaries query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing score summaries query")
		return nil, fmt.Errorf("error summarising scores: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.ExamScoreSummary, 0)
	for rows.Next() {
		var s models.ExamScoreSummary
		var status string
		if err := rows.Scan(&s.ExamID, &s.Title, &s.Subject, &s.StartTime, &s.EndTime, &s.Duration, &status,
			&s.CandidateCount, &s.CompletedCount, &s.AverageScore); err != nil {
			return nil, fmt.Errorf("error scanning score summary: %w", err)
		}
		s.Status = models.ExamStatus(status)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
