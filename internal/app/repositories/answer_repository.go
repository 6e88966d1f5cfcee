package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/pkg/logger"
)

// AnswerRepository handles database operations for student answers
type AnswerRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAnswerRepository creates a new AnswerRepository
func NewAnswerRepository(db *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ReplaceAnswers stores a full submission. Answers to questions missing from
// the new submission are removed and the rest are upserted per question.
func (r *AnswerRepository) ReplaceAnswers(ctx context.Context, tx pgx.Tx, examID, studentID int64, answers []models.Answer) error {
	q := querier(r.db, tx)

	keep := make([]int64, 0, len(answers))
	for _, a := range answers {
		keep = append(keep, a.QuestionID)
	}

	del := r.sb.Delete("student_answers").Where(squirrel.Eq{"exam_id": examID, "student_id": studentID})
	if len(keep) > 0 {
		del = del.Where(squirrel.NotEq{"question_id": keep})
	}
	sql, args, err := del.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building delete stale answers SQL")
		return fmt.Errorf("failed to build delete stale answers query: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("examID", examID).Int64("studentID", studentID).Msg("Error deleting stale answers")
		return fmt.Errorf("error deleting stale answers: %w", err)
	}

	if len(answers) == 0 {
		return nil
	}

	builder := r.sb.Insert("student_answers").
		Columns("exam_id", "student_id", "question_id", "selected_option_id", "text_answer", "is_correct")
	for _, a := range answers {
		builder = builder.Values(examID, studentID, a.QuestionID, a.SelectedOptionID, a.TextAnswer, a.IsCorrect)
	}
	sql, args, err = builder.Suffix(`ON CONFLICT (exam_id, student_id, question_id) DO UPDATE
		SET selected_option_id = EXCLUDED.selected_option_id,
		    text_answer = EXCLUDED.text_answer,
		    is_correct = EXCLUDED.is_correct,
		    answered_at = CURRENT_TIMESTAMP`).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building upsert answers SQL")
		return fmt.Errorf("failed to build upsert answers query: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("examID", examID).Int64("studentID", studentID).Msg("Error executing upsert answers query")
		return fmt.Errorf("error saving answers: %w", err)
	}
	return nil
}

// ListAnswers lists a student's stored answers joined with their questions
func (r *AnswerRepository) ListAnswers(ctx context.Context, examID, studentID int64) ([]dto.AnswerView, error) {
	sql, args, err := r.sb.Select(
		"q.id", "q.question_text", "q.question_type", "q.points",
		"sa.selected_option_id", "o.option_text", "sa.text_answer", "sa.is_correct",
	).From("student_answers sa").
		Join("exam_questions q ON q.id = sa.question_id").
		LeftJoin("question_options o ON o.id = sa.selected_option_id").
		Where(squirrel.Eq{"sa.exam_id": examID, "sa.student_id": studentID}).
		OrderBy("q.sort_order", "q.id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list answers SQL")
		return nil, fmt.Errorf("failed to build list answers query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("examID", examID).Msg("Error executing list answers query")
		return nil, fmt.Errorf("error listing answers: %w", err)
	}
	defer rows.Close()

	views := make([]dto.AnswerView, 0)
	for rows.Next() {
		var v dto.AnswerView
		var qType string
		if err := rows.Scan(&v.QuestionID, &v.QuestionText, &qType, &v.Points,
			&v.SelectedOptionID, &v.SelectedOptionText, &v.TextAnswer, &v.IsCorrect); err != nil {
			return nil, fmt.Errorf("error scanning answer: %w", err)
		}
		v.QuestionType = models.QuestionType(qType)
		views = append(views, v)
	}
	return views, rows.Err()
}
