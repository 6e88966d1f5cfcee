package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/pkg/apperrors"
	"github.com/yigit/examhub/internal/pkg/dberrors"
	"github.com/yigit/examhub/internal/pkg/logger"
)

var questionColumns = []string{
	"q.id", "q.exam_id", "q.question_text", "q.question_type", "q.points", "q.sort_order", "q.model_answer", "q.created_at",
}

// QuestionRepository handles database operations for questions and their options
type QuestionRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewQuestionRepository creates a new QuestionRepository
func NewQuestionRepository(db *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanQuestion(row pgx.Row, extra ...interface{}) (models.Question, error) {
	var q models.Question
	var qType string
	dest := []interface{}{&q.ID, &q.ExamID, &q.Text, &qType, &q.Points, &q.SortOrder, &q.ModelAnswer, &q.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return q, err
	}
	q.Type = models.QuestionType(qType)
	q.Options = []models.Option{}
	return q, nil
}

// loadOptions attaches options, ordered by id, to the given questions
func (r *QuestionRepository) loadOptions(ctx context.Context, q Querier, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	ids := make([]int64, len(questions))
	index := make(map[int64]int, len(questions))
	for i, question := range questions {
		ids[i] = question.ID
		index[question.ID] = i
	}

	sql, args, err := r.sb.Select("id", "question_id", "option_text", "is_correct").
		From("question_options").
		Where(squirrel.Eq{"question_id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list options SQL")
		return fmt.Errorf("failed to build list options query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list options query")
		return fmt.Errorf("error listing options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opt models.Option
		var correct bool
		if err := rows.Scan(&opt.ID, &opt.QuestionID, &opt.Text, &correct); err != nil {
			return fmt.Errorf("error scanning option: %w", err)
		}
		opt.IsCorrect = &correct
		i := index[opt.QuestionID]
		questions[i].Options = append(questions[i].Options, opt)
	}
	return rows.Err()
}

// ListQuestions lists the questions of an exam in display order with all options
func (r *QuestionRepository) ListQuestions(ctx context.Context, tx pgx.Tx, examID int64) ([]models.Question, error) {
	q := querier(r.db, tx)
	sql, args, err := r.sb.Select(questionColumns...).
		From("exam_questions q").
		Where(squirrel.Eq{"q.exam_id": examID}).
		OrderBy("q.sort_order", "q.id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list questions SQL")
		return nil, fmt.Errorf("failed to build list questions query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("examID", examID).Msg("Error executing list questions query")
		return nil, fmt.Errorf("error listing questions: %w", err)
	}

	questions := make([]models.Question, 0)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("error scanning question: %w", err)
		}
		questions = append(questions, question)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	if err := r.loadOptions(ctx, q, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// GetQuestionByID retrieves one question with its options
func (r *QuestionRepository) GetQuestionByID(ctx context.Context, tx pgx.Tx, id int64) (*models.Question, error) {
	q := querier(r.db, tx)
	sql, args, err := r.sb.Select(questionColumns...).From("exam_questions q").Where(squirrel.Eq{"q.id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get question SQL")
		return nil, fmt.Errorf("failed to build get question query: %w", err)
	}

	question, err := scanQuestion(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewCustomError(apperrors.ErrQuestionNotFound, "Question not found")
		}
		logger.Error().Err(err).Int64("questionID", id).Msg("Error scanning question")
		return nil, fmt.Errorf("error getting question: %w", err)
	}

	questions := []models.Question{question}
	if err := r.loadOptions(ctx, q, questions); err != nil {
		return nil, err
	}
	return &questions[0], nil
}

func (r *QuestionRepository) insertOptions(ctx context.Context, q Querier, questionID int64, options []models.Option) ([]models.Option, error) {
	if len(options) == 0 {
		return []models.Option{}, nil
	}

	builder := r.sb.Insert("question_options").Columns("question_id", "option_text", "is_correct")
	for _, opt := range options {
		builder = builder.Values(questionID, opt.Text, opt.IsCorrect != nil && *opt.IsCorrect)
	}
	sql, args, err := builder.Suffix("RETURNING id, is_correct").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building insert options SQL")
		return nil, fmt.Errorf("failed to build insert options query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("questionID", questionID).Msg("Error executing insert options query")
		return nil, fmt.Errorf("error inserting options: %w", err)
	}
	defer rows.Close()

	saved := make([]models.Option, 0, len(options))
	for i := 0; rows.Next(); i++ {
		opt := options[i]
		var correct bool
		if err := rows.Scan(&opt.ID, &correct); err != nil {
			return nil, fmt.Errorf("error scanning option: %w", err)
		}
		opt.QuestionID = questionID
		opt.IsCorrect = &correct
		saved = append(saved, opt)
	}
	return saved, rows.Err()
}

// CreateQuestion inserts a question and its options
func (r *QuestionRepository) CreateQuestion(ctx context.Context, tx pgx.Tx, question *models.Question) error {
	q := querier(r.db, tx)
	sql, args, err := r.sb.Insert("exam_questions").
		Columns("exam_id", "question_text", "question_type", "points", "sort_order", "model_answer").
		Values(question.ExamID, question.Text, string(question.Type), question.Points, question.SortOrder, question.ModelAnswer).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create question SQL")
		return fmt.Errorf("failed to build create question query: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&question.ID, &question.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NewResourceNotFoundError("Exam not found")
		}
		logger.Error().Err(err).Int64("examID", question.ExamID).Msg("Error executing create question query")
		return fmt.Errorf("error creating question: %w", err)
	}

	options, err := r.insertOptions(ctx, q, question.ID, question.Options)
	if err != nil {
		return err
	}
	question.Options = options
	return nil
}

// UpdateQuestion applies the non-nil fields of upd. A non-nil option list
// replaces every existing option.
func (r *QuestionRepository) UpdateQuestion(ctx context.Context, tx pgx.Tx, id int64, upd models.QuestionUpdate) error {
	q := querier(r.db, tx)

	set := map[string]interface{}{}
	if upd.Text != nil {
		set["question_text"] = *upd.Text
	}
	if upd.Type != nil {
		set["question_type"] = string(*upd.Type)
	}
	if upd.Points != nil {
		set["points"] = *upd.Points
	}
	if upd.SortOrder != nil {
		set["sort_order"] = *upd.SortOrder
	}
	if upd.ModelAnswer != nil {
		set["model_answer"] = *upd.ModelAnswer
	}

	if len(set) > 0 {
		sql, args, err := r.sb.Update("exam_questions").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
		if err != nil {
			logger.Error().Err(err).Msg("Error building update question SQL")
			return fmt.Errorf("failed to build update question query: %w", err)
		}
		cmdTag, err := q.Exec(ctx, sql, args...)
		if err != nil {
			logger.Error().Err(err).Int64("questionID", id).Msg("Error executing update question query")
			return fmt.Errorf("error updating question: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.NewCustomError(apperrors.ErrQuestionNotFound, "Question not found")
		}
	}

	if upd.Options != nil {
		if _, err := q.Exec(ctx, `DELETE FROM question_options WHERE question_id = $1`, id); err != nil {
			logger.Error().Err(err).Int64("questionID", id).Msg("Error deleting question options")
			return fmt.Errorf("error replacing options: %w", err)
		}
		if _, err := r.insertOptions(ctx, q, id, upd.Options); err != nil {
			return err
		}
	}
	return nil
}

// DeleteQuestion removes a question with its options and answers
func (r *QuestionRepository) DeleteQuestion(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("exam_questions").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building delete question SQL")
		return fmt.Errorf("failed to build delete question query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("questionID", id).Msg("Error executing delete question query")
		return fmt.Errorf("error deleting question: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewCustomError(apperrors.ErrQuestionNotFound, "Question not found")
	}
	return nil
}

// ListBank lists every question with its exam and author
func (r *QuestionRepository) ListBank(ctx context.Context) ([]models.BankQuestion, error) {
	sql, args, err := r.sb.Select(questionColumns...).
		Columns("e.title", "e.subject", "u.name").
		From("exam_questions q").
		Join("exams e ON e.id = q.exam_id").
		Join("users u ON u.id = e.created_by").
		OrderBy("q.created_at DESC", "q.id DESC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building question bank SQL")
		return nil, fmt.Errorf("failed to build question bank query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing question bank query")
		return nil, fmt.Errorf("error listing question bank: %w", err)
	}

	bank := make([]models.BankQuestion, 0)
	for rows.Next() {
		var item models.BankQuestion
		question, err := scanQuestion(rows, &item.ExamTitle, &item.ExamSubject, &item.TeacherName)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("error scanning bank question: %w", err)
		}
		item.Question = question
		bank = append(bank, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question bank: %w", err)
	}

	questions := make([]models.Question, len(bank))
	for i := range bank {
		questions[i] = bank[i].Question
	}
	if err := r.loadOptions(ctx, r.db, questions); err != nil {
		return nil, err
	}
	for i := range bank {
		bank[i].Options = questions[i].Options
	}
	return bank, nil
}
