package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/db"
	"github.com/yigit/examhub/internal/domain"
	"github.com/yigit/examhub/internal/pkg/apperrors"
)

const defaultQuestionPoints = 1

// QuestionStore is the question persistence needed by QuestionService
type QuestionStore interface {
	ListQuestions(ctx context.Context, tx pgx.Tx, examID int64) ([]models.Question, error)
	GetQuestionByID(ctx context.Context, tx pgx.Tx, id int64) (*models.Question, error)
	CreateQuestion(ctx context.Context, tx pgx.Tx, question *models.Question) error
	UpdateQuestion(ctx context.Context, tx pgx.Tx, id int64, upd models.QuestionUpdate) error
	DeleteQuestion(ctx context.Context, id int64) error
	ListBank(ctx context.Context) ([]models.BankQuestion, error)
}

// AnswerStore is the answer persistence needed by QuestionService
type AnswerStore interface {
	ReplaceAnswers(ctx context.Context, tx pgx.Tx, examID, studentID int64, answers []models.Answer) error
	ListAnswers(ctx context.Context, examID, studentID int64) ([]dto.AnswerView, error)
}

// QuestionService handles question banks, submissions and grading
type QuestionService struct {
	questionRepo QuestionStore
	answerRepo   AnswerStore
	examRepo     ExamStore
	access       *domain.AccessResolver
	tx           db.TxManager
	notifier     Notifier
	submitGrace  time.Duration
	logger       zerolog.Logger
	now          func() time.Time
}

// NewQuestionService creates a new QuestionService. submitGrace extends the
// submission window past the exam end.
func NewQuestionService(
	questionRepo QuestionStore,
	answerRepo AnswerStore,
	examRepo ExamStore,
	tx db.TxManager,
	notifier Notifier,
	submitGrace time.Duration,
	logger zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		examRepo:     examRepo,
		access:       domain.NewAccessResolver(examRepo),
		tx:           tx,
		notifier:     notifier,
		submitGrace:  submitGrace,
		logger:       logger,
		now:          domain.Now,
	}
}

// ListBank lists every question across exams
func (s *QuestionService) ListBank(ctx context.Context) ([]models.BankQuestion, error) {
	return s.questionRepo.ListBank(ctx)
}

// ListQuestions lists the questions of an exam. Students must be able to
// access the exam and never see correctness flags or model answers.
func (s *QuestionService) ListQuestions(ctx context.Context, caller models.Principal, examID int64) ([]models.Question, error) {
	if !caller.IsStaff() {
		exam, err := s.examRepo.GetExamByID(ctx, examID)
		if err != nil {
			return nil, err
		}
		if exam.Status == models.ExamStatusDraft {
			return nil, apperrors.NewForbiddenError("Exam is not visible").WithCode(apperrors.CodeExamNotVisible)
		}
		if err := s.access.RequireAccess(ctx, examID, caller.ID); err != nil {
			return nil, err
		}
	} else if _, err := s.examRepo.GetExamByID(ctx, examID); err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.ListQuestions(ctx, nil, examID)
	if err != nil {
		return nil, err
	}
	if !caller.IsStaff() {
		redactQuestions(questions)
	}
	return questions, nil
}

func redactQuestions(questions []models.Question) {
	for i := range questions {
		questions[i].ModelAnswer = nil
		for j := range questions[i].Options {
			questions[i].Options[j].IsCorrect = nil
		}
	}
}

func toOptions(reqs []dto.OptionRequest) []models.Option {
	options := make([]models.Option, 0, len(reqs))
	for _, o := range reqs {
		correct := o.IsCorrect
		options = append(options, models.Option{Text: strings.TrimSpace(o.Text), IsCorrect: &correct})
	}
	return options
}

// checkQuestionShape enforces the per-type rules on a complete question
func checkQuestionShape(qType models.QuestionType, options []models.Option) error {
	switch qType {
	case models.QuestionMCQ:
		if len(options) < 2 {
			return apperrors.NewBadRequestError("MCQ questions need at least two options")
		}
		for _, o := range options {
			if o.IsCorrect != nil && *o.IsCorrect {
				return nil
			}
		}
		return apperrors.NewBadRequestError("MCQ questions need a correct option")
	case models.QuestionShortAnswer:
		return nil
	default:
		return apperrors.NewBadRequestError("Unknown question type")
	}
}

// CreateQuestion adds a question with its options to an exam
func (s *QuestionService) CreateQuestion(ctx context.Context, examID int64, req *dto.CreateQuestionRequest) (*models.Question, error) {
	question := &models.Question{
		ExamID:      examID,
		Text:        strings.TrimSpace(req.Text),
		Type:        req.Type,
		Points:      req.Points,
		SortOrder:   req.SortOrder,
		ModelAnswer: req.ModelAnswer,
		Options:     toOptions(req.Options),
	}
	if question.Type == "" {
		question.Type = models.QuestionMCQ
	}
	if question.Points <= 0 {
		question.Points = defaultQuestionPoints
	}
	if question.Type == models.QuestionShortAnswer {
		question.Options = nil
	} else {
		question.ModelAnswer = nil
	}
	if err := checkQuestionShape(question.Type, question.Options); err != nil {
		return nil, err
	}

	if _, err := s.examRepo.GetExamByID(ctx, examID); err != nil {
		return nil, err
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.questionRepo.CreateQuestion(ctx, tx, question)
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

// UpdateQuestion applies a partial update; a given option list replaces all options
func (s *QuestionService) UpdateQuestion(ctx context.Context, id int64, req *dto.UpdateQuestionRequest) (*models.Question, error) {
	upd := models.QuestionUpdate{
		Text:        req.Text,
		Type:        req.Type,
		Points:      req.Points,
		SortOrder:   req.SortOrder,
		ModelAnswer: req.ModelAnswer,
	}
	if req.Options != nil {
		upd.Options = toOptions(req.Options)
	}

	var updated *models.Question
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.questionRepo.GetQuestionByID(ctx, tx, id)
		if err != nil {
			return err
		}

		qType := current.Type
		if upd.Type != nil {
			qType = *upd.Type
		}
		options := current.Options
		if upd.Options != nil {
			options = upd.Options
		}
		if qType == models.QuestionMCQ {
			if err := checkQuestionShape(qType, options); err != nil {
				return err
			}
		}

		if err := s.questionRepo.UpdateQuestion(ctx, tx, id, upd); err != nil {
			return err
		}
		updated, err = s.questionRepo.GetQuestionByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteQuestion removes a question
func (s *QuestionService) DeleteQuestion(ctx context.Context, id int64) error {
	return s.questionRepo.DeleteQuestion(ctx, id)
}

// GradeSubmission grades and stores a student's answers in one transaction.
// Resubmitting overwrites the previous answers and result.
func (s *QuestionService) GradeSubmission(ctx context.Context, examID, studentID int64, answers []domain.SubmittedAnswer) (domain.GradeResult, error) {
	if len(answers) == 0 {
		return domain.GradeResult{}, apperrors.NewBadRequestError("answers array is required")
	}

	exam, err := s.examRepo.GetExamByID(ctx, examID)
	if err != nil {
		return domain.GradeResult{}, err
	}
	if err := domain.CheckSubmit(exam, s.now(), s.submitGrace); err != nil {
		return domain.GradeResult{}, err
	}
	if err := s.access.RequireAccess(ctx, examID, studentID); err != nil {
		return domain.GradeResult{}, err
	}

	var result domain.GradeResult
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		questions, err := s.questionRepo.ListQuestions(ctx, tx, examID)
		if err != nil {
			return err
		}

		result, err = domain.GradeAnswers(questions, answers)
		if err != nil {
			return err
		}

		if err := s.answerRepo.ReplaceAnswers(ctx, tx, examID, studentID, toAnswerRows(questions, result.Answers)); err != nil {
			return err
		}
		return s.examRepo.CompleteCandidate(ctx, tx, examID, studentID, result.Percentage, result.Grade)
	})
	if err != nil {
		return domain.GradeResult{}, err
	}

	s.logger.Info().Int64("examID", examID).Int64("studentID", studentID).
		Int("score", result.TotalScore).Int("totalPoints", result.TotalPoints).Str("grade", result.Grade).
		Msg("Submission graded")

	if s.notifier != nil {
		s.notifier.Notify(models.Notification{
			UserID:  studentID,
			Title:   "Exam submitted",
			Message: fmt.Sprintf("Your answers for %q were graded: %d%% (%s)", exam.Title, result.Percentage, result.Grade),
			Type:    "result",
		})
	}
	return result, nil
}

// toAnswerRows keeps a selected option only when it belongs to its question
func toAnswerRows(questions []models.Question, graded []domain.GradedAnswer) []models.Answer {
	owned := make(map[int64]int64)
	for _, q := range questions {
		for _, o := range q.Options {
			owned[o.ID] = q.ID
		}
	}

	rows := make([]models.Answer, 0, len(graded))
	for _, g := range graded {
		row := models.Answer{
			QuestionID: g.QuestionID,
			TextAnswer: g.TextAnswer,
			IsCorrect:  g.IsCorrect,
		}
		if g.SelectedOptionID != nil && owned[*g.SelectedOptionID] == g.QuestionID {
			id := *g.SelectedOptionID
			row.SelectedOptionID = &id
		}
		rows = append(rows, row)
	}
	return rows
}

// ListAnswers returns stored answers; students only ever see their own
func (s *QuestionService) ListAnswers(ctx context.Context, caller models.Principal, examID int64, studentID *int64) ([]dto.AnswerView, error) {
	target := caller.ID
	if caller.IsStaff() {
		if studentID == nil {
			return nil, apperrors.NewBadRequestError("studentId is required")
		}
		target = *studentID
	}
	return s.answerRepo.ListAnswers(ctx, examID, target)
}
