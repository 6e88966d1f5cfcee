package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/pkg/apperrors"
)

// SimilarityThreshold is the Jaccard score a short answer needs to count as correct
const SimilarityThreshold = 0.6

// SubmittedAnswer is one answer as sent by the student
type SubmittedAnswer struct {
	QuestionID       int64
	SelectedOptionID *int64
	TextAnswer       *string
}

// GradedAnswer is a submitted answer with its verdict; IsCorrect nil means unknown
type GradedAnswer struct {
	SubmittedAnswer
	IsCorrect *bool
	Points    int
}

// GradeResult is the outcome of grading one submission
type GradeResult struct {
	Answers     []GradedAnswer
	TotalScore  int
	TotalPoints int
	Percentage  int
	Grade       string
}

// Similarity is the Jaccard index of the lower-cased, whitespace-split token
// sets of a and b. Either side blank yields 0.
func Similarity(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Percentage rounds score/total to a whole percent; a zero total yields 0
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// LetterGrade maps a percentage to a letter. Without any points to earn the
// grade stays Pending.
func LetterGrade(percentage, totalPoints int) string {
	if totalPoints <= 0 {
		return models.GradePending
	}
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B"
	case percentage >= 60:
		return "C"
	case percentage >= 50:
		return "D"
	default:
		return "F"
	}
}

// GradeAnswers grades a submission against every question of the exam.
// Answers for the same question collapse to the last one sent. Answers to
// questions outside the exam and empty submissions are bad requests.
func GradeAnswers(questions []models.Question, answers []SubmittedAnswer) (GradeResult, error) {
	if len(answers) == 0 {
		return GradeResult{}, apperrors.NewBadRequestError("answers array is required")
	}

	byID := make(map[int64]*models.Question, len(questions))
	totalPoints := 0
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
		totalPoints += questions[i].Points
	}

	position := make(map[int64]int, len(answers))
	var graded []GradedAnswer
	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			return GradeResult{}, apperrors.NewBadRequestError(
				fmt.Sprintf("question %d does not belong to this exam", ans.QuestionID))
		}

		g := gradeOne(q, ans)
		if idx, seen := position[ans.QuestionID]; seen {
			graded[idx] = g
			continue
		}
		position[ans.QuestionID] = len(graded)
		graded = append(graded, g)
	}

	score := 0
	for _, g := range graded {
		score += g.Points
	}

	pct := Percentage(score, totalPoints)
	return GradeResult{
		Answers:     graded,
		TotalScore:  score,
		TotalPoints: totalPoints,
		Percentage:  pct,
		Grade:       LetterGrade(pct, totalPoints),
	}, nil
}

func gradeOne(q *models.Question, ans SubmittedAnswer) GradedAnswer {
	g := GradedAnswer{SubmittedAnswer: ans}

	switch {
	case ans.SelectedOptionID != nil:
		for _, opt := range q.Options {
			if opt.ID == *ans.SelectedOptionID {
				if opt.IsCorrect != nil {
					v := *opt.IsCorrect
					g.IsCorrect = &v
				}
				break
			}
		}
	case ans.TextAnswer != nil && strings.TrimSpace(*ans.TextAnswer) != "" &&
		q.Type == models.QuestionShortAnswer && q.ModelAnswer != nil && strings.TrimSpace(*q.ModelAnswer) != "":
		v := Similarity(*ans.TextAnswer, *q.ModelAnswer) >= SimilarityThreshold
		g.IsCorrect = &v
	}

	if g.IsCorrect != nil && *g.IsCorrect {
		g.Points = q.Points
	}
	return g
}
