package domain

import (
	"context"
	"fmt"

	"github.com/yigit/examhub/internal/pkg/apperrors"
)

// AssignmentReader is the read side of exam assignment data
type AssignmentReader interface {
	ExamExists(ctx context.Context, examID int64) (bool, error)
	// CountAssignments counts explicit candidate assignments plus group links
	CountAssignments(ctx context.Context, examID int64) (int64, error)
	// IsAssigned reports an explicit assignment or membership of an assigned group
	IsAssigned(ctx context.Context, examID, studentID int64) (bool, error)
}

// AccessResolver decides which students may see and take an exam
type AccessResolver struct {
	store AssignmentReader
}

// NewAccessResolver creates a new AccessResolver
func NewAccessResolver(store AssignmentReader) *AccessResolver {
	return &AccessResolver{store: store}
}

// CanAccess reports whether the student may access the exam. An exam with no
// assignments at all is global. A missing exam is a not-found error.
func (r *AccessResolver) CanAccess(ctx context.Context, examID, studentID int64) (bool, error) {
	exists, err := r.store.ExamExists(ctx, examID)
	if err != nil {
		return false, fmt.Errorf("error checking exam: %w", err)
	}
	if !exists {
		return false, apperrors.NewResourceNotFoundError("Exam not found")
	}

	total, err := r.store.CountAssignments(ctx, examID)
	if err != nil {
		return false, fmt.Errorf("error counting exam assignments: %w", err)
	}
	if total == 0 {
		return true, nil
	}

	assigned, err := r.store.IsAssigned(ctx, examID, studentID)
	if err != nil {
		return false, fmt.Errorf("error checking exam assignment: %w", err)
	}
	return assigned, nil
}

// RequireAccess is CanAccess turned into a forbidden error on denial
func (r *AccessResolver) RequireAccess(ctx context.Context, examID, studentID int64) error {
	ok, err := r.CanAccess(ctx, examID, studentID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbiddenError("You are not assigned to this exam").WithCode(apperrors.CodeNotAssigned)
	}
	return nil
}
