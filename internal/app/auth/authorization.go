// Package auth holds the ownership rules applied on top of role checks.
package auth

import (
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/pkg/apperrors"
)

// RequireSelf allows only the account owner
func RequireSelf(p models.Principal, userID int64) error {
	if p.ID != userID {
		return apperrors.NewForbiddenError("You can only change your own account")
	}
	return nil
}

// RequireSelfOrAdmin allows the account owner or an admin
func RequireSelfOrAdmin(p models.Principal, userID int64) error {
	if p.ID == userID || p.IsAdmin() {
		return nil
	}
	return apperrors.NewForbiddenError("You don't have permission for this account")
}

// RequireOwnerOrAdmin allows the owner of a resource or an admin
func RequireOwnerOrAdmin(p models.Principal, ownerID int64, resource string) error {
	if p.ID == ownerID || p.IsAdmin() {
		return nil
	}
	return apperrors.NewForbiddenError("You don't have permission for this " + resource)
}

// RequireStaff allows teachers and admins
func RequireStaff(p models.Principal) error {
	if p.IsStaff() {
		return nil
	}
	return apperrors.NewForbiddenError("Only teachers and admins can perform this action")
}
