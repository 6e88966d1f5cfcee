package dto

import "github.com/yigit/examhub/internal/app/models"

// UserFilterRequest represents user filtering parameters
type UserFilterRequest struct {
	Role       string `form:"role" binding:"omitempty,role"`
	Status     string `form:"status" binding:"omitempty,userstatus"`
	Batch      string `form:"batch"`
	Department string `form:"department"`
	Search     string `form:"search"`
}

// UserListResponse represents a page of users
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination PaginationInfo `json:"pagination"`
}

// UpdateUserRequest represents a profile update; omitted fields are unchanged
type UpdateUserRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=2,max=100"`
	Phone      *string `json:"phone" binding:"omitempty,max=30"`
	Batch      *string `json:"batch" binding:"omitempty,max=20"`
	Department *string `json:"department" binding:"omitempty,max=100"`
	PhotoURL   *string `json:"photoUrl" binding:"omitempty,url"`
}

// UpdateStatusRequest changes an account status
type UpdateStatusRequest struct {
	Status models.UserStatus `json:"status" binding:"required,userstatus" example:"Blocked"`
}

// UpdateRoleRequest changes an account role
type UpdateRoleRequest struct {
	Role models.Role `json:"role" binding:"required,role" example:"teacher"`
}

// ChangePasswordRequest represents a password change by the account owner
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// ResetPasswordRequest represents an administrative password reset
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// UserStatsResponse summarises the user population
type UserStatsResponse struct {
	Total        int64                 `json:"total"`
	ByRole       []models.RoleCount    `json:"byRole"`
	MonthlyTrend []models.MonthlyCount `json:"monthlyTrend"`
}
