package dto

import "github.com/yigit/examhub/internal/app/models"

// RegisterRequest represents a self-registration request
type RegisterRequest struct {
	Name          string      `json:"name" binding:"required,min=2,max=100" example:"Ada Lovelace"`
	Email         string      `json:"email" binding:"required,email" example:"ada@example.edu"`
	Password      string      `json:"password" binding:"required,min=6" example:"secret123"`
	Role          models.Role `json:"role" binding:"required,role" example:"student"`
	SpecialID     string      `json:"specialId" binding:"omitempty,max=50" example:"STU-2024-001"`
	CaptchaID     string      `json:"captchaId" example:"5c1f0a52-6e1b-4d7e-9c36-0c1f4f0c2a11"`
	CaptchaAnswer string      `json:"captchaAnswer" example:"7KQ2MX"`
}

// LoginRequest represents login credentials; the role selects the account
type LoginRequest struct {
	Email         string      `json:"email" binding:"required,email" example:"ada@example.edu"`
	Password      string      `json:"password" binding:"required" example:"secret123"`
	Role          models.Role `json:"role" binding:"required,role" example:"student"`
	CaptchaID     string      `json:"captchaId"`
	CaptchaAnswer string      `json:"captchaAnswer"`
}

// UserResponse represents the public view of a user
type UserResponse struct {
	ID         int64             `json:"id" example:"1"`
	Name       string            `json:"name" example:"Ada Lovelace"`
	Email      string            `json:"email" example:"ada@example.edu"`
	Role       models.Role       `json:"role" example:"student"`
	SpecialID  *string           `json:"specialId,omitempty"`
	Phone      *string           `json:"phone,omitempty"`
	Batch      *string           `json:"batch,omitempty"`
	Department *string           `json:"department,omitempty"`
	PhotoURL   *string           `json:"photoUrl,omitempty"`
	Status     models.UserStatus `json:"status" example:"Active"`
	CreatedAt  string            `json:"createdAt" example:"2024-05-01T09:00:00"`
}

// AuthResponse represents a successful login or registration
type AuthResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType" example:"Bearer"`
	ExpiresIn int          `json:"expiresIn" example:"86400"`
	User      UserResponse `json:"user"`
}

// CaptchaResponse carries a freshly issued challenge
type CaptchaResponse struct {
	CaptchaID string `json:"captchaId"`
	Challenge string `json:"challenge" example:"7KQ2MX"`
	ExpiresIn int    `json:"expiresIn" example:"300"`
}

// NewUserResponse converts a user for clients
func NewUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		SpecialID:  user.SpecialID,
		Phone:      user.Phone,
		Batch:      user.Batch,
		Department: user.Department,
		PhotoURL:   user.PhotoURL,
		Status:     user.Status,
		CreatedAt:  formatWallClock(user.CreatedAt),
	}
}

// NewUserResponses converts a list of users
func NewUserResponses(users []*models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}
