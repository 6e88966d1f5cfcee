package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/examhub/internal/app/auth"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/pkg/apperrors"
	"github.com/yigit/examhub/internal/pkg/auth"
	"github.com/yigit/examhub/internal/pkg/helpers"
)

// statsMonths is how many calendar months the registration trend covers
const statsMonths = 5

// UserService defines the interface for user operations
type UserService interface {
	GetUser(ctx context.Context, id int64) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, filter *dto.UserFilterRequest, page, size int) (*dto.UserListResponse, error)
	Stats(ctx context.Context) (*dto.UserStatsResponse, error)
	UpdateProfile(ctx context.Context, caller models.Principal, id int64, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	UpdateStatus(ctx context.Context, id int64, status models.UserStatus) error
	UpdateRole(ctx context.Context, id int64, role models.Role) error
	ChangePassword(ctx context.Context, caller models.Principal, id int64, req *dto.ChangePasswordRequest) error
	ResetPassword(ctx context.Context, id int64, newPassword string) error
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	userRepo UserStore
	logger   zerolog.Logger
	now      func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(userRepo UserStore, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// GetUser retrieves a user by ID
func (s *userServiceImpl) GetUser(ctx context.Context, id int64) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// ListUsers returns one page of users matching the filter
func (s *userServiceImpl) ListUsers(ctx context.Context, filter *dto.UserFilterRequest, page, size int) (*dto.UserListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	f := models.UserFilter{
		Batch:      filter.Batch,
		Department: filter.Department,
		Search:     filter.Search,
		Offset:     offset,
		Limit:      limit,
	}
	if filter.Role != "" {
		role := models.Role(filter.Role)
		f.Role = &role
	}
	if filter.Status != "" {
		status := models.UserStatus(filter.Status)
		f.Status = &status
	}

	users, total, err := s.userRepo.ListUsers(ctx, f)
	if err != nil {
		return nil, err
	}

	return &dto.UserListResponse{
		Users:      dto.NewUserResponses(users),
		Pagination: helpers.NewPaginationInfo(total, page, limit),
	}, nil
}

// Stats counts users per role and registrations over the last months
func (s *userServiceImpl) Stats(ctx context.Context) (*dto.UserStatsResponse, error) {
	byRole, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(statsMonths - 1), 0)
	monthly, err := s.userRepo.MonthlyRegistrations(ctx, since)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, rc := range byRole {
		total += rc.Count
	}

	return &dto.UserStatsResponse{
		Total:        total,
		ByRole:       byRole,
		MonthlyTrend: fillMonths(since, statsMonths, monthly),
	}, nil
}

// fillMonths returns one entry per month starting at since, zero for months without registrations
func fillMonths(since time.Time, months int, counts []models.MonthlyCount) []models.MonthlyCount {
	byMonth := make(map[string]int64, len(counts))
	for _, c := range counts {
		byMonth[c.Month] = c.Count
	}

	out := make([]models.MonthlyCount, 0, months)
	for i := 0; i < months; i++ {
		key := since.AddDate(0, i, 0).Format("2006-01")
		out = append(out, models.MonthlyCount{Month: key, Count: byMonth[key]})
	}
	return out
}

// UpdateProfile changes profile fields of the caller, or of anyone for an admin
func (s *userServiceImpl) UpdateProfile(ctx context.Context, caller models.Principal, id int64, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := appauth.RequireSelfOrAdmin(caller, id); err != nil {
		return nil, err
	}

	upd := models.UserUpdate{
		Name:       helpers.TrimPtr(req.Name),
		Phone:      helpers.TrimPtr(req.Phone),
		Batch:      helpers.TrimPtr(req.Batch),
		Department: helpers.TrimPtr(req.Department),
		PhotoURL:   helpers.TrimPtr(req.PhotoURL),
	}
	if upd.Empty() {
		return nil, apperrors.NewBadRequestError("No fields to update")
	}

	if err := s.userRepo.UpdateProfile(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// UpdateStatus changes an account status
func (s *userServiceImpl) UpdateStatus(ctx context.Context, id int64, status models.UserStatus) error {
	if !status.Valid() {
		return apperrors.NewBadRequestError("Invalid status")
	}
	if err := s.userRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", id).Str("status", string(status)).Msg("User status changed")
	return nil
}

// UpdateRole changes an account role
func (s *userServiceImpl) UpdateRole(ctx context.Context, id int64, role models.Role) error {
	if !role.Valid() {
		return apperrors.NewBadRequestError("Invalid role")
	}
	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", id).Str("role", string(role)).Msg("User role changed")
	return nil
}

// ChangePassword replaces the caller's password after checking the old one
func (s *userServiceImpl) ChangePassword(ctx context.Context, caller models.Principal, id int64, req *dto.ChangePasswordRequest) error {
	if err := appauth.RequireSelf(caller, id); err != nil {
		return err
	}

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.Password, req.OldPassword) {
		return apperrors.ErrInvalidCredentials
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, id, hashed)
}

// ResetPassword sets a new password without knowing the old one
func (s *userServiceImpl) ResetPassword(ctx context.Context, id int64, newPassword string) error {
	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, id, hashed); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", id).Msg("Password reset by admin")
	return nil
}
