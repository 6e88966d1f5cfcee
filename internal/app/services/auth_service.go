package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/pkg/apperrors"
	"github.com/yigit/examhub/internal/pkg/auth"
	"github.com/yigit/examhub/internal/pkg/captcha"
	"github.com/yigit/examhub/internal/pkg/helpers"
	"github.com/yigit/examhub/internal/pkg/validation"
)

const avatarURLTemplate = "https://ui-avatars.com/api/?name=%s&background=e0e7ff&color=4338ca"

// UserStore is the user persistence needed by the auth and user services
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, int64, error)
	UpdateProfile(ctx context.Context, id int64, upd models.UserUpdate) error
	UpdateStatus(ctx context.Context, id int64, status models.UserStatus) error
	UpdateRole(ctx context.Context, id int64, role models.Role) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	CountByRole(ctx context.Context) ([]models.RoleCount, error)
	MonthlyRegistrations(ctx context.Context, since time.Time) ([]models.MonthlyCount, error)
}

// CaptchaService issues and checks captcha challenges
type CaptchaService interface {
	Generate(ctx context.Context) (*captcha.Challenge, error)
	Verify(ctx context.Context, id, answer string) error
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo        UserStore
	jwtService      *auth.JWTService
	captcha         CaptchaService
	captchaRequired bool
	logger          zerolog.Logger
}

// NewAuthService creates a new AuthService. When captchaRequired is set,
// register and login must carry a solved challenge.
func NewAuthService(
	userRepo UserStore,
	jwtService *auth.JWTService,
	captchaService CaptchaService,
	captchaRequired bool,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		jwtService:      jwtService,
		captcha:         captchaService,
		captchaRequired: captchaRequired,
		logger:          logger,
	}
}

// AvatarURL builds the generated avatar address for a display name
func AvatarURL(name string) string {
	return fmt.Sprintf(avatarURLTemplate, url.QueryEscape(strings.TrimSpace(name)))
}

// Captcha issues a new challenge
func (s *AuthService) Captcha(ctx context.Context) (*dto.CaptchaResponse, error) {
	if s.captcha == nil {
		return nil, apperrors.NewBadRequestError("Captcha is disabled")
	}
	challenge, err := s.captcha.Generate(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.CaptchaResponse{
		CaptchaID: challenge.ID,
		Challenge: challenge.Text,
		ExpiresIn: challenge.ExpiresIn,
	}, nil
}

func (s *AuthService) checkCaptcha(ctx context.Context, id, answer string) error {
	if !s.captchaRequired || s.captcha == nil {
		return nil
	}
	return s.captcha.Verify(ctx, id, answer)
}

// Register creates a student or teacher account and signs it in
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := s.checkCaptcha(ctx, req.CaptchaID, req.CaptchaAnswer); err != nil {
		return nil, err
	}

	switch req.Role {
	case models.RoleStudent, models.RoleTeacher:
	case models.RoleAdmin:
		return nil, apperrors.NewForbiddenError("Admin accounts cannot be self-registered")
	default:
		return nil, apperrors.NewBadRequestError("Unknown role")
	}

	name := strings.TrimSpace(req.Name)
	if !validation.ValidName(name) {
		return nil, apperrors.NewBadRequestError("Name contains invalid characters")
	}
	email := validation.NormalizeEmail(req.Email)

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	photo := AvatarURL(name)
	user := &models.User{
		Name:      name,
		Email:     email,
		Password:  hashedPassword,
		Role:      req.Role,
		SpecialID: helpers.NullIfBlank(req.SpecialID),
		PhotoURL:  &photo,
		Status:    models.UserStatusActive,
	}

	if _, err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return s.tokenResponse(user)
}

// Login authenticates the account addressed by email and role
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := s.checkCaptcha(ctx, req.CaptchaID, req.CaptchaAnswer); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByEmailAndRole(ctx, validation.NormalizeEmail(req.Email), req.Role)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.Status == models.UserStatusBlocked {
		return nil, apperrors.ErrAccountBlocked
	}

	return s.tokenResponse(user)
}

// Me returns the profile of the authenticated caller
func (s *AuthService) Me(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

func (s *AuthService) tokenResponse(user *models.User) (*dto.AuthResponse, error) {
	token, expiresIn, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}
	return &dto.AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: expiresIn,
		User:      dto.NewUserResponse(user),
	}, nil
}
