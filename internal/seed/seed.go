package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/pkg/apperrors"
	"golang.org/x/crypto/bcrypt"
)

// UserWriter is the part of the user repository the seeder needs
type UserWriter interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *appModels.User) (int64, error)
}

// AdminAccount describes the bootstrap administrator
type AdminAccount struct {
	Email    string
	Password string
}

// CreateDefaultData creates the bootstrap administrator if it does not exist.
// Nothing is created when no admin password is configured.
func CreateDefaultData(ctx context.Context, users UserWriter, admin AdminAccount, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" || admin.Password == "" {
		lgr.Warn().Msg("No seed admin credentials configured, skipping default admin")
		return nil
	}

	lgr.Info().Str("email", email).Msg("Checking default admin user...")
	exists, err := users.EmailExists(ctx, email)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return err
	}
	if exists {
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing admin password")
		return err
	}

	user := &appModels.User{
		Name:     "System Administrator",
		Email:    email,
		Password: string(hashedPassword),
		Role:     appModels.RoleAdmin,
		Status:   appModels.UserStatusActive,
	}
	adminID, err := users.CreateUser(ctx, user)
	if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
		lgr.Info().Msg("Admin user was created concurrently, skipping")
		return nil
	}
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating admin user")
		return err
	}

	lgr.Info().Int64("adminID", adminID).Msg("Default admin user created successfully")
	return nil
}
