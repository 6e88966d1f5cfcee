package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/pkg/apperrors"
	"github.com/yigit/examhub/internal/pkg/dberrors"
	"github.com/yigit/examhub/internal/pkg/logger"
)

var userColumns = []string{
	"u.id", "u.name", "u.email", "u.password_hash", "u.role", "u.special_id", "u.phone",
	"u.batch", "u.department", "u.photo_url", "u.status", "u.created_at",
}

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var role, status string
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Password, &role, &user.SpecialID, &user.Phone,
		&user.Batch, &user.Department, &user.PhotoURL, &status, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	user.Status = models.UserStatus(status)
	return &user, nil
}

// CreateUser inserts a user and returns its ID
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	status := user.Status
	if status == "" {
		status = models.UserStatusActive
	}

	sql, args, err := r.sb.Insert("users").
		Columns("name", "email", "password_hash", "role", "special_id", "photo_url", "status").
		Values(user.Name, user.Email, user.Password, string(user.Role), user.SpecialID, user.PhotoURL, string(status)).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return 0, fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return 0, apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return 0, fmt.Errorf("error creating user: %w", err)
	}
	user.Status = status

	return user.ID, nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users u").Where(where).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user SQL")
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user")
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.id": id})
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.email": email})
}

// GetUserByEmailAndRole retrieves the account a login form addresses
func (r *UserRepository) GetUserByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.email": email, "u.role": string(role)})
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}

func applyUserFilter(b squirrel.SelectBuilder, f models.UserFilter) squirrel.SelectBuilder {
	if f.Role != nil {
		b = b.Where(squirrel.Eq{"u.role": string(*f.Role)})
	}
	if f.Status != nil {
		b = b.Where(squirrel.Eq{"u.status": string(*f.Status)})
	}
	if f.Batch != "" {
		b = b.Where(squirrel.Eq{"u.batch": f.Batch})
	}
	if f.Department != "" {
		b = b.Where(squirrel.Eq{"u.department": f.Department})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		b = b.Where(squirrel.Or{
			squirrel.ILike{"u.name": pattern},
			squirrel.ILike{"u.special_id": pattern},
			squirrel.ILike{"u.email": pattern},
		})
	}
	return b
}

// ListUsers returns one page of users matching the filter and the total match count
func (r *UserRepository) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, int64, error) {
	countSQL, countArgs, err := applyUserFilter(r.sb.Select("COUNT(*)").From("users u"), filter).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count users SQL")
		return nil, 0, fmt.Errorf("failed to build count users query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count users query")
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}
	if total == 0 {
		return []*models.User{}, 0, nil
	}

	builder := applyUserFilter(r.sb.Select(userColumns...).From("users u"), filter).
		OrderBy("u.created_at DESC", "u.id DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit)).Offset(filter.Offset)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list users SQL")
		return nil, 0, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list users query")
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning user row")
			return nil, 0, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}

	return users, total, nil
}

func (r *UserRepository) update(ctx context.Context, id int64, set map[string]interface{}) error {
	set["updated_at"] = squirrel.Expr("CURRENT_TIMESTAMP")
	sql, args, err := r.sb.Update("users").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update user SQL")
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", id).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateProfile applies the non-nil fields of upd
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, upd models.UserUpdate) error {
	set := map[string]interface{}{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.Batch != nil {
		set["batch"] = *upd.Batch
	}
	if upd.Department != nil {
		set["department"] = *upd.Department
	}
	if upd.PhotoURL != nil {
		set["photo_url"] = *upd.PhotoURL
	}
	if len(set) == 0 {
		return apperrors.NewBadRequestError("No fields to update")
	}
	return r.update(ctx, id, set)
}

// UpdateStatus changes an account status
func (r *UserRepository) UpdateStatus(ctx context.Context, id int64, status models.UserStatus) error {
	return r.update(ctx, id, map[string]interface{}{"status": string(status)})
}

// UpdateRole changes an account role
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role models.Role) error {
	return r.update(ctx, id, map[string]interface{}{"role": string(role)})
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.update(ctx, id, map[string]interface{}{"password_hash": passwordHash})
}

// CountByRole returns the number of users per role
func (r *UserRepository) CountByRole(ctx context.Context) ([]models.RoleCount, error) {
	sql, args, err := r.sb.Select("role", "COUNT(*)").From("users").GroupBy("role").OrderBy("role").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count by role SQL")
		return nil, fmt.Errorf("failed to build count by role query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing count by role query")
		return nil, fmt.Errorf("error counting users by role: %w", err)
	}
	defer rows.Close()

	counts := make([]models.RoleCount, 0, len(models.Roles))
	for rows.Next() {
		var role string
		var count int64
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("error scanning role count: %w", err)
		}
		counts = append(counts, models.RoleCount{Role: models.Role(role), Count: count})
	}
	return counts, rows.Err()
}

// MonthlyRegistrations counts users created per calendar month since the given time
func (r *UserRepository) MonthlyRegistrations(ctx context.Context, since time.Time) ([]models.MonthlyCount, error) {
	sql, args, err := r.sb.Select("TO_CHAR(DATE_TRUNC('month', created_at), 'YYYY-MM') AS month", "COUNT(*)").
		From("users").
		Where(squirrel.GtOrEq{"created_at": since}).
		GroupBy("month").
		OrderBy("month").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building monthly registrations SQL")
		return nil, fmt.Errorf("failed to build monthly registrations query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing monthly registrations query")
		return nil, fmt.Errorf("error counting monthly registrations: %w", err)
	}
	defer rows.Close()

	counts := make([]models.MonthlyCount, 0)
	for rows.Next() {
		var c models.MonthlyCount
		if err := rows.Scan(&c.Month, &c.Count); err != nil {
			return nil, fmt.Errorf("error scanning monthly count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
