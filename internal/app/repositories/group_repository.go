package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/pkg/apperrors"
	"github.com/yigit/examhub/internal/pkg/dberrors"
	"github.com/yigit/examhub/internal/pkg/logger"
)

var groupColumns = []string{
	"g.id", "g.name", "g.batch_year", "g.description", "g.created_by", "g.created_at", "u.name",
	"(SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = g.id)",
}

// GroupRepository handles database operations for groups and memberships
type GroupRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanGroup(row pgx.Row) (*models.Group, error) {
	var g models.Group
	var members int64
	if err := row.Scan(&g.ID, &g.Name, &g.BatchYear, &g.Description, &g.CreatedBy, &g.CreatedAt, &g.CreatorName, &members); err != nil {
		return nil, err
	}
	g.MemberCount = int(members)
	return &g, nil
}

// CreateGroup inserts a group
func (r *GroupRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	sql, args, err := r.sb.Insert("groups").
		Columns("name", "batch_year", "description", "created_by").
		Values(group.Name, group.BatchYear, group.Description, group.CreatedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create group SQL")
		return fmt.Errorf("failed to build create group query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&group.ID, &group.CreatedAt); err != nil {
		logger.Error().Err(err).Str("name", group.Name).Msg("Error executing create group query")
		return fmt.Errorf("error creating group: %w", err)
	}
	return nil
}

// GetGroupByID retrieves a group with its creator name and member count
func (r *GroupRepository) GetGroupByID(ctx context.Context, id int64) (*models.Group, error) {
	sql, args, err := r.sb.Select(groupColumns...).
		From("groups g").
		Join("users u ON u.id = g.created_by").
		Where(squirrel.Eq{"g.id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get group SQL")
		return nil, fmt.Errorf("failed to build get group query: %w", err)
	}

	group, err := scanGroup(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("Group not found")
		}
		logger.Error().Err(err).Int64("groupID", id).Msg("Error scanning group")
		return nil, fmt.Errorf("error getting group: %w", err)
	}
	return group, nil
}

// ListGroups lists every group, newest first
func (r *GroupRepository) ListGroups(ctx context.Context) ([]*models.Group, error) {
	sql, args, err := r.sb.Select(groupColumns...).
		From("groups g").
		Join("users u ON u.id = g.created_by").
		OrderBy("g.created_at DESC", "g.id DESC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list groups SQL")
		return nil, fmt.Errorf("failed to build list groups query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list groups query")
		return nil, fmt.Errorf("error listing groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// ListMembers lists the users of a group
func (r *GroupRepository) ListMembers(ctx context.Context, groupID int64) ([]models.GroupMember, error) {
	sql, args, err := r.sb.Select(
		"u.id", "u.name", "u.email", "u.role", "u.special_id", "u.batch", "u.department", "u.status", "u.photo_url", "gm.joined_at",
	).From("group_members gm").
		Join("users u ON u.id = gm.user_id").
		Where(squirrel.Eq{"gm.group_id": groupID}).
		OrderBy("u.name").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list members SQL")
		return nil, fmt.Errorf("failed to build list members query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("groupID", groupID).Msg("Error executing list members query")
		return nil, fmt.Errorf("error listing members: %w", err)
	}
	defer rows.Close()

	members := make([]models.GroupMember, 0)
	for rows.Next() {
		var m models.GroupMember
		var role, status string
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &role, &m.SpecialID, &m.Batch, &m.Department, &status, &m.PhotoURL, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("error scanning member: %w", err)
		}
		m.Role = models.Role(role)
		m.Status = models.UserStatus(status)
		members = append(members, m)
	}
	return members, rows.Err()
}

// MemberIDs lists the user IDs of a group
func (r *GroupRepository) MemberIDs(ctx context.Context, tx pgx.Tx, groupID int64) ([]int64, error) {
	rows, err := querier(r.db, tx).Query(ctx, `SELECT user_id FROM group_members WHERE group_id = $1 ORDER BY user_id`, groupID)
	if err != nil {
		logger.Error().Err(err).Int64("groupID", groupID).Msg("Error executing member IDs query")
		return nil, fmt.Errorf("error listing member IDs: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning member ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddMembers adds users to a group, ignoring existing memberships, and
// returns how many were added
func (r *GroupRepository) AddMembers(ctx context.Context, groupID int64, userIDs []int64) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	builder := r.sb.Insert("group_members").Columns("group_id", "user_id")
	for _, userID := range userIDs {
		builder = builder.Values(groupID, userID)
	}
	sql, args, err := builder.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building add members SQL")
		return 0, fmt.Errorf("failed to build add members query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return 0, apperrors.NewResourceNotFoundError("Group or user not found")
		}
		logger.Error().Err(err).Int64("groupID", groupID).Msg("Error executing add members query")
		return 0, fmt.Errorf("error adding members: %w", err)
	}
	return int(cmdTag.RowsAffected()), nil
}
