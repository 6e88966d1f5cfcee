package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/db"
	"github.com/yigit/examhub/internal/pkg/helpers"
)

// GroupStore is the group persistence needed by GroupService
type GroupStore interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroupByID(ctx context.Context, id int64) (*models.Group, error)
	ListGroups(ctx context.Context) ([]*models.Group, error)
	ListMembers(ctx context.Context, groupID int64) ([]models.GroupMember, error)
	MemberIDs(ctx context.Context, tx pgx.Tx, groupID int64) ([]int64, error)
	AddMembers(ctx context.Context, groupID int64, userIDs []int64) (int, error)
}

// GroupService handles student groups and group exam assignment
type GroupService struct {
	groupRepo GroupStore
	examRepo  ExamStore
	tx        db.TxManager
	notifier  Notifier
	logger    zerolog.Logger
}

// NewGroupService creates a new GroupService
func NewGroupService(groupRepo GroupStore, examRepo ExamStore, tx db.TxManager, notifier Notifier, logger zerolog.Logger) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		examRepo:  examRepo,
		tx:        tx,
		notifier:  notifier,
		logger:    logger,
	}
}

// ListGroups lists every group
func (s *GroupService) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return s.groupRepo.ListGroups(ctx)
}

// CreateGroup creates a group owned by the caller
func (s *GroupService) CreateGroup(ctx context.Context, caller models.Principal, req *dto.CreateGroupRequest) (*models.Group, error) {
	group := &models.Group{
		Name:        strings.TrimSpace(req.Name),
		BatchYear:   req.BatchYear,
		Description: helpers.TrimPtr(req.Description),
		CreatedBy:   caller.ID,
	}
	if err := s.groupRepo.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	return s.groupRepo.GetGroupByID(ctx, group.ID)
}

// ListMembers lists the members of a group
func (s *GroupService) ListMembers(ctx context.Context, groupID int64) ([]models.GroupMember, error) {
	if _, err := s.groupRepo.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.groupRepo.ListMembers(ctx, groupID)
}

// AddMembers adds users to a group and returns how many were new
func (s *GroupService) AddMembers(ctx context.Context, groupID int64, userIDs []int64) (int, error) {
	if _, err := s.groupRepo.GetGroupByID(ctx, groupID); err != nil {
		return 0, err
	}
	return s.groupRepo.AddMembers(ctx, groupID, uniqueIDs(userIDs))
}

// AssignExam links a group to an exam and assigns its members as
// candidates. Members are notified once the assignment is committed.
func (s *GroupService) AssignExam(ctx context.Context, groupID, examID int64) (int, error) {
	group, err := s.groupRepo.GetGroupByID(ctx, groupID)
	if err != nil {
		return 0, err
	}
	exam, err := s.examRepo.GetExamByID(ctx, examID)
	if err != nil {
		return 0, err
	}

	var (
		members []int64
		added   int
	)
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.examRepo.LinkGroups(ctx, tx, examID, []int64{groupID}); err != nil {
			return err
		}
		members, err = s.groupRepo.MemberIDs(ctx, tx, groupID)
		if err != nil {
			return err
		}
		added, err = s.examRepo.AssignCandidates(ctx, tx, examID, members)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int64("groupID", groupID).Int64("examID", examID).Int("members", len(members)).Int("added", added).
		Msg("Exam assigned to group")

	if s.notifier != nil && len(members) > 0 {
		notes := make([]models.Notification, 0, len(members))
		for _, userID := range members {
			notes = append(notes, models.Notification{
				UserID:  userID,
				Title:   "New exam assigned",
				Message: fmt.Sprintf("%q was assigned to your group %s", exam.Title, group.Name),
				Type:    "exam",
			})
		}
		s.notifier.Notify(notes...)
	}
	return added, nil
}
