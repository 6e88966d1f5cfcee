package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/pkg/apperrors"
)

// fakeGroupStore shares its membership map with a fakeExamStore
type fakeGroupStore struct {
	nextID  int64
	groups  map[int64]*models.Group
	members map[int64][]int64
}

func newFakeGroupStore(members map[int64][]int64) *fakeGroupStore {
	return &fakeGroupStore{groups: make(map[int64]*models.Group), members: members}
}

func (f *fakeGroupStore) CreateGroup(_ context.Context, group *models.Group) error {
	f.nextID++
	group.ID = f.nextID
	cp := *group
	f.groups[group.ID] = &cp
	return nil
}

func (f *fakeGroupStore) GetGroupByID(_ context.Context, id int64) (*models.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("Group not found")
	}
	cp := *g
	cp.MemberCount = len(f.members[id])
	return &cp, nil
}

func (f *fakeGroupStore) ListGroups(_ context.Context) ([]*models.Group, error) {
	out := make([]*models.Group, 0, len(f.groups))
	for _, g := range f.groups {
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeGroupStore) ListMembers(_ context.Context, groupID int64) ([]models.GroupMember, error) {
	out := make([]models.GroupMember, 0)
	for _, id := range f.members[groupID] {
		out = append(out, models.GroupMember{UserID: id})
	}
	return out, nil
}

func (f *fakeGroupStore) MemberIDs(_ context.Context, _ pgx.Tx, groupID int64) ([]int64, error) {
	return append([]int64(nil), f.members[groupID]...), nil
}

func (f *fakeGroupStore) AddMembers(_ context.Context, groupID int64, userIDs []int64) (int, error) {
	added := 0
	for _, id := range userIDs {
		exists := false
		for _, m := range f.members[groupID] {
			if m == id {
				exists = true
			}
		}
		if !exists {
			f.members[groupID] = append(f.members[groupID], id)
			added++
		}
	}
	return added, nil
}

func newTestGroupService() (*GroupService, *fakeGroupStore, *fakeExamStore, *syncNotifier) {
	exams := newFakeExamStore()
	groups := newFakeGroupStore(exams.members)
	notifier := &syncNotifier{}
	return NewGroupService(groups, exams, &fakeTx{}, notifier, testLogger), groups, exams, notifier
}

func TestCreateGroupAndAddMembers(t *testing.T) {
	svc, _, _, _ := newTestGroupService()
	ctx := context.Background()
	desc := "  morning section  "

	group, err := svc.CreateGroup(ctx, teacher, &dto.CreateGroupRequest{Name: " CS 2024 ", Description: &desc})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if group.Name != "CS 2024" || group.Description == nil || *group.Description != "morning section" || group.CreatedBy != teacher.ID {
		t.Errorf("unexpected group %+v", group)
	}

	added, err := svc.AddMembers(ctx, group.ID, []int64{10, 11, 10})
	if err != nil {
		t.Fatalf("AddMembers: %v", err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}
	added, err = svc.AddMembers(ctx, group.ID, []int64{11, 12})
	if err != nil {
		t.Fatalf("AddMembers again: %v", err)
	}
	if added != 1 {
		t.Errorf("second add = %d, want 1", added)
	}

	members, err := svc.ListMembers(ctx, group.ID)
	if err != nil || len(members) != 3 {
		t.Errorf("members = %d (%v), want 3", len(members), err)
	}

	if _, err := svc.AddMembers(ctx, 404, []int64{1}); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("missing group: want not found, got %v", err)
	}
}

func TestAssignExamToGroup(t *testing.T) {
	svc, _, exams, notifier := newTestGroupService()
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, teacher, &dto.CreateGroupRequest{Name: "Batch A"})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if _, err := svc.AddMembers(ctx, group.ID, []int64{20, 21}); err != nil {
		t.Fatalf("AddMembers: %v", err)
	}
	exam := exams.add(models.Exam{Title: "Final", StartTime: wall("2024-05-20T09:00"), EndTime: wall("2024-05-20T11:00"), Status: models.ExamStatusScheduled})

	added, err := svc.AssignExam(ctx, group.ID, exam.ID)
	if err != nil {
		t.Fatalf("AssignExam: %v", err)
	}
	if added != 2 {
		t.Errorf("candidates added = %d, want 2", added)
	}
	for _, id := range []int64{20, 21} {
		c := exams.candidates[candidateKey{exam.ID, id}]
		if c == nil || !c.Assigned {
			t.Errorf("student %d not assigned: %+v", id, c)
		}
	}
	if len(exams.groups[exam.ID]) != 1 {
		t.Errorf("exam groups = %v, want one link", exams.groups[exam.ID])
	}
	if notifier.count() != 2 {
		t.Errorf("notifications = %d, want 2", notifier.count())
	}

	again, err := svc.AssignExam(ctx, group.ID, exam.ID)
	if err != nil {
		t.Fatalf("repeat AssignExam: %v", err)
	}
	if again != 0 || len(exams.groups[exam.ID]) != 1 {
		t.Errorf("repeat assignment added %d candidates, links %v", again, exams.groups[exam.ID])
	}

	if _, err := svc.AssignExam(ctx, group.ID, 404); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("missing exam: want not found, got %v", err)
	}
}
