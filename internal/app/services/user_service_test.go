package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/pkg/apperrors"
	"github.com/yigit/examhub/internal/pkg/auth"
)

func newTestUserService() (*userServiceImpl, *fakeUserStore) {
	users := newFakeUserStore()
	svc := NewUserService(users, testLogger).(*userServiceImpl)
	svc.now = nowFunc
	return svc, users
}

func seedUser(t *testing.T, store *fakeUserStore, name, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u := &models.User{Name: name, Email: name + "@example.edu", Password: hash, Role: role, Status: models.UserStatusActive}
	if _, err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestFillMonths(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := fillMonths(since, 5, []models.MonthlyCount{
		{Month: "2024-02", Count: 4},
		{Month: "2024-05", Count: 1},
	})

	want := []models.MonthlyCount{
		{Month: "2024-01", Count: 0},
		{Month: "2024-02", Count: 4},
		{Month: "2024-03", Count: 0},
		{Month: "2024-04", Count: 0},
		{Month: "2024-05", Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("fillMonths = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("month %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStats(t *testing.T) {
	svc, users := newTestUserService()
	users.roles = []models.RoleCount{{Role: models.RoleStudent, Count: 12}, {Role: models.RoleTeacher, Count: 3}, {Role: models.RoleAdmin, Count: 1}}
	users.monthly = []models.MonthlyCount{{Month: "2024-05", Count: 6}}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 16 {
		t.Errorf("total = %d, want 16", stats.Total)
	}
	if !users.since.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("trend starts at %v, want 2024-01-01", users.since)
	}
	if len(stats.MonthlyTrend) != 5 || stats.MonthlyTrend[4].Count != 6 {
		t.Errorf("trend = %+v", stats.MonthlyTrend)
	}
}

func TestUpdateProfilePermissions(t *testing.T) {
	svc, users := newTestUserService()
	u := seedUser(t, users, "ada", "secret123", models.RoleStudent)
	other := models.Principal{ID: u.ID + 100, Role: models.RoleStudent}
	self := models.Principal{ID: u.ID, Role: models.RoleStudent}
	name := "Ada L."

	if _, err := svc.UpdateProfile(context.Background(), other, u.ID, &dto.UpdateUserRequest{Name: &name}); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("other user: want forbidden, got %v", err)
	}
	if _, err := svc.UpdateProfile(context.Background(), self, u.ID, &dto.UpdateUserRequest{}); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("empty update: want bad request, got %v", err)
	}

	resp, err := svc.UpdateProfile(context.Background(), self, u.ID, &dto.UpdateUserRequest{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if resp.Name != name {
		t.Errorf("name = %q, want %q", resp.Name, name)
	}

	phone := "555-0100"
	if _, err := svc.UpdateProfile(context.Background(), admin, u.ID, &dto.UpdateUserRequest{Phone: &phone}); err != nil {
		t.Errorf("admin update: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, users := newTestUserService()
	u := seedUser(t, users, "grace", "secret123", models.RoleTeacher)
	self := models.Principal{ID: u.ID, Role: models.RoleTeacher}
	ctx := context.Background()
	if admin.ID == u.ID {
		t.Fatalf("admin principal shares ID %d with the account under test", u.ID)
	}

	err := svc.ChangePassword(ctx, self, u.ID, &dto.ChangePasswordRequest{OldPassword: "nope", NewPassword: "newsecret"})
	if !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("wrong old password: want invalid credentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, admin, u.ID, &dto.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret"}); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("admin changing another password: want forbidden, got %v", err)
	}
	if err := svc.ChangePassword(ctx, self, u.ID, &dto.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if !auth.CheckPassword(users.users[u.ID].Password, "newsecret") {
		t.Error("new password not stored")
	}

	if err := svc.ResetPassword(ctx, u.ID, "resetpass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if !auth.CheckPassword(users.users[u.ID].Password, "resetpass") {
		t.Error("reset password not stored")
	}
}

func TestUpdateStatusAndRoleValidation(t *testing.T) {
	svc, users := newTestUserService()
	u := seedUser(t, users, "alan", "secret123", models.RoleStudent)
	ctx := context.Background()

	if err := svc.UpdateStatus(ctx, u.ID, "Sleeping"); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("unknown status: want bad request, got %v", err)
	}
	if err := svc.UpdateStatus(ctx, u.ID, models.UserStatusBlocked); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if users.users[u.ID].Status != models.UserStatusBlocked {
		t.Errorf("status = %s, want Blocked", users.users[u.ID].Status)
	}

	if err := svc.UpdateRole(ctx, u.ID, "superuser"); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("unknown role: want bad request, got %v", err)
	}
	if err := svc.UpdateRole(ctx, u.ID, models.RoleTeacher); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if err := svc.UpdateRole(ctx, 999, models.RoleTeacher); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("missing user: want not found, got %v", err)
	}
}
