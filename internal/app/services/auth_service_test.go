package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/pkg/apperrors"
	"github.com/yigit/examhub/internal/pkg/auth"
	"github.com/yigit/examhub/internal/pkg/captcha"
)

// fakeUserStore keeps users in memory
type fakeUserStore struct {
	nextID  int64
	users   map[int64]*models.User
	roles   []models.RoleCount
	monthly []models.MonthlyCount
	since   time.Time
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*models.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *models.User) (int64, error) {
	for _, u := range f.users {
		if u.Email == user.Email {
			return 0, apperrors.ErrEmailAlreadyExists
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = fixedNow
	cp := *user
	f.users[user.ID] = &cp
	return user.ID, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetUserByEmailAndRole(_ context.Context, email string, role models.Role) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.Role == role {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) ListUsers(_ context.Context, filter models.UserFilter) ([]*models.User, int64, error) {
	var out []*models.User
	for _, u := range f.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, id int64, upd models.UserUpdate) error {
	u, ok := f.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Phone != nil {
		u.Phone = upd.Phone
	}
	return nil
}

func (f *fakeUserStore) UpdateStatus(_ context.Context, id int64, status models.UserStatus) error {
	u, ok := f.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Status = status
	return nil
}

func (f *fakeUserStore) UpdateRole(_ context.Context, id int64, role models.Role) error {
	u, ok := f.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Password = hash
	return nil
}

func (f *fakeUserStore) CountByRole(_ context.Context) ([]models.RoleCount, error) {
	return f.roles, nil
}

func (f *fakeUserStore) MonthlyRegistrations(_ context.Context, since time.Time) ([]models.MonthlyCount, error) {
	f.since = since
	return f.monthly, nil
}

// fakeCaptcha accepts a single known answer once
type fakeCaptcha struct {
	answers map[string]string
}

func (c *fakeCaptcha) Generate(_ context.Context) (*captcha.Challenge, error) {
	c.answers["cid"] = "ABC123"
	return &captcha.Challenge{ID: "cid", Text: "ABC123", ExpiresIn: 300}, nil
}

func (c *fakeCaptcha) Verify(_ context.Context, id, answer string) error {
	if id == "" || answer == "" {
		return apperrors.ErrCaptchaRequired
	}
	want, ok := c.answers[id]
	if !ok || !strings.EqualFold(want, answer) {
		return apperrors.ErrCaptchaInvalid
	}
	delete(c.answers, id)
	return nil
}

func newTestAuthService(captchaRequired bool) (*AuthService, *fakeUserStore, *fakeCaptcha) {
	users := newFakeUserStore()
	captchas := &fakeCaptcha{answers: make(map[string]string)}
	jwt := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "examhub"})
	return NewAuthService(users, jwt, captchas, captchaRequired, testLogger), users, captchas
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users, _ := newTestAuthService(false)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{
		Name:     "Ada Lovelace",
		Email:    " Ada@Example.edu ",
		Password: "secret123",
		Role:     models.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.Token == "" || resp.TokenType != "Bearer" || resp.ExpiresIn != 3600 {
		t.Errorf("unexpected token response %+v", resp)
	}
	stored := users.users[resp.User.ID]
	if stored.Email != "ada@example.edu" {
		t.Errorf("email not normalised: %q", stored.Email)
	}
	if stored.Password == "secret123" || !auth.CheckPassword(stored.Password, "secret123") {
		t.Error("password not hashed with bcrypt")
	}
	if stored.PhotoURL == nil || *stored.PhotoURL != AvatarURL("Ada Lovelace") {
		t.Errorf("avatar = %v", stored.PhotoURL)
	}

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.edu", Password: "secret123", Role: models.RoleStudent})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != resp.User.ID {
		t.Errorf("login user = %d, want %d", login.User.ID, resp.User.ID)
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.edu", Password: "wrong", Role: models.RoleStudent}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("bad password: want invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.edu", Password: "secret123", Role: models.RoleTeacher}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("wrong role: want invalid credentials, got %v", err)
	}

	stored.Status = models.UserStatusBlocked
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.edu", Password: "secret123", Role: models.RoleStudent}); !errors.Is(err, apperrors.ErrAccountBlocked) {
		t.Errorf("blocked account: want account blocked, got %v", err)
	}
}

func TestRegisterRejections(t *testing.T) {
	svc, _, _ := newTestAuthService(false)
	ctx := context.Background()

	base := dto.RegisterRequest{Name: "Grace Hopper", Email: "grace@example.edu", Password: "secret123", Role: models.RoleTeacher}
	if _, err := svc.Register(ctx, &base); err != nil {
		t.Fatalf("Register: %v", err)
	}

	dup := base
	dup.Email = "GRACE@example.edu"
	if _, err := svc.Register(ctx, &dup); !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
		t.Errorf("duplicate email: want conflict, got %v", err)
	}

	adminReq := base
	adminReq.Email = "root@example.edu"
	adminReq.Role = models.RoleAdmin
	if _, err := svc.Register(ctx, &adminReq); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("admin self-registration: want forbidden, got %v", err)
	}
}

func TestCaptchaEnforcement(t *testing.T) {
	svc, _, _ := newTestAuthService(true)
	ctx := context.Background()
	req := dto.RegisterRequest{Name: "Alan Turing", Email: "alan@example.edu", Password: "secret123", Role: models.RoleStudent}

	if _, err := svc.Register(ctx, &req); !errors.Is(err, apperrors.ErrCaptchaRequired) {
		t.Fatalf("missing captcha: want captcha required, got %v", err)
	}

	challenge, err := svc.Captcha(ctx)
	if err != nil {
		t.Fatalf("Captcha: %v", err)
	}
	req.CaptchaID = challenge.CaptchaID
	req.CaptchaAnswer = "wrong"
	if _, err := svc.Register(ctx, &req); !errors.Is(err, apperrors.ErrCaptchaInvalid) {
		t.Fatalf("wrong answer: want captcha invalid, got %v", err)
	}

	req.CaptchaAnswer = strings.ToLower(challenge.Challenge)
	if _, err := svc.Register(ctx, &req); err != nil {
		t.Fatalf("solved captcha rejected: %v", err)
	}

	login := dto.LoginRequest{Email: req.Email, Password: req.Password, Role: req.Role, CaptchaID: challenge.CaptchaID, CaptchaAnswer: challenge.Challenge}
	if _, err := svc.Login(ctx, &login); !errors.Is(err, apperrors.ErrCaptchaInvalid) {
		t.Errorf("replayed captcha: want captcha invalid, got %v", err)
	}
}

func TestAvatarURLEscapesName(t *testing.T) {
	got := AvatarURL("  Ada Lovelace ")
	want := "https://ui-avatars.com/api/?name=Ada+Lovelace&background=e0e7ff&color=4338ca"
	if got != want {
		t.Errorf("AvatarURL = %q, want %q", got, want)
	}
}
