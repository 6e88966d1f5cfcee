package captcha

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yigit/examhub/internal/pkg/apperrors"
)

func TestGenerateAndVerify(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, time.Minute, 6)
	ctx := context.Background()

	ch, err := svc.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(ch.Text) != 6 || ch.ExpiresIn != 60 || ch.ID == "" {
		t.Fatalf("unexpected challenge %+v", ch)
	}
	for _, r := range ch.Text {
		if !strings.ContainsRune(alphabet, r) {
			t.Errorf("character %q outside alphabet", r)
		}
	}

	if err := svc.Verify(ctx, ch.ID, "nope"); !errors.Is(err, apperrors.ErrCaptchaInvalid) {
		t.Errorf("wrong answer: want ErrCaptchaInvalid, got %v", err)
	}
	if err := svc.Verify(ctx, ch.ID, strings.ToLower(ch.Text)); err != nil {
		t.Errorf("correct answer rejected: %v", err)
	}
	if err := svc.Verify(ctx, ch.ID, ch.Text); !errors.Is(err, apperrors.ErrCaptchaInvalid) {
		t.Errorf("replayed answer: want ErrCaptchaInvalid, got %v", err)
	}
}

func TestVerifyRequiresInput(t *testing.T) {
	svc := NewService(NewMemoryStore(), time.Minute, 4)
	if err := svc.Verify(context.Background(), "", "ABCD"); !errors.Is(err, apperrors.ErrCaptchaRequired) {
		t.Errorf("want ErrCaptchaRequired, got %v", err)
	}
}

func TestDeterministicText(t *testing.T) {
	svc := NewService(NewMemoryStore(), time.Minute, 4)
	svc.random = bytes.NewReader([]byte{0, 1, 2, byte(len(alphabet))})

	ch, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ch.Text != "2342" {
		t.Errorf("text = %s, want 2342", ch.Text)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Set(ctx, "a", "XYZ", time.Minute); err != nil {
		t.Fatal(err)
	}
	if got, err := store.Get(ctx, "a"); err != nil || got != "XYZ" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	now = now.Add(time.Minute)
	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired entry: want ErrNotFound, got %v", err)
	}

	store.Set(ctx, "b", "1", time.Second)
	now = now.Add(2 * time.Second)
	store.Set(ctx, "c", "2", time.Minute)
	if store.Len() != 1 {
		t.Errorf("expired entries should be swept on Set, have %d", store.Len())
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	store := NewRedisStore(client)
	ctx := context.Background()

	if err := store.Set(ctx, "test-id", "ABC", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := store.Get(ctx, "test-id"); err != nil || got != "ABC" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if err := store.Delete(ctx, "test-id"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "test-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound after delete, got %v", err)
	}
}
