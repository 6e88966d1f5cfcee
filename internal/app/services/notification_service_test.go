package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yigit/examhub/internal/app/models"
)

type fakeNotificationStore struct {
	created chan []models.Notification
	fail    error
}

func (f *fakeNotificationStore) CreateNotifications(_ context.Context, notifications []models.Notification) error {
	f.created <- notifications
	return f.fail
}

func (f *fakeNotificationStore) ListUnread(_ context.Context, _ int64) ([]models.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, _, _ int64) error { return nil }

func (f *fakeNotificationStore) MarkAllRead(_ context.Context, _ int64) (int64, error) { return 0, nil }

func TestNotifyStoresInBackground(t *testing.T) {
	store := &fakeNotificationStore{created: make(chan []models.Notification, 1)}
	svc := NewNotificationService(store, testLogger)

	svc.Notify(models.Notification{UserID: 1, Title: "a"}, models.Notification{UserID: 2, Title: "b"})

	select {
	case got := <-store.created:
		if len(got) != 2 {
			t.Errorf("stored %d notifications, want 2", len(got))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notifications were not stored")
	}
}

func TestNotifyIgnoresFailuresAndEmptyBatches(t *testing.T) {
	store := &fakeNotificationStore{created: make(chan []models.Notification, 1), fail: errors.New("db down")}
	svc := NewNotificationService(store, testLogger)

	svc.Notify()
	select {
	case <-store.created:
		t.Fatal("empty batch reached the store")
	case <-time.After(50 * time.Millisecond):
	}

	svc.Notify(models.Notification{UserID: 1})
	select {
	case <-store.created:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not attempted")
	}
}
