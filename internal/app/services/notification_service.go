package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models"
)

const notifyTimeout = 5 * time.Second

// NotificationStore is the persistence needed by NotificationService
type NotificationStore interface {
	CreateNotifications(ctx context.Context, notifications []models.Notification) error
	ListUnread(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

// Notifier delivers notifications without blocking the caller
type Notifier interface {
	Notify(notifications ...models.Notification)
}

// NotificationService handles user notifications
type NotificationService struct {
	store  NotificationStore
	logger zerolog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(store NotificationStore, logger zerolog.Logger) *NotificationService {
	return &NotificationService{store: store, logger: logger}
}

// Notify stores notifications in the background. Failures are logged only.
func (s *NotificationService) Notify(notifications ...models.Notification) {
	if len(notifications) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.store.CreateNotifications(ctx, notifications); err != nil {
			s.logger.Warn().Err(err).Int("count", len(notifications)).Msg("Failed to deliver notifications")
		}
	}()
}

// ListUnread returns the caller's latest unread notifications
func (s *NotificationService) ListUnread(ctx context.Context, userID int64) ([]models.Notification, error) {
	return s.store.ListUnread(ctx, userID)
}

// MarkRead marks one notification of the caller read
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	return s.store.MarkRead(ctx, id, userID)
}

// MarkAllRead marks every notification of the caller read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}
