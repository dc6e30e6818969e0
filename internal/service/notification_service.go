package service

import (
	"context"
	"time"

	"tether/internal/models"
	"tether/internal/repository"
)

// NotificationService is the recipient's view of the notification mailbox.
type NotificationService struct {
	notifications repository.NotificationRepository
	now           func() time.Time
}

func NewNotificationService(notifications repository.NotificationRepository) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *NotificationService) ListNotifications(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	return s.notifications.ListForUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.UnreadCount(ctx, userID)
}

// MarkRead marks one notification read. Notifications of other users are
// reported as missing.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	ok, err := s.notifications.MarkRead(ctx, userID, id, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}

// MarkAllRead marks every unread notification of the user read and returns
// how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID, s.now())
}
