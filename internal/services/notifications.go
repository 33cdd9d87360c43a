package services

import (
	"context"
	"fmt"

	"github.com/anonto42/usf-event/backend/internal/models"
	"github.com/anonto42/usf-event/backend/internal/repositories"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 50
)

type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Unread        int64                 `json:"unread"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

type NotificationService struct {
	notifications repositories.NotificationRepository
}

func NewNotificationService(notifications repositories.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List pages through the viewer's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, viewer Viewer, page, limit int) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxNotificationLimit {
		limit = defaultNotificationLimit
	}
	result := &NotificationPage{Notifications: []models.Notification{}, Page: page, Limit: limit}
	if !viewer.HasProfile() {
		return result, nil
	}

	items, total, err := s.notifications.GetByRecipientID(ctx, viewer.Profile.ID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	unread, err := s.notifications.GetUnreadCount(ctx, viewer.Profile.ID)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}
	result.Notifications = items
	result.Total = total
	result.Unread = unread
	return result, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, viewer Viewer) error {
	if !viewer.HasProfile() {
		return nil
	}
	return s.notifications.MarkAllAsRead(ctx, viewer.Profile.ID)
}
