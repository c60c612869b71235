// Package services – NotificationService
//
// The notification feed is read-only to clients apart from the read flag.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/repo"
	"github.com/tbourn/meet-eat-backend/internal/utils"
)

// NotificationService lists and acknowledges a user's notifications.
type NotificationService struct {
	DB *gorm.DB
}

// List returns tgID's notifications newer than sinceID, newest first.
// limit defaults to 50 and is capped at 200. An unknown identity has an
// empty feed.
func (s *NotificationService) List(ctx context.Context, tgID int64, sinceID uint64, limit int, includeRead bool) ([]domain.Notification, error) {
	u, err := repo.GetUserByTgID(ctx, s.DB, tgID)
	if errors.Is(err, repo.ErrNotFound) {
		return []domain.Notification{}, nil
	}
	if err != nil {
		return nil, err
	}
	return repo.ListNotifications(ctx, s.DB, u.ID, sinceID, utils.ClampLimit(limit, 50, 200), includeRead)
}

// MarkRead flags notification id as read for tgID.
func (s *NotificationService) MarkRead(ctx context.Context, tgID int64, id uint64) error {
	u, err := repo.GetUserByTgID(ctx, s.DB, tgID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return err
	}
	if err := repo.MarkNotificationRead(ctx, s.DB, u.ID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

// Stats returns the feed size, unread count and highest id for tgID.
func (s *NotificationService) Stats(ctx context.Context, tgID int64) (count, unread int64, maxID uint64, err error) {
	u, err := repo.GetUserByTgID(ctx, s.DB, tgID)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, 0, 0, nil
	}
	if err != nil {
		return 0, 0, 0, err
	}
	return repo.NotificationsStats(ctx, s.DB, u.ID)
}
