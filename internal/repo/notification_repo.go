// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Notification model: an append-only, per-user event log whose only mutable
// column is read.
//
// Functions:
//
//   - CreateNotification(ctx, db, userID, typ, payload) -> *domain.Notification, error
//   - ListNotifications(ctx, db, userID, sinceID, limit, includeRead) -> []domain.Notification, error
//     Newest first; only rows with id > sinceID.
//   - MarkNotificationRead(ctx, db, userID, id) -> error
//     ErrNotFound when the row does not exist or belongs to someone else.
package repo

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/domain"
)

// CreateNotification appends a notification for userID. payload must be a
// JSON document (or nil).
func CreateNotification(ctx context.Context, db *gorm.DB, userID uint64, typ string, payload []byte) (*domain.Notification, error) {
	n := &domain.Notification{
		UserID:    userID,
		Type:      typ,
		Payload:   datatypes.JSON(payload),
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotifications returns notifications for userID with id > sinceID,
// ordered by id descending. Read rows are skipped unless includeRead.
func ListNotifications(ctx context.Context, db *gorm.DB, userID, sinceID uint64, limit int, includeRead bool) ([]domain.Notification, error) {
	var out []domain.Notification
	q := db.WithContext(ctx).
		Where("user_id = ? AND id > ?", userID, sinceID)
	if !includeRead {
		q = q.Where(map[string]any{"read": false}) // map form quotes the column for MySQL
	}
	q = q.Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// MarkNotificationRead sets read=true on a notification owned by userID.
// Marking an already-read notification is a no-op success.
func MarkNotificationRead(ctx context.Context, db *gorm.DB, userID, id uint64) error {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// Some drivers report only changed rows; distinguish "already read".
	var n int64
	if err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
