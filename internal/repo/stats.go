// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/domain"
)

// NotificationsStats returns aggregate metadata for a user's notification
// feed: total rows, unread rows, and the highest id. Notifications are
// append-only and only the read flag changes, so the triple identifies a
// feed version.
func NotificationsStats(ctx context.Context, db *gorm.DB, userID uint64) (count, unread int64, maxID uint64, err error) {
	q := db.WithContext(ctx).Model(&domain.Notification{}).Where("user_id = ?", userID)

	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, 0, 0, err
	}
	if count == 0 {
		return 0, 0, 0, nil
	}
	if err = q.Session(&gorm.Session{}).Where(map[string]any{"read": false}).Count(&unread).Error; err != nil {
		return 0, 0, 0, err
	}
	var row struct {
		ID uint64
	}
	if err = q.Session(&gorm.Session{}).Select("id").Order("id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, 0, err
	}
	return count, unread, row.ID, nil
}

// PendingInvitesStats returns aggregate metadata for the pending invites
// addressed to responderID: the number of rows and the greatest UpdatedAt.
// When there are none, count is 0 and maxUpdatedAt is nil.
func PendingInvitesStats(ctx context.Context, db *gorm.DB, responderID uint64) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Invite{}).
		Where("responder_id = ? AND status = ?", responderID, domain.InviteStatusPending)

	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
