// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - GetUser(ctx, db, id) -> *domain.User, error
//   - GetUserByTgID(ctx, db, tgID) -> *domain.User, error
//   - EnsureUser(ctx, db, profile) -> *domain.User, error
//     Returns the user for profile.TgID, inserting a row on first sight.
//     Blank display fields on an existing row are filled from profile.
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/meet-eat-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetUser fetches a user by primary key.
func GetUser(ctx context.Context, db *gorm.DB, id uint64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByTgID fetches a user by platform identity.
func GetUserByTgID(ctx context.Context, db *gorm.DB, tgID int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "tg_id = ?", tgID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// EnsureUser returns the user identified by profile.TgID, creating it when
// missing. Concurrent callers converge on the same row through the unique
// tg_id index.
func EnsureUser(ctx context.Context, db *gorm.DB, profile domain.User) (*domain.User, error) {
	now := time.Now().UTC()
	rec := &domain.User{
		TgID:      profile.TgID,
		Name:      strings.TrimSpace(profile.Name),
		Username:  strings.TrimPrefix(strings.TrimSpace(profile.Username), "@"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tg_id"}}, DoNothing: true}).
		Create(rec).Error
	if err != nil {
		return nil, err
	}

	u, err := GetUserByTgID(ctx, db, profile.TgID)
	if err != nil {
		return nil, err
	}

	fill := map[string]any{}
	if u.Name == "" && rec.Name != "" {
		fill["name"] = rec.Name
	}
	if u.Username == "" && rec.Username != "" {
		fill["username"] = rec.Username
	}
	if len(fill) > 0 {
		fill["updated_at"] = now
		if err := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", u.ID).Updates(fill).Error; err != nil {
			return nil, err
		}
		if v, ok := fill["name"].(string); ok {
			u.Name = v
		}
		if v, ok := fill["username"].(string); ok {
			u.Username = v
		}
		u.UpdatedAt = now
	}
	return u, nil
}
