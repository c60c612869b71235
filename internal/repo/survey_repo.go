// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// SurveyResponse model.
//
// Error semantics:
//   - A second answer for the same (invite_id, user_id) pair violates the
//     unique index and is reported as ErrDuplicate. Rows are never
//     overwritten.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/domain"
)

// CreateSurveyResponse records userID's answer for inviteID.
func CreateSurveyResponse(ctx context.Context, db *gorm.DB, inviteID, userID uint64, answer string) (*domain.SurveyResponse, error) {
	sr := &domain.SurveyResponse{
		InviteID:  inviteID,
		UserID:    userID,
		Answer:    answer,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Omit("Invite").Create(sr).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return sr, nil
}

// ListSurveyResponses returns all answers recorded for inviteID, oldest first.
func ListSurveyResponses(ctx context.Context, db *gorm.DB, inviteID uint64) ([]domain.SurveyResponse, error) {
	var out []domain.SurveyResponse
	err := db.WithContext(ctx).
		Where("invite_id = ?", inviteID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
