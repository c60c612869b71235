// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Review
// model. A (reviewer, target, reaction) tuple is either present or absent;
// ToggleReview flips it.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/domain"
)

// ReactionCount is one row of ReviewCounts.
type ReactionCount struct {
	Reaction string
	Count    int64
}

// ToggleReview removes the tuple if present, otherwise inserts it. It
// reports whether the reaction is present afterwards.
func ToggleReview(ctx context.Context, db *gorm.DB, reviewerID, targetID uint64, reaction string) (bool, error) {
	var added bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("reviewer_id = ? AND target_user_id = ? AND reaction = ?", reviewerID, targetID, reaction).
			Delete(&domain.Review{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected > 0 {
			added = false
			return nil
		}
		rv := &domain.Review{
			ReviewerID:   reviewerID,
			TargetUserID: targetID,
			Reaction:     reaction,
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.Omit("Reviewer", "Target").Create(rv).Error; err != nil {
			// A concurrent toggle inserted the same tuple first.
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
				added = true
				return nil
			}
			return err
		}
		added = true
		return nil
	})
	return added, err
}

// ReviewCounts returns how many reviewers attached each reaction to targetID.
func ReviewCounts(ctx context.Context, db *gorm.DB, targetID uint64) ([]ReactionCount, error) {
	var out []ReactionCount
	err := db.WithContext(ctx).
		Model(&domain.Review{}).
		Select("reaction, COUNT(*) AS count").
		Where("target_user_id = ?", targetID).
		Group("reaction").
		Order("count DESC, reaction ASC").
		Scan(&out).Error
	return out, err
}

// RecentReviews returns the newest reviews of targetID with the reviewer
// preloaded.
func RecentReviews(ctx context.Context, db *gorm.DB, targetID uint64, limit int) ([]domain.Review, error) {
	var out []domain.Review
	q := db.WithContext(ctx).
		Preload("Reviewer").
		Where("target_user_id = ?", targetID).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// ViewerReactions returns the reactions reviewerID currently has on targetID.
func ViewerReactions(ctx context.Context, db *gorm.DB, reviewerID, targetID uint64) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("reviewer_id = ? AND target_user_id = ?", reviewerID, targetID).
		Order("reaction ASC").
		Pluck("reaction", &out).Error
	return out, err
}
