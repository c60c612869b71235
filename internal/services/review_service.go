// Package services – ReviewService
//
// Reactions are set-valued: a (reviewer, target, label) tuple is present or
// absent, and Toggle flips it.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/repo"
	"github.com/tbourn/meet-eat-backend/internal/utils"
)

// ReviewSummary aggregates the reactions a user has received.
type ReviewSummary struct {
	Target domain.User
	// Counts has one entry per allowed reaction, in catalog order.
	Counts []repo.ReactionCount
	Recent []domain.Review
	// Mine lists the viewer's own reactions on Target; empty without a viewer.
	Mine []string
}

// ReviewService records and summarizes reactions.
type ReviewService struct {
	DB *gorm.DB
}

// Toggle flips reaction from reviewer onto the user with targetTgID and
// reports whether it is present afterwards. Both users are created on
// first sight.
func (s *ReviewService) Toggle(ctx context.Context, reviewer domain.User, targetTgID int64, reaction string) (bool, error) {
	if !domain.IsAllowedReaction(reaction) {
		return false, ErrInvalidReaction
	}
	if reviewer.TgID == 0 || targetTgID == 0 {
		return false, ErrUserNotFound
	}
	if reviewer.TgID == targetTgID {
		return false, ErrSelfReview
	}
	from, err := repo.EnsureUser(ctx, s.DB, reviewer)
	if err != nil {
		return false, err
	}
	to, err := repo.EnsureUser(ctx, s.DB, domain.User{TgID: targetTgID})
	if err != nil {
		return false, err
	}
	return repo.ToggleReview(ctx, s.DB, from.ID, to.ID, reaction)
}

// ReactFromInvite toggles reaction from the clicking user onto their
// partner on inviteID.
func (s *ReviewService) ReactFromInvite(ctx context.Context, inviteID uint64, reviewerTgID int64, reaction string) (bool, error) {
	if !domain.IsAllowedReaction(reaction) {
		return false, ErrInvalidReaction
	}
	u, err := repo.GetUserByTgID(ctx, s.DB, reviewerTgID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	inv, err := repo.GetInvite(ctx, s.DB, inviteID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, ErrInviteNotFound
		}
		return false, err
	}
	partner, ok := inv.Partner(u.ID)
	if !ok {
		return false, ErrUnauthorized
	}
	return repo.ToggleReview(ctx, s.DB, u.ID, partner.ID, reaction)
}

// Summary returns reaction counts, the newest limit reviews, and, when
// viewerTgID is known, the viewer's own reactions for targetTgID.
func (s *ReviewService) Summary(ctx context.Context, targetTgID, viewerTgID int64, limit int) (*ReviewSummary, error) {
	target, err := repo.GetUserByTgID(ctx, s.DB, targetTgID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	counts, err := repo.ReviewCounts(ctx, s.DB, target.ID)
	if err != nil {
		return nil, err
	}
	byLabel := make(map[string]int64, len(counts))
	for _, c := range counts {
		byLabel[c.Reaction] = c.Count
	}
	out := &ReviewSummary{Target: *target, Mine: []string{}}
	for _, r := range domain.AllowedReactions {
		out.Counts = append(out.Counts, repo.ReactionCount{Reaction: r, Count: byLabel[r]})
	}

	if out.Recent, err = repo.RecentReviews(ctx, s.DB, target.ID, utils.ClampLimit(limit, 10, 100)); err != nil {
		return nil, err
	}

	if viewerTgID != 0 && viewerTgID != targetTgID {
		viewer, err := repo.GetUserByTgID(ctx, s.DB, viewerTgID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
		case err != nil:
			return nil, err
		default:
			mine, err := repo.ViewerReactions(ctx, s.DB, viewer.ID, target.ID)
			if err != nil {
				return nil, err
			}
			out.Mine = mine
		}
	}
	return out, nil
}
