// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Invite
// model, including the two conditional updates the invite lifecycle relies
// on for coordination:
//
//   - ResolveInvite moves an invite out of pending. Its WHERE clause carries
//     status = 'pending', so of two racing responders only one observes an
//     affected row.
//   - ClaimSurvey flips survey_dispatched from false to true. Its WHERE clause
//     carries survey_dispatched = false, so of N concurrent dispatchers only
//     one observes an affected row and owns the delivery.
//
// Neither function reads before writing; the affected-row count is the
// answer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/meet-eat-backend/internal/domain"
)

// CreateInvite inserts inv as a pending invite. Associations are not saved.
func CreateInvite(ctx context.Context, db *gorm.DB, inv *domain.Invite) error {
	now := time.Now().UTC()
	inv.Status = domain.InviteStatusPending
	inv.SurveyDispatched = false
	inv.RespondedAt = nil
	inv.ResponderIdentityID = nil
	if inv.MeetingTime != nil {
		t := inv.MeetingTime.UTC()
		inv.MeetingTime = &t
	}
	inv.CreatedAt, inv.UpdatedAt = now, now
	return db.WithContext(ctx).Omit(clause.Associations).Create(inv).Error
}

// GetInvite loads an invite with both parties preloaded.
func GetInvite(ctx context.Context, db *gorm.DB, id uint64) (*domain.Invite, error) {
	var inv domain.Invite
	err := db.WithContext(ctx).
		Preload("Initiator").
		Preload("Responder").
		First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListPendingInvitesFor returns pending invites addressed to responderID,
// newest first.
func ListPendingInvitesFor(ctx context.Context, db *gorm.DB, responderID uint64, limit int) ([]domain.Invite, error) {
	var out []domain.Invite
	q := db.WithContext(ctx).
		Preload("Initiator").
		Where("responder_id = ? AND status = ?", responderID, domain.InviteStatusPending).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// ResolveInvite transitions a pending invite to status, recording who
// answered and when. It reports false when the invite was no longer pending
// (or does not exist) at the time of the update.
func ResolveInvite(ctx context.Context, db *gorm.DB, id uint64, status string, responderID uint64, at time.Time) (bool, error) {
	at = at.UTC()
	res := db.WithContext(ctx).
		Model(&domain.Invite{}).
		Where("id = ? AND status = ?", id, domain.InviteStatusPending).
		Updates(map[string]any{
			"status":                status,
			"responder_identity_id": responderID,
			"responded_at":          at,
			"updated_at":            at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListSurveyCandidates returns accepted invites whose survey has not been
// dispatched and that were answered at or before cutoff, oldest answer
// first. Both parties are preloaded.
func ListSurveyCandidates(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]domain.Invite, error) {
	var out []domain.Invite
	q := db.WithContext(ctx).
		Preload("Initiator").
		Preload("Responder").
		Where("status = ? AND survey_dispatched = ? AND responded_at IS NOT NULL AND responded_at <= ?",
			domain.InviteStatusAccepted, false, cutoff.UTC()).
		Order("responded_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// ClaimSurvey atomically marks the invite's survey as dispatched. It returns
// true only for the single caller whose update changed the row.
func ClaimSurvey(ctx context.Context, db *gorm.DB, id uint64) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Invite{}).
		Where("id = ? AND status = ? AND survey_dispatched = ?", id, domain.InviteStatusAccepted, false).
		Updates(map[string]any{
			"survey_dispatched": true,
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
