// Package services – SurveyService
//
// RecordAnswer stores a party's yes/no answer to the post-meal survey. Each
// (invite, user) pair answers at most once; the unique index, not a prior
// read, enforces that.
package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/render"
	"github.com/tbourn/meet-eat-backend/internal/repo"
	"github.com/tbourn/meet-eat-backend/internal/telegram"
)

// Actions returned by RecordAnswer so callers can drive UI state.
const (
	SurveyActionAskReview = "ask_review"
	SurveyActionNoted     = "noted"
)

// SurveyService records survey answers.
type SurveyService struct {
	DB     *gorm.DB
	Render *render.Renderer
	Outbox *Outbox
}

// RecordAnswer stores answer for (inviteID, tgID) and returns the follow-up
// action. A "yes" asks the answering user to react to their partner; a
// "no" is acknowledged neutrally. The partner is never messaged.
func (s *SurveyService) RecordAnswer(ctx context.Context, inviteID uint64, tgID int64, answer string) (string, error) {
	ctx, span := otel.Tracer("services/SurveyService").Start(ctx, "RecordAnswer",
		trace.WithAttributes(
			attribute.Int64("invite.id", int64(inviteID)),
			attribute.Int64("user.tg_id", tgID),
		),
	)
	defer span.End()

	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != domain.SurveyAnswerYes && answer != domain.SurveyAnswerNo {
		return "", ErrInvalidAnswer
	}

	u, err := repo.GetUserByTgID(ctx, s.DB, tgID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	inv, err := repo.GetInvite(ctx, s.DB, inviteID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrInviteNotFound
		}
		return "", err
	}
	partner, ok := inv.Partner(u.ID)
	if !ok {
		return "", ErrUnauthorized
	}

	if _, err := repo.CreateSurveyResponse(ctx, s.DB, inv.ID, u.ID, answer); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return "", ErrDuplicateAnswer
		}
		return "", err
	}

	if answer == domain.SurveyAnswerNo {
		text := s.Render.SurveyNegative()
		s.Outbox.record(ctx, s.DB, u.ID, domain.NotificationSurveyNegative, map[string]any{
			"invite_id": inv.ID,
			"message":   text,
		})
		s.Outbox.send(ctx, "survey.negative", telegram.Message{ChatID: u.TgID, Text: text})
		return SurveyActionNoted, nil
	}

	prompt := s.Render.SurveyFollowup(partner)
	s.Outbox.record(ctx, s.DB, u.ID, domain.NotificationSurveyFollowup, map[string]any{
		"invite_id":    inv.ID,
		"partner_name": s.Render.Display(partner),
		"partner_tg":   partner.TgID,
		"place_name":   inv.VenueName,
		"prompt":       prompt,
		"reactions":    domain.AllowedReactions,
	})
	s.Outbox.send(ctx, "survey.followup", telegram.Message{
		ChatID: u.TgID,
		Text:   prompt,
		Markup: reactionKeyboard(inv.ID),
	})
	return SurveyActionAskReview, nil
}

// reactionKeyboard lists every allowed reaction, one per row.
func reactionKeyboard(inviteID uint64) *telegram.InlineKeyboardMarkup {
	prefix := "review:" + strconv.FormatUint(inviteID, 10) + ":"
	rows := make([][]telegram.InlineKeyboardButton, 0, len(domain.AllowedReactions))
	for _, r := range domain.AllowedReactions {
		rows = append(rows, []telegram.InlineKeyboardButton{telegram.CallbackButton(r, prefix+r)})
	}
	return telegram.NewKeyboard(rows...)
}
