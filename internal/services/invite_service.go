// Package services – InviteService
//
// This file implements the invite state machine. An invite is created
// pending and moves to accepted or declined exactly once, by its recorded
// responder. Respond checks, in order: existence, authorization (the
// caller's platform identity must equal the responder's), and pending
// status; the transition itself is a conditional update, so a caller that
// loses a race also observes ErrAlreadyResolved.
//
// Side effects (initiator notification row, initiator message, responder
// prompt on creation) run after commit and are best-effort.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/render"
	"github.com/tbourn/meet-eat-backend/internal/repo"
	"github.com/tbourn/meet-eat-backend/internal/telegram"
	"github.com/tbourn/meet-eat-backend/internal/utils"
)

// Invite actions accepted by Respond.
const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// IdempotencyScopeCreateInvite scopes Idempotency-Key records of Create.
const IdempotencyScopeCreateInvite = "invites.create"

// errIdempotencyRace aborts a create transaction that lost the insert race
// on its idempotency key.
var errIdempotencyRace = errors.New("idempotency key claimed concurrently")

// CreateInviteInput describes a new invite. Initiator and Responder are
// identified by TgID; their display fields seed lazily created users.
type CreateInviteInput struct {
	Initiator   domain.User
	Responder   domain.User
	MeetingTime *time.Time
	MealType    string
	VenueID     *uint64
	VenueName   string
	Message     string
}

// InviteService owns invite creation and resolution.
type InviteService struct {
	DB     *gorm.DB
	Render *render.Renderer
	Outbox *Outbox

	// ProfileBaseURL, when set, adds an "open profile" button to invite
	// prompts linking to the initiator's profile.
	ProfileBaseURL string
	// IdempotencyTTL bounds how long a create replay is honoured.
	IdempotencyTTL time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (s *InviteService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ActionStatus maps accept/decline to the target status.
func ActionStatus(action string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionAccept:
		return domain.InviteStatusAccepted, true
	case ActionDecline:
		return domain.InviteStatusDeclined, true
	}
	return "", false
}

// Create persists a pending invite and prompts the responder.
//
// When idemKey is non-empty, a repeated call from the same initiator with
// the same key returns the original invite and replayed=true without
// sending a second prompt.
func (s *InviteService) Create(ctx context.Context, in CreateInviteInput, idemKey string) (*domain.Invite, bool, error) {
	ctx, span := otel.Tracer("services/InviteService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.Int64("initiator.tg_id", in.Initiator.TgID),
			attribute.Int64("responder.tg_id", in.Responder.TgID),
		),
	)
	defer span.End()

	if in.Initiator.TgID == 0 || in.Responder.TgID == 0 {
		return nil, false, ErrInvalidInvite
	}
	if in.Initiator.TgID == in.Responder.TgID {
		return nil, false, ErrSelfInvite
	}

	idemKey = strings.TrimSpace(idemKey)
	subject := strconv.FormatInt(in.Initiator.TgID, 10)
	if idemKey != "" {
		if inv, err := s.replay(ctx, subject, idemKey); inv != nil || err != nil {
			return inv, inv != nil, err
		}
	}

	var id uint64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		initiator, err := repo.EnsureUser(ctx, tx, in.Initiator)
		if err != nil {
			return err
		}
		responder, err := repo.EnsureUser(ctx, tx, in.Responder)
		if err != nil {
			return err
		}
		inv := &domain.Invite{
			InitiatorID: initiator.ID,
			ResponderID: responder.ID,
			MeetingTime: in.MeetingTime,
			MealType:    strings.TrimSpace(in.MealType),
			VenueID:     in.VenueID,
			VenueName:   strings.TrimSpace(in.VenueName),
			Message:     strings.TrimSpace(in.Message),
		}
		if err := repo.CreateInvite(ctx, tx, inv); err != nil {
			return err
		}
		id = inv.ID
		if idemKey != "" {
			if _, err := repo.CreateIdempotency(ctx, tx, IdempotencyScopeCreateInvite, subject, idemKey, inv.ID, 201, s.IdempotencyTTL); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					return errIdempotencyRace
				}
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errIdempotencyRace) {
		inv, rerr := s.replay(ctx, subject, idemKey)
		if rerr != nil {
			return nil, false, rerr
		}
		if inv == nil {
			return nil, false, err
		}
		return inv, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	inv, err := repo.GetInvite(ctx, s.DB, id)
	if err != nil {
		return nil, false, err
	}
	s.Outbox.send(ctx, "invite.prompt", telegram.Message{
		ChatID: inv.Responder.TgID,
		Text:   s.Render.InviteCreated(inv),
		Markup: s.inviteKeyboard(inv),
	})
	return inv, false, nil
}

// replay returns the invite recorded for (subject, key), or nil when the
// key is unused or expired.
func (s *InviteService) replay(ctx context.Context, subject, key string) (*domain.Invite, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, IdempotencyScopeCreateInvite, subject, key, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	inv, err := repo.GetInvite(ctx, s.DB, rec.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("replay invite %d: %w", rec.ResourceID, err)
	}
	return inv, nil
}

func (s *InviteService) inviteKeyboard(inv *domain.Invite) *telegram.InlineKeyboardMarkup {
	id := strconv.FormatUint(inv.ID, 10)
	rows := [][]telegram.InlineKeyboardButton{{
		telegram.CallbackButton(s.Render.Text(render.ButtonAccept), "invite:"+id+":"+ActionAccept),
		telegram.CallbackButton(s.Render.Text(render.ButtonDecline), "invite:"+id+":"+ActionDecline),
	}}
	if base := strings.TrimRight(s.ProfileBaseURL, "/"); base != "" {
		url := base + "/#user_profile_view?tg_id=" + strconv.FormatInt(inv.Initiator.TgID, 10)
		rows = append(rows, []telegram.InlineKeyboardButton{
			telegram.URLButton(s.Render.Text(render.ButtonProfile), url),
		})
	}
	return telegram.NewKeyboard(rows...)
}

// Respond moves a pending invite to accepted or declined on behalf of
// responder, identified by responder.TgID. Name and username seed the user
// row when the responder is not yet known.
//
// Errors, in evaluation order: ErrInvalidAction, ErrInviteNotFound,
// ErrUnauthorized, ErrAlreadyResolved.
func (s *InviteService) Respond(ctx context.Context, inviteID uint64, responder domain.User, action string) (string, error) {
	ctx, span := otel.Tracer("services/InviteService").Start(ctx, "Respond",
		trace.WithAttributes(
			attribute.Int64("invite.id", int64(inviteID)),
			attribute.Int64("responder.tg_id", responder.TgID),
			attribute.String("invite.action", action),
		),
	)
	defer span.End()

	status, ok := ActionStatus(action)
	if !ok {
		return "", ErrInvalidAction
	}

	inv, err := repo.GetInvite(ctx, s.DB, inviteID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrInviteNotFound
		}
		return "", err
	}
	if inv.Responder.TgID != responder.TgID {
		return "", ErrUnauthorized
	}
	if !inv.IsPending() {
		return "", ErrAlreadyResolved
	}

	at := s.now()
	var answered *domain.User
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := repo.EnsureUser(ctx, tx, responder)
		if err != nil {
			return err
		}
		applied, err := repo.ResolveInvite(ctx, tx, inv.ID, status, u.ID, at)
		if err != nil {
			return err
		}
		if !applied {
			return ErrAlreadyResolved
		}
		answered = u
		return nil
	})
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("invite.status", status))

	inv.Status = status
	inv.RespondedAt = &at
	inv.ResponderIdentityID = &answered.ID

	s.Outbox.record(ctx, s.DB, inv.InitiatorID, domain.NotificationInviteResponse, map[string]any{
		"invite_id":      inv.ID,
		"place_name":     inv.VenueName,
		"meal_type":      s.Render.Meal(inv.MealType),
		"time_readable":  s.Render.MeetingTime(inv.MeetingTime),
		"responder_name": s.Render.Display(*answered),
		"status":         status,
	})
	s.Outbox.send(ctx, "invite.resolved", telegram.Message{
		ChatID: inv.Initiator.TgID,
		Text:   s.Render.InviteResolved(inv, *answered, status),
	})
	return status, nil
}

// ListIncoming returns pending invites addressed to tgID, newest first. An
// unknown identity has no invites.
func (s *InviteService) ListIncoming(ctx context.Context, tgID int64, limit int) ([]domain.Invite, error) {
	u, err := repo.GetUserByTgID(ctx, s.DB, tgID)
	if errors.Is(err, repo.ErrNotFound) {
		return []domain.Invite{}, nil
	}
	if err != nil {
		return nil, err
	}
	return repo.ListPendingInvitesFor(ctx, s.DB, u.ID, utils.ClampLimit(limit, 50, 200))
}

// IncomingStats returns the number of pending invites for tgID and the
// newest update time among them, for cache validators.
func (s *InviteService) IncomingStats(ctx context.Context, tgID int64) (int64, *time.Time, error) {
	u, err := repo.GetUserByTgID(ctx, s.DB, tgID)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	return repo.PendingInvitesStats(ctx, s.DB, u.ID)
}
