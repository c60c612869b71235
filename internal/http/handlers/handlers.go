// Package handlers exposes the REST surface of the meet&eat backend.
//
// Endpoints (relative to the API base path):
//   - POST /invites                  (create, Idempotency-Key aware)
//   - GET  /invites                  (pending invites for a responder, ETag support)
//   - POST /invites/{id}/respond     (accept or decline)
//   - POST /surveys/{id}/respond     (post-meal survey answer)
//   - POST /reviews/toggle           (toggle a reaction)
//   - GET  /reviews                  (reaction summary)
//   - GET  /notifications            (feed, ETag support)
//   - POST /notifications/{id}/read  (acknowledge)
//
// plus the platform webhook, mounted outside the base path.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/meet-eat-backend/internal/callback"
	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/services"
	"github.com/tbourn/meet-eat-backend/internal/telegram"
)

//
// Service contracts (context-aware)
//

// InviteService defines the invite lifecycle operations consumed by HTTP
// handlers.
type InviteService interface {
	// Create persists a pending invite; replayed reports an Idempotency-Key hit.
	Create(ctx context.Context, in services.CreateInviteInput, idemKey string) (inv *domain.Invite, replayed bool, err error)
	// Respond accepts or declines an invite on behalf of responder.
	Respond(ctx context.Context, inviteID uint64, responder domain.User, action string) (string, error)
	// ListIncoming returns pending invites addressed to tgID.
	ListIncoming(ctx context.Context, tgID int64, limit int) ([]domain.Invite, error)
	// IncomingStats returns cache-validator metadata for ListIncoming.
	IncomingStats(ctx context.Context, tgID int64) (int64, *time.Time, error)
}

// SurveyService records post-meal survey answers.
type SurveyService interface {
	RecordAnswer(ctx context.Context, inviteID uint64, tgID int64, answer string) (string, error)
}

// ReviewService toggles and summarizes reactions.
type ReviewService interface {
	Toggle(ctx context.Context, reviewer domain.User, targetTgID int64, reaction string) (bool, error)
	Summary(ctx context.Context, targetTgID, viewerTgID int64, limit int) (*services.ReviewSummary, error)
}

// NotificationService serves a user's notification feed.
type NotificationService interface {
	List(ctx context.Context, tgID int64, sinceID uint64, limit int, includeRead bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, tgID int64, id uint64) error
	Stats(ctx context.Context, tgID int64) (count, unread int64, maxID uint64, err error)
}

// CallbackRouter handles inline-button presses delivered by the webhook.
type CallbackRouter interface {
	Handle(ctx context.Context, q telegram.CallbackQuery) callback.Outcome
}

//
// Handler wiring
//

// Deps lists the collaborators of Handlers.
type Deps struct {
	Invites       InviteService
	Surveys       SurveyService
	Reviews       ReviewService
	Notifications NotificationService
	Callbacks     CallbackRouter

	// WebhookSecret, when non-empty, must be echoed by the platform in
	// the X-Telegram-Bot-Api-Secret-Token header.
	WebhookSecret string
}

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	inviteSvc InviteService
	surveySvc SurveyService
	reviewSvc ReviewService
	notifSvc  NotificationService
	callbacks CallbackRouter
	secret    string
}

// New constructs and returns a Handlers instance bound to the given services.
func New(d Deps) *Handlers {
	return &Handlers{
		inviteSvc: d.Invites,
		surveySvc: d.Surveys,
		reviewSvc: d.Reviews,
		notifSvc:  d.Notifications,
		callbacks: d.Callbacks,
		secret:    d.WebhookSecret,
	}
}

//
// Helpers
//

// pathID parses the :id path parameter as a positive integer.
func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// queryTgID parses a required platform identity from the query string.
func queryTgID(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(c.Query(name)), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}

// notModified sets etag and reports whether the request already holds it.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// failService maps service errors onto the HTTP error envelope.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInviteNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrAlreadyResolved):
		fail(c, http.StatusConflict, ErrCodeAlreadyResolved, err.Error())
	case errors.Is(err, services.ErrDuplicateAnswer):
		fail(c, http.StatusConflict, ErrCodeDuplicateAnswer, err.Error())
	case errors.Is(err, services.ErrInvalidAction),
		errors.Is(err, services.ErrInvalidAnswer),
		errors.Is(err, services.ErrInvalidReaction),
		errors.Is(err, services.ErrInvalidInvite),
		errors.Is(err, services.ErrSelfInvite),
		errors.Is(err, services.ErrSelfReview):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
