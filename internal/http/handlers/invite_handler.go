// Invite HTTP handlers.
//
// This file exposes REST endpoints for invites:
//   - POST /invites               (create, Idempotency-Key aware)
//   - GET  /invites               (pending invites addressed to tg_id, ETag support)
//   - POST /invites/{id}/respond  (accept or decline)
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/http/middleware"
	"github.com/tbourn/meet-eat-backend/internal/services"
	"github.com/tbourn/meet-eat-backend/internal/utils"
)

//
// DTOs
//

// CreateInviteRequest is the JSON payload for creating an invite. Parties are
// identified by platform id; names seed users seen for the first time.
type CreateInviteRequest struct {
	InitiatorTgID     int64      `json:"initiator_tg_id" binding:"required" example:"1001"`
	InitiatorName     string     `json:"initiator_name" example:"Алия"`
	InitiatorUsername string     `json:"initiator_username" example:"aliya"`
	ResponderTgID     int64      `json:"responder_tg_id" binding:"required" example:"1002"`
	ResponderName     string     `json:"responder_name" example:"Бек"`
	ResponderUsername string     `json:"responder_username" example:"bek"`
	MeetingTime       *time.Time `json:"meeting_time,omitempty" example:"2025-06-10T13:30:00Z"`
	MealType          string     `json:"meal_type" example:"обед"`
	VenueID           *uint64    `json:"venue_id,omitempty" example:"7"`
	VenueName         string     `json:"venue_name" example:"Кафе"`
	Message           string     `json:"message" binding:"max=1000" example:"Пообедаем?"`
}

// CreateInviteResponse carries the id of the created (or replayed) invite.
type CreateInviteResponse struct {
	InviteID uint64 `json:"invite_id" example:"42"`
}

// RespondInviteRequest is the JSON payload for answering an invite.
type RespondInviteRequest struct {
	ResponderTgID     int64  `json:"responder_tg_id" binding:"required" example:"1002"`
	ResponderName     string `json:"responder_name" example:"Бек"`
	ResponderUsername string `json:"responder_username" example:"bek"`
	Action            string `json:"action" binding:"required" example:"accept" enums:"accept,decline"`
}

// RespondInviteResponse reports the resulting invite status.
type RespondInviteResponse struct {
	InviteID uint64 `json:"invite_id" example:"42"`
	Status   string `json:"status" example:"accepted"`
}

// ListInvitesResponse wraps the pending invites of a responder.
type ListInvitesResponse struct {
	Invites []domain.Invite `json:"invites"`
}

//
// Handlers
//

// CreateInvite godoc
// @ID          createInvite
// @Summary     Create an invite
// @Description Creates a pending invite and prompts the responder with accept/decline buttons. Repeating the call with the same Idempotency-Key returns the original invite.
// @Tags        Invites
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key (1-200 chars)"  example(9f1c2b1e-2d7a-4a37-9a53-6f6b2b0d6f11)
// @Param       body             body    handlers.CreateInviteRequest  true  "Invite payload"
//
// @Success     201  {object}  handlers.CreateInviteResponse
// @Header      201  {string}  Idempotency-Replayed  "true when served from an earlier request"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /invites [post]
func (h *Handlers) CreateInvite(c *gin.Context) {
	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	key, found := middleware.GetIdempotencyKey(c)
	if !found {
		key = strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
	}

	inv, replayed, err := h.inviteSvc.Create(c.Request.Context(), services.CreateInviteInput{
		Initiator:   domain.User{TgID: req.InitiatorTgID, Name: req.InitiatorName, Username: req.InitiatorUsername},
		Responder:   domain.User{TgID: req.ResponderTgID, Name: req.ResponderName, Username: req.ResponderUsername},
		MeetingTime: req.MeetingTime,
		MealType:    req.MealType,
		VenueID:     req.VenueID,
		VenueName:   req.VenueName,
		Message:     req.Message,
	}, key)
	if err != nil {
		failService(c, err)
		return
	}
	if replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	ok(c, http.StatusCreated, CreateInviteResponse{InviteID: inv.ID})
}

// ListInvites godoc
// @ID          listInvites
// @Summary     List pending incoming invites
// @Description Returns pending invites addressed to tg_id, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Invites
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"invites:1002:1:1718000000\")
// @Param       tg_id          query   int     true  "Responder platform id"       example(1002)
// @Param       limit          query   int     false "Max items"                   minimum(1) maximum(200) default(50)
//
// @Success     200  {object} handlers.ListInvitesResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /invites [get]
func (h *Handlers) ListInvites(c *gin.Context) {
	ctx := c.Request.Context()
	tgID, valid := queryTgID(c, "tg_id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "tg_id is required")
		return
	}

	// ETag pre-check (best effort).
	if count, maxTS, err := h.inviteSvc.IncomingStats(ctx, tgID); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		if notModified(c, fmt.Sprintf(`W/"invites:%d:%d:%d"`, tgID, count, ts)) {
			return
		}
	}

	items, err := h.inviteSvc.ListIncoming(ctx, tgID, utils.AtoiDefault(c.Query("limit"), 0))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListInvitesResponse{Invites: items})
}

// RespondInvite godoc
// @ID          respondInvite
// @Summary     Accept or decline an invite
// @Description Resolves a pending invite. Only the invite's responder may answer, and only once.
// @Tags        Invites
// @Accept      json
// @Produce     json
//
// @Param       id    path  int  true  "Invite ID"  example(42)
// @Param       body  body  handlers.RespondInviteRequest  true  "Answer"
//
// @Success     200  {object} handlers.RespondInviteResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Not the invite's responder"
// @Failure     404  {object} handlers.ErrorResponse "Invite not found"
// @Failure     409  {object} handlers.ErrorResponse "Already resolved"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /invites/{id}/respond [post]
func (h *Handlers) RespondInvite(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invite id must be a positive integer")
		return
	}
	var req RespondInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "responder_tg_id and action are required")
		return
	}

	responder := domain.User{TgID: req.ResponderTgID, Name: req.ResponderName, Username: req.ResponderUsername}
	status, err := h.inviteSvc.Respond(c.Request.Context(), id, responder, req.Action)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, RespondInviteResponse{InviteID: id, Status: status})
}
