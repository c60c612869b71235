// Notification HTTP handlers.
//
// The feed is append-only apart from the read flag, so (count, unread, max id)
// identifies a version of it and backs the weak ETag.
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/sysutil"
	"github.com/tbourn/meet-eat-backend/internal/utils"
)

// ListNotificationsResponse wraps a page of the feed.
type ListNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

// MarkReadRequest identifies the reader acknowledging a notification.
type MarkReadRequest struct {
	TgID int64 `json:"tg_id" binding:"required" example:"1001"`
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     Notification feed
// @Description Returns the user's notifications newer than since_id, newest first. Unread only unless include_read is set. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Notifications
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       tg_id          query   int     true  "Platform id"           example(1001)
// @Param       since_id       query   int     false "Only ids above this"   minimum(0) default(0)
// @Param       limit          query   int     false "Max items"             minimum(1) maximum(200) default(50)
// @Param       include_read   query   bool    false "Include read items"    default(false)
//
// @Success     200  {object} handlers.ListNotificationsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	tgID, valid := queryTgID(c, "tg_id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "tg_id is required")
		return
	}
	var sinceID uint64
	if v := c.Query("since_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "since_id must be a non-negative integer")
			return
		}
		sinceID = n
	}
	includeRead := sysutil.IsTruthy(c.Query("include_read"))
	limit := utils.PageSize(c.Query("limit"), 50, 200)

	if count, unread, maxID, err := h.notifSvc.Stats(ctx, tgID); err == nil {
		etag := fmt.Sprintf(`W/"notifications:%d:%d:%d:%d:%d:%d:%t"`, tgID, count, unread, maxID, sinceID, limit, includeRead)
		if notModified(c, etag) {
			return
		}
	}

	items, err := h.notifSvc.List(ctx, tgID, sinceID, limit, includeRead)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListNotificationsResponse{Notifications: items})
}

// MarkNotificationRead godoc
// @ID          markNotificationRead
// @Summary     Mark a notification as read
// @Tags        Notifications
// @Accept      json
//
// @Param       id    path  int  true  "Notification ID"  example(17)
// @Param       body  body  handlers.MarkReadRequest  true  "Reader"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Notification not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /notifications/{id}/read [post]
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "notification id must be a positive integer")
		return
	}
	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "tg_id is required")
		return
	}
	if err := h.notifSvc.MarkRead(c.Request.Context(), req.TgID, id); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
