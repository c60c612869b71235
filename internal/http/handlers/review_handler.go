package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/utils"
)

// Toggle results.
const (
	reviewAdded   = "added"
	reviewRemoved = "removed"
)

// ToggleReviewRequest is the JSON payload for toggling a reaction.
type ToggleReviewRequest struct {
	ReviewerTgID int64  `json:"reviewer_tg_id" binding:"required" example:"1001"`
	TargetTgID   int64  `json:"target_tg_id" binding:"required" example:"1002"`
	Reaction     string `json:"reaction" binding:"required" example:"Приятный собеседник"`
}

// ToggleReviewResponse reports whether the reaction is now present.
type ToggleReviewResponse struct {
	Action   string `json:"action" example:"added" enums:"added,removed"`
	Reaction string `json:"reaction" example:"Приятный собеседник"`
}

// ReactionCountDTO is the number of times a reaction was given.
type ReactionCountDTO struct {
	Reaction string `json:"reaction" example:"Крутой нетворкер"`
	Count    int64  `json:"count" example:"3"`
}

// ReviewSummaryResponse aggregates the reactions a user received.
type ReviewSummaryResponse struct {
	Target domain.User        `json:"target"`
	Counts []ReactionCountDTO `json:"counts"`
	Recent []domain.Review    `json:"recent"`
	Mine   []string           `json:"mine"`
}

// ToggleReview godoc
// @ID          toggleReview
// @Summary     Toggle a reaction on a user
// @Description Adds the reaction when absent and removes it when present.
// @Tags        Reviews
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ToggleReviewRequest  true  "Reaction"
//
// @Success     200  {object} handlers.ToggleReviewResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /reviews/toggle [post]
func (h *Handlers) ToggleReview(c *gin.Context) {
	var req ToggleReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reviewer_tg_id, target_tg_id and reaction are required")
		return
	}

	present, err := h.reviewSvc.Toggle(c.Request.Context(), domain.User{TgID: req.ReviewerTgID}, req.TargetTgID, req.Reaction)
	if err != nil {
		failService(c, err)
		return
	}
	action := reviewRemoved
	if present {
		action = reviewAdded
	}
	ok(c, http.StatusOK, ToggleReviewResponse{Action: action, Reaction: req.Reaction})
}

// GetReviews godoc
// @ID          getReviews
// @Summary     Reaction summary for a user
// @Description Returns per-reaction counts, the newest reviews, and the viewer's own reactions when viewer_tg_id is given.
// @Tags        Reviews
// @Produce     json
//
// @Param       tg_id         query  int  true   "Target platform id"  example(1002)
// @Param       viewer_tg_id  query  int  false  "Viewer platform id"  example(1001)
// @Param       limit         query  int  false  "Recent reviews"      minimum(1) maximum(100) default(10)
//
// @Success     200  {object} handlers.ReviewSummaryResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /reviews [get]
func (h *Handlers) GetReviews(c *gin.Context) {
	target, valid := queryTgID(c, "tg_id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "tg_id is required")
		return
	}
	viewer, _ := queryTgID(c, "viewer_tg_id")

	sum, err := h.reviewSvc.Summary(c.Request.Context(), target, viewer, utils.AtoiDefault(c.Query("limit"), 0))
	if err != nil {
		failService(c, err)
		return
	}
	resp := ReviewSummaryResponse{
		Target: sum.Target,
		Counts: make([]ReactionCountDTO, 0, len(sum.Counts)),
		Recent: sum.Recent,
		Mine:   sum.Mine,
	}
	for _, rc := range sum.Counts {
		resp.Counts = append(resp.Counts, ReactionCountDTO{Reaction: rc.Reaction, Count: rc.Count})
	}
	if resp.Recent == nil {
		resp.Recent = []domain.Review{}
	}
	ok(c, http.StatusOK, resp)
}
