package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SurveyAnswerRequest is the JSON payload for answering a post-meal survey.
type SurveyAnswerRequest struct {
	TgID   int64  `json:"tg_id" binding:"required" example:"1001"`
	Answer string `json:"answer" binding:"required" example:"yes" enums:"yes,no"`
}

// SurveyAnswerResponse tells the client what to show next.
type SurveyAnswerResponse struct {
	Action string `json:"action" example:"ask_review" enums:"ask_review,noted"`
}

// RespondSurvey godoc
// @ID          respondSurvey
// @Summary     Answer the "did you meet" survey
// @Description Records a party's answer for an invite. Each party answers at most once.
// @Tags        Surveys
// @Accept      json
// @Produce     json
//
// @Param       id    path  int  true  "Invite ID"  example(42)
// @Param       body  body  handlers.SurveyAnswerRequest  true  "Answer"
//
// @Success     200  {object} handlers.SurveyAnswerResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Not a party of the invite"
// @Failure     404  {object} handlers.ErrorResponse "Invite or user not found"
// @Failure     409  {object} handlers.ErrorResponse "Already answered"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /surveys/{id}/respond [post]
func (h *Handlers) RespondSurvey(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invite id must be a positive integer")
		return
	}
	var req SurveyAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "tg_id and answer are required")
		return
	}

	action, err := h.surveySvc.RecordAnswer(c.Request.Context(), id, req.TgID, req.Answer)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, SurveyAnswerResponse{Action: action})
}
