package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/meet-eat-backend/internal/http/middleware"
	"github.com/tbourn/meet-eat-backend/internal/telegram"
)

// HeaderWebhookSecret carries the secret token configured with setWebhook.
const HeaderWebhookSecret = "X-Telegram-Bot-Api-Secret-Token"

// WebhookAck is the body returned to the platform for every accepted update.
type WebhookAck struct {
	OK bool `json:"ok" example:"true"`
}

// TelegramWebhook godoc
// @ID          telegramWebhook
// @Summary     Messaging platform webhook
// @Description Receives platform updates and dispatches inline-button callbacks. Any well-formed update is acknowledged with {"ok":true}, including ones that are ignored, so the platform does not redeliver them.
// @Tags        Webhook
// @Accept      json
// @Produce     json
//
// @Param       X-Telegram-Bot-Api-Secret-Token  header  string  false  "Webhook secret (required when configured)"
// @Param       body  body  telegram.Update  true  "Update"
//
// @Success     200  {object} handlers.WebhookAck
// @Failure     400  {object} handlers.ErrorResponse "Malformed update"
// @Failure     401  {object} handlers.ErrorResponse "Secret mismatch"
// @Router      /telegram/webhook [post]
func (h *Handlers) TelegramWebhook(c *gin.Context) {
	if h.secret != "" {
		got := c.GetHeader(HeaderWebhookSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid webhook secret")
			return
		}
	}

	var upd telegram.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid update")
		return
	}

	if upd.CallbackQuery != nil && h.callbacks != nil {
		out := h.callbacks.Handle(c.Request.Context(), *upd.CallbackQuery)
		lg := middleware.LoggerFrom(c)
		lg.Debug().
			Int64("update_id", upd.UpdateID).
			Str("kind", out.Kind).
			Bool("handled", out.Handled).
			Bool("duplicate", out.Duplicate).
			Msg("callback dispatched")
	}
	ok(c, http.StatusOK, WebhookAck{OK: true})
}
