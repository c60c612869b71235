// Package callback routes inline-button presses from the messaging platform
// onto the invite, survey and review services.
//
// Callback data is "<prefix>:<id>:<arg>" with prefixes invite, survey and
// review. Unknown prefixes are ignored. Every recognized callback is
// acknowledged with a short text (an alert on failure), and the originating
// message is edited to drop its buttons once they can no longer be used.
// The edit is cosmetic: the services reject repeated actions on their own.
package callback

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/render"
	"github.com/tbourn/meet-eat-backend/internal/services"
	"github.com/tbourn/meet-eat-backend/internal/telegram"
)

// Callback kinds.
const (
	KindInvite = "invite"
	KindSurvey = "survey"
	KindReview = "review"
)

const (
	seenTTL = 10 * time.Minute
	seenMax = 10000
)

// InviteResponder resolves invites.
type InviteResponder interface {
	Respond(ctx context.Context, inviteID uint64, responder domain.User, action string) (string, error)
}

// SurveyRecorder stores survey answers.
type SurveyRecorder interface {
	RecordAnswer(ctx context.Context, inviteID uint64, tgID int64, answer string) (string, error)
}

// Reactor toggles reactions between invite partners.
type Reactor interface {
	ReactFromInvite(ctx context.Context, inviteID uint64, reviewerTgID int64, reaction string) (bool, error)
}

// Gateway is the part of the messaging client the router talks to.
type Gateway interface {
	AnswerCallback(ctx context.Context, a telegram.CallbackAnswer) error
	EditMessage(ctx context.Context, e telegram.MessageEdit) error
}

// Outcome describes how a callback was handled.
type Outcome struct {
	Handled   bool   // false for unknown prefixes and replays
	Duplicate bool   // callback id already processed
	Kind      string // invite, survey or review
	Ack       string // text shown to the user
	Alert     bool
	Err       error // service error, for logging only
}

// Router dispatches callback queries. It is safe for concurrent use; build
// it with NewRouter.
type Router struct {
	Invites InviteResponder
	Surveys SurveyRecorder
	Reviews Reactor
	Gateway Gateway
	Render  *render.Renderer
	Log     zerolog.Logger

	seen cmap.ConcurrentMap[string, time.Time]
}

// NewRouter wires a Router.
func NewRouter(inv InviteResponder, sv SurveyRecorder, rv Reactor, gw Gateway, r *render.Renderer, log zerolog.Logger) *Router {
	return &Router{
		Invites: inv,
		Surveys: sv,
		Reviews: rv,
		Gateway: gw,
		Render:  r,
		Log:     log,
		seen:    cmap.New[time.Time](),
	}
}

// Handle processes q. It never returns an error; failures are reported to
// the user through the callback acknowledgement and to the log.
func (r *Router) Handle(ctx context.Context, q telegram.CallbackQuery) (out Outcome) {
	kind, rest, _ := strings.Cut(q.Data, ":")
	switch kind {
	case KindInvite, KindSurvey, KindReview:
	default:
		r.Log.Debug().Str("data", q.Data).Msg("callback ignored")
		return Outcome{}
	}
	if q.ID != "" && !r.markSeen(q.ID) {
		// Redelivery: clear the client's spinner, skip the handler.
		out = Outcome{Kind: kind, Duplicate: true}
		r.answer(ctx, r.Log, q, out)
		return out
	}

	log := r.Log.With().Str("callback_id", q.ID).Str("kind", kind).Int64("tg_id", q.From.ID).Logger()
	out = Outcome{Handled: true, Kind: kind}

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("callback handler panicked")
			out.Ack, out.Alert, out.Err = r.Render.Text(render.AckFailed), true, errors.New("callback panic")
		}
		r.answer(ctx, log, q, out)
	}()

	id, arg, err := parseArgs(rest)
	if err != nil {
		out.Ack, out.Alert, out.Err = r.Render.Text(render.AckFailed), true, err
		log.Warn().Err(err).Str("data", q.Data).Msg("malformed callback")
		return out
	}

	switch kind {
	case KindInvite:
		r.handleInvite(ctx, q, id, arg, &out)
	case KindSurvey:
		r.handleSurvey(ctx, q, id, arg, &out)
	case KindReview:
		r.handleReview(ctx, q, id, arg, &out)
	}
	if out.Err != nil {
		log.Info().Err(out.Err).Msg("callback rejected")
	}
	return out
}

// parseArgs splits "<id>:<arg>".
func parseArgs(rest string) (uint64, string, error) {
	idStr, arg, ok := strings.Cut(rest, ":")
	if !ok || idStr == "" || arg == "" {
		return 0, "", errors.New("callback: expected <id>:<arg>")
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return 0, "", errors.New("callback: invalid id " + strconv.Quote(idStr))
	}
	return id, arg, nil
}

func (r *Router) handleInvite(ctx context.Context, q telegram.CallbackQuery, id uint64, action string, out *Outcome) {
	responder := domain.User{TgID: q.From.ID, Name: q.From.DisplayName(), Username: q.From.Username}
	status, err := r.Invites.Respond(ctx, id, responder, action)
	if err != nil {
		out.Err, out.Alert = err, true
		out.Ack = r.Render.Text(ackFor(err))
		if errors.Is(err, services.ErrAlreadyResolved) {
			r.retire(ctx, q, "")
		}
		return
	}
	out.Ack = r.Render.Text(render.AckAccepted)
	if status == domain.InviteStatusDeclined {
		out.Ack = r.Render.Text(render.AckDeclined)
	}
	r.retire(ctx, q, out.Ack)
}

func (r *Router) handleSurvey(ctx context.Context, q telegram.CallbackQuery, id uint64, answer string, out *Outcome) {
	_, err := r.Surveys.RecordAnswer(ctx, id, q.From.ID, answer)
	if err != nil {
		out.Err, out.Alert = err, true
		out.Ack = r.Render.Text(ackFor(err))
		if errors.Is(err, services.ErrDuplicateAnswer) {
			r.retire(ctx, q, "")
		}
		return
	}
	out.Ack = r.Render.Text(render.AckSurveyNoted)
	r.retire(ctx, q, out.Ack)
}

// handleReview keeps the reaction keyboard in place so several reactions
// can be toggled from the same message.
func (r *Router) handleReview(ctx context.Context, q telegram.CallbackQuery, id uint64, label string, out *Outcome) {
	added, err := r.Reviews.ReactFromInvite(ctx, id, q.From.ID, label)
	if err != nil {
		out.Err, out.Alert = err, true
		out.Ack = r.Render.Text(ackFor(err))
		return
	}
	out.Ack = r.Render.Text(render.AckReactionRemoved)
	if added {
		out.Ack = r.Render.Text(render.AckReactionAdded)
	}
}

// ackFor maps service errors to acknowledgement keys.
func ackFor(err error) string {
	switch {
	case errors.Is(err, services.ErrInviteNotFound), errors.Is(err, services.ErrUserNotFound):
		return render.AckNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return render.AckUnauthorized
	case errors.Is(err, services.ErrAlreadyResolved):
		return render.AckAlreadyResolved
	case errors.Is(err, services.ErrDuplicateAnswer):
		return render.AckSurveyDuplicate
	case errors.Is(err, services.ErrInvalidAction),
		errors.Is(err, services.ErrInvalidAnswer),
		errors.Is(err, services.ErrInvalidReaction):
		return render.AckBadCommand
	default:
		return render.AckFailed
	}
}

func (r *Router) answer(ctx context.Context, log zerolog.Logger, q telegram.CallbackQuery, out Outcome) {
	if r.Gateway == nil || q.ID == "" {
		return
	}
	err := r.Gateway.AnswerCallback(ctx, telegram.CallbackAnswer{
		CallbackQueryID: q.ID,
		Text:            out.Ack,
		ShowAlert:       out.Alert,
	})
	if err != nil && !errors.Is(err, telegram.ErrDisabled) {
		log.Warn().Err(err).Msg("answer callback failed")
	}
}

// retire removes the buttons from the originating message and, when status
// is set, appends it as a status line.
func (r *Router) retire(ctx context.Context, q telegram.CallbackQuery, status string) {
	if r.Gateway == nil || q.Message == nil || q.Message.MessageID == 0 {
		return
	}
	edit := telegram.MessageEdit{ChatID: q.Message.Chat.ID, MessageID: q.Message.MessageID}
	if status != "" && q.Message.Text != "" {
		edit.Text = r.Render.WithStatusLine(q.Message.Text, status)
	}
	if err := r.Gateway.EditMessage(ctx, edit); err != nil && !errors.Is(err, telegram.ErrDisabled) {
		r.Log.Debug().Err(err).Int64("message_id", q.Message.MessageID).Msg("edit message failed")
	}
}

// markSeen records id and reports whether it was new.
func (r *Router) markSeen(id string) bool {
	now := time.Now()
	if !r.seen.SetIfAbsent(id, now) {
		return false
	}
	if r.seen.Count() > seenMax {
		for _, k := range r.seen.Keys() {
			r.seen.RemoveCb(k, func(_ string, at time.Time, exists bool) bool {
				return exists && now.Sub(at) > seenTTL
			})
		}
	}
	return true
}
