// Package render produces the localized copy sent through the messaging
// gateway: invite prompts, resolution notices, survey prompts, and callback
// acknowledgements. Catalogs are registered with golang.org/x/text/message
// for Russian (default) and English.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIME_ZONE must resolve in images without a zoneinfo dir

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tbourn/meet-eat-backend/internal/domain"
)

const (
	keyMonth1  = "month.1"
	keyMonth2  = "month.2"
	keyMonth3  = "month.3"
	keyMonth4  = "month.4"
	keyMonth5  = "month.5"
	keyMonth6  = "month.6"
	keyMonth7  = "month.7"
	keyMonth8  = "month.8"
	keyMonth9  = "month.9"
	keyMonth10 = "month.10"
	keyMonth11 = "month.11"
	keyMonth12 = "month.12"

	keyDefaultMeal    = "invite.default_meal"
	keyUnknownUser    = "user.unknown"
	keyPlace          = "invite.place"
	keyWhen           = "invite.when"
	keyInviteCreated  = "invite.created"
	keyInviteMessage  = "invite.created.message"
	keyInviteResolved = "invite.resolved"
	keyInviteAccepted = "invite.resolved.accepted"
	keyInviteDeclined = "invite.resolved.declined"
	keyInviteContact  = "invite.resolved.contact"
	keySurveyPrompt   = "survey.prompt"
	keySurveyFollowup = "survey.followup"
	keySurveyNegative = "survey.negative"
	keyStatusLine     = "callback.status_line"
)

// Short UI strings addressable through Renderer.Text.
const (
	ButtonAccept  = "button.accept"
	ButtonDecline = "button.decline"
	ButtonProfile = "button.profile"
	ButtonYes     = "button.survey.yes"
	ButtonNo      = "button.survey.no"

	AckAccepted        = "ack.invite.accepted"
	AckDeclined        = "ack.invite.declined"
	AckBadCommand      = "ack.bad_command"
	AckFailed          = "ack.failed"
	AckNotFound        = "ack.not_found"
	AckUnauthorized    = "ack.unauthorized"
	AckAlreadyResolved = "ack.already_resolved"
	AckSurveyNoted     = "ack.survey.noted"
	AckSurveyDuplicate = "ack.survey.duplicate"
	AckReactionAdded   = "ack.review.added"
	AckReactionRemoved = "ack.review.removed"
)

var monthKeys = [12]string{
	keyMonth1, keyMonth2, keyMonth3, keyMonth4, keyMonth5, keyMonth6,
	keyMonth7, keyMonth8, keyMonth9, keyMonth10, keyMonth11, keyMonth12,
}

// Renderer formats user-facing text in a fixed language and time zone.
// It is safe for concurrent use.
type Renderer struct {
	loc  *time.Location
	lang language.Tag
	p    *message.Printer
}

// New returns a Renderer for the IANA zone tz and BCP-47 language lang.
// Unsupported languages fall back to Russian.
func New(tz, lang string) (*Renderer, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", tz, err)
	}
	tag := language.Russian
	if t, err := language.Parse(strings.TrimSpace(lang)); err == nil {
		base, _ := t.Base()
		if en, _ := language.English.Base(); base == en {
			tag = language.English
		}
	}
	return &Renderer{loc: loc, lang: tag, p: message.NewPrinter(tag)}, nil
}

// Language reports the language the renderer writes in.
func (r *Renderer) Language() language.Tag { return r.lang }

// Text returns the localized copy for one of the exported short-string keys.
func (r *Renderer) Text(key string) string { return r.p.Sprintf(key) }

// MeetingTime renders t as "HH:MM D <month>" in the configured zone, with
// the month in genitive case for Russian. A nil time renders as "".
func (r *Renderer) MeetingTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	local := t.In(r.loc)
	month := r.p.Sprintf(monthKeys[local.Month()-1])
	return local.Format("15:04") + " " + strconv.Itoa(local.Day()) + " " + month
}

// Meal returns mealType or the localized default when it is blank.
func (r *Renderer) Meal(mealType string) string {
	if m := strings.TrimSpace(mealType); m != "" {
		return m
	}
	return r.p.Sprintf(keyDefaultMeal)
}

// Display returns the name shown for u: name, then @username, then @tg_id.
func (r *Renderer) Display(u domain.User) string {
	switch {
	case strings.TrimSpace(u.Name) != "":
		return u.Name
	case strings.TrimSpace(u.Username) != "":
		return "@" + u.Username
	case u.TgID != 0:
		return "@" + strconv.FormatInt(u.TgID, 10)
	default:
		return r.p.Sprintf(keyUnknownUser)
	}
}

// Contact returns a handle the other party can reach u by, or "".
func (r *Renderer) Contact(u domain.User) string {
	switch {
	case strings.TrimSpace(u.Username) != "":
		return "@" + u.Username
	case u.TgID != 0:
		return "@" + strconv.FormatInt(u.TgID, 10)
	default:
		return ""
	}
}

// InviteCreated is the prompt sent to the responder of a fresh invite.
func (r *Renderer) InviteCreated(inv *domain.Invite) string {
	text := r.p.Sprintf(keyInviteCreated,
		r.place(inv.VenueName),
		r.Display(inv.Initiator),
		r.Meal(inv.MealType),
		r.when(inv.MeetingTime),
	)
	if msg := strings.TrimSpace(inv.Message); msg != "" {
		text += r.p.Sprintf(keyInviteMessage, msg)
	}
	return text
}

// InviteResolved is the notice sent to the initiator once the responder
// answered. Accepted invites carry a contact line for the responder.
func (r *Renderer) InviteResolved(inv *domain.Invite, responder domain.User, status string) string {
	outcome := keyInviteDeclined
	if status == domain.InviteStatusAccepted {
		outcome = keyInviteAccepted
	}
	text := r.p.Sprintf(keyInviteResolved,
		r.place(inv.VenueName),
		r.Display(responder),
		r.Meal(inv.MealType),
		r.when(inv.MeetingTime),
		r.p.Sprintf(outcome),
	)
	if status == domain.InviteStatusAccepted {
		if c := r.Contact(responder); c != "" {
			text += r.p.Sprintf(keyInviteContact, c)
		}
	}
	return text
}

// SurveyPrompt asks one party whether the meeting with partner took place.
func (r *Renderer) SurveyPrompt(inv *domain.Invite, partner domain.User) string {
	return r.p.Sprintf(keySurveyPrompt, r.Display(partner), r.place(inv.VenueName), r.when(inv.MeetingTime))
}

// SurveyFollowup invites the answering user to react to partner.
func (r *Renderer) SurveyFollowup(partner domain.User) string {
	return r.p.Sprintf(keySurveyFollowup, r.Display(partner))
}

// SurveyNegative is the neutral acknowledgement for a "no" answer.
func (r *Renderer) SurveyNegative() string { return r.p.Sprintf(keySurveyNegative) }

// WithStatusLine appends a status line to the text of an answered message.
func (r *Renderer) WithStatusLine(text, status string) string {
	return text + r.p.Sprintf(keyStatusLine, status)
}

func (r *Renderer) place(venue string) string {
	if v := strings.TrimSpace(venue); v != "" {
		return r.p.Sprintf(keyPlace, v)
	}
	return ""
}

func (r *Renderer) when(t *time.Time) string {
	if s := r.MeetingTime(t); s != "" {
		return r.p.Sprintf(keyWhen, s)
	}
	return ""
}
