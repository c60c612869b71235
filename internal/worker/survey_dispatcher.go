// Package worker hosts background loops. SurveyDispatcher polls for
// accepted invites whose grace interval has elapsed and sends each party a
// "did you meet?" prompt, at most once per invite.
//
// Ownership of an invite's survey is decided by repo.ClaimSurvey: the
// conditional update flips survey_dispatched and only the caller that
// changed the row delivers. The claim is committed before any delivery, so
// a crash in between loses that invite's prompts rather than duplicating
// them. Cancelling the loop stops further claims but lets the prompts of an
// already won claim finish.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/render"
	"github.com/tbourn/meet-eat-backend/internal/repo"
	"github.com/tbourn/meet-eat-backend/internal/services"
	"github.com/tbourn/meet-eat-backend/internal/telegram"
)

var (
	dispatchCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_dispatch_cycles_total",
			Help: "Survey dispatcher cycles by outcome.",
		},
		[]string{"result"},
	)
	surveyClaims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_claims_total",
			Help: "Survey claim attempts by result (won, lost, error).",
		},
		[]string{"result"},
	)
	surveyDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_deliveries_total",
			Help: "Per-party survey prompt deliveries by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(dispatchCycles, surveyClaims, surveyDeliveries)
}

// SurveyDispatcher delivers post-meal surveys.
type SurveyDispatcher struct {
	DB        *gorm.DB
	Sink      services.NotificationSink
	Messenger services.Messenger
	Render    *render.Renderer
	Log       zerolog.Logger

	// Grace is how long after acceptance an invite becomes eligible.
	Grace time.Duration
	// Interval is the pause between cycles.
	Interval time.Duration
	// Batch caps candidates per cycle; 0 means no cap.
	Batch int
	// PromptTimeout bounds the prompts of one won claim. They run detached
	// from the loop context so shutdown does not strand a claimed invite.
	// 0 means 30s.
	PromptTimeout time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// CycleResult summarizes one RunOnce.
type CycleResult struct {
	Candidates int
	Claimed    int
	Skipped    int
	Delivered  int
	Failed     int
}

func (d *SurveyDispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d *SurveyDispatcher) promptTimeout() time.Duration {
	if d.PromptTimeout > 0 {
		return d.PromptTimeout
	}
	return 30 * time.Second
}

// Run executes a cycle immediately and then every Interval until ctx is
// cancelled. A failed or panicking cycle is logged and the loop continues.
func (d *SurveyDispatcher) Run(ctx context.Context) error {
	interval := d.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	d.Log.Info().Dur("grace", d.Grace).Dur("interval", interval).Msg("survey dispatcher started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		d.safeCycle(ctx)
		select {
		case <-ctx.Done():
			d.Log.Info().Msg("survey dispatcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (d *SurveyDispatcher) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			dispatchCycles.WithLabelValues("panic").Inc()
			d.Log.Error().Interface("panic", r).Msg("survey cycle panicked")
		}
	}()
	if ctx.Err() != nil {
		return
	}
	res, err := d.RunOnce(ctx)
	if err != nil {
		d.Log.Error().Err(err).Msg("survey cycle failed")
		return
	}
	if res.Candidates > 0 {
		d.Log.Info().
			Int("candidates", res.Candidates).
			Int("claimed", res.Claimed).
			Int("skipped", res.Skipped).
			Int("delivered", res.Delivered).
			Int("failed", res.Failed).
			Msg("survey cycle")
	}
}

// RunOnce performs a single poll-claim-deliver pass.
func (d *SurveyDispatcher) RunOnce(ctx context.Context) (CycleResult, error) {
	var res CycleResult
	cutoff := d.now().Add(-d.Grace)

	candidates, err := repo.ListSurveyCandidates(ctx, d.DB, cutoff, d.Batch)
	if err != nil {
		dispatchCycles.WithLabelValues("error").Inc()
		return res, fmt.Errorf("list survey candidates: %w", err)
	}
	res.Candidates = len(candidates)

	for i := range candidates {
		if ctx.Err() != nil {
			break
		}
		inv := &candidates[i]
		won, err := repo.ClaimSurvey(ctx, d.DB, inv.ID)
		switch {
		case err != nil:
			surveyClaims.WithLabelValues("error").Inc()
			d.Log.Error().Err(err).Uint64("invite_id", inv.ID).Msg("survey claim failed")
			res.Skipped++
			continue
		case !won:
			surveyClaims.WithLabelValues("lost").Inc()
			res.Skipped++
			continue
		}
		surveyClaims.WithLabelValues("won").Inc()
		res.Claimed++

		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.promptTimeout())
		for _, p := range [][2]domain.User{{inv.Initiator, inv.Responder}, {inv.Responder, inv.Initiator}} {
			if d.promptParty(pctx, inv, p[0], p[1]) {
				res.Delivered++
			} else {
				res.Failed++
			}
		}
		cancel()
	}
	dispatchCycles.WithLabelValues("ok").Inc()
	return res, nil
}

// promptParty records and delivers the survey prompt for one party. It
// reports whether the message was delivered; failures never propagate.
func (d *SurveyDispatcher) promptParty(ctx context.Context, inv *domain.Invite, to, partner domain.User) bool {
	text := d.Render.SurveyPrompt(inv, partner)
	log := d.Log.With().Uint64("invite_id", inv.ID).Int64("tg_id", to.TgID).Logger()

	if d.Sink != nil {
		_, err := d.Sink.Append(ctx, d.DB, to.ID, domain.NotificationSurvey, map[string]any{
			"invite_id":     inv.ID,
			"partner_name":  d.Render.Display(partner),
			"partner_tg":    partner.TgID,
			"place_name":    inv.VenueName,
			"time_readable": d.Render.MeetingTime(inv.MeetingTime),
			"prompt":        text,
		})
		if err != nil {
			log.Error().Err(err).Msg("survey notification append failed")
		}
	}

	if d.Messenger == nil {
		surveyDeliveries.WithLabelValues("skipped").Inc()
		return false
	}
	id := strconv.FormatUint(inv.ID, 10)
	err := d.Messenger.Deliver(ctx, telegram.Message{
		ChatID: to.TgID,
		Text:   text,
		Markup: telegram.NewKeyboard([]telegram.InlineKeyboardButton{
			telegram.CallbackButton(d.Render.Text(render.ButtonYes), "survey:"+id+":"+domain.SurveyAnswerYes),
			telegram.CallbackButton(d.Render.Text(render.ButtonNo), "survey:"+id+":"+domain.SurveyAnswerNo),
		}),
	})
	if err != nil {
		surveyDeliveries.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Msg("survey prompt delivery failed")
		return false
	}
	surveyDeliveries.WithLabelValues("ok").Inc()
	return true
}
