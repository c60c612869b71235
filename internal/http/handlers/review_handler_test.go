package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/meet-eat-backend/internal/domain"
)

func TestToggleReview_AddRemove_AndSummary(t *testing.T) {
	e := newEnv(t, "")
	label := domain.AllowedReactions[2]

	if w := e.do(http.MethodPost, "/reviews/toggle", "{}", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("empty body -> %d", w.Code)
	}
	if w := e.do(http.MethodPost, "/reviews/toggle", ToggleReviewRequest{ReviewerTgID: 1, TargetTgID: 2, Reaction: "Скучный"}, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown reaction -> %d", w.Code)
	}
	if w := e.do(http.MethodPost, "/reviews/toggle", ToggleReviewRequest{ReviewerTgID: 1, TargetTgID: 1, Reaction: label}, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("self review -> %d", w.Code)
	}

	w := e.do(http.MethodPost, "/reviews/toggle", ToggleReviewRequest{ReviewerTgID: 1, TargetTgID: 2, Reaction: label}, nil)
	if w.Code != http.StatusOK || decode[ToggleReviewResponse](t, w).Action != "added" {
		t.Fatalf("first toggle -> %d %s", w.Code, w.Body.String())
	}

	w = e.do(http.MethodGet, "/reviews?tg_id=2&viewer_tg_id=1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary -> %d", w.Code)
	}
	sum := decode[ReviewSummaryResponse](t, w)
	if sum.Target.TgID != 2 || len(sum.Counts) != len(domain.AllowedReactions) {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	for _, c := range sum.Counts {
		want := int64(0)
		if c.Reaction == label {
			want = 1
		}
		if c.Count != want {
			t.Fatalf("count for %q = %d, want %d", c.Reaction, c.Count, want)
		}
	}
	if len(sum.Recent) != 1 || len(sum.Mine) != 1 || sum.Mine[0] != label {
		t.Fatalf("recent/mine unexpected: %+v", sum)
	}

	w = e.do(http.MethodPost, "/reviews/toggle", ToggleReviewRequest{ReviewerTgID: 1, TargetTgID: 2, Reaction: label}, nil)
	if w.Code != http.StatusOK || decode[ToggleReviewResponse](t, w).Action != "removed" {
		t.Fatalf("second toggle -> %d %s", w.Code, w.Body.String())
	}

	w = e.do(http.MethodGet, "/reviews?tg_id=2", nil, nil)
	sum = decode[ReviewSummaryResponse](t, w)
	if len(sum.Recent) != 0 || sum.Recent == nil || len(sum.Mine) != 0 {
		t.Fatalf("after removal: %+v", sum)
	}
}

func TestGetReviews_Errors(t *testing.T) {
	e := newEnv(t, "")
	if w := e.do(http.MethodGet, "/reviews", nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing tg_id -> %d", w.Code)
	}
	w := e.do(http.MethodGet, "/reviews?tg_id=777", nil, nil)
	if w.Code != http.StatusNotFound || decode[ErrorResponse](t, w).Code != ErrCodeNotFound {
		t.Fatalf("unknown target -> %d %s", w.Code, w.Body.String())
	}
}
