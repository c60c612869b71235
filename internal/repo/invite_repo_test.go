package repo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tbourn/meet-eat-backend/internal/domain"
)

func TestCreateInvite_ForcesPendingAndGetPreloads(t *testing.T) {
	db := newStoreDB(t)
	ctx := context.Background()
	us := seedUsers(t, db, 1, 2)

	mt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.FixedZone("x", 5*3600))
	now := time.Now()
	inv := &domain.Invite{
		InitiatorID: us[0].ID, ResponderID: us[1].ID,
		MeetingTime: &mt, Status: domain.InviteStatusAccepted,
		SurveyDispatched: true, RespondedAt: &now,
	}
	if err := CreateInvite(ctx, db, inv); err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}

	got, err := GetInvite(ctx, db, inv.ID)
	if err != nil {
		t.Fatalf("GetInvite: %v", err)
	}
	if got.Status != domain.InviteStatusPending || got.SurveyDispatched || got.RespondedAt != nil {
		t.Fatalf("lifecycle fields not reset: %+v", got)
	}
	if got.MeetingTime == nil || !got.MeetingTime.Equal(mt) {
		t.Fatalf("meeting time not round-tripped: %v vs %v", got.MeetingTime, mt)
	}
	if got.Initiator.TgID != 1 || got.Responder.TgID != 2 {
		t.Fatalf("parties not preloaded: %+v / %+v", got.Initiator, got.Responder)
	}

	if _, err := GetInvite(ctx, db, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveInvite_OnlyFromPending(t *testing.T) {
	db := newStoreDB(t)
	ctx := context.Background()
	us := seedUsers(t, db, 1, 2)
	inv := seedInvite(t, db, us[0], us[1])

	at := time.Now().UTC()
	ok, err := ResolveInvite(ctx, db, inv.ID, domain.InviteStatusAccepted, us[1].ID, at)
	if err != nil || !ok {
		t.Fatalf("first resolve: ok=%v err=%v", ok, err)
	}
	ok, err = ResolveInvite(ctx, db, inv.ID, domain.InviteStatusDeclined, us[1].ID, at)
	if err != nil || ok {
		t.Fatalf("second resolve should not apply: ok=%v err=%v", ok, err)
	}
	ok, err = ResolveInvite(ctx, db, 9999, domain.InviteStatusDeclined, us[1].ID, at)
	if err != nil || ok {
		t.Fatalf("missing invite should not apply: ok=%v err=%v", ok, err)
	}

	got, _ := GetInvite(ctx, db, inv.ID)
	if got.Status != domain.InviteStatusAccepted || got.RespondedAt == nil ||
		got.ResponderIdentityID == nil || *got.ResponderIdentityID != us[1].ID {
		t.Fatalf("unexpected resolved invite: %+v", got)
	}
}

func TestResolveInvite_ConcurrentSingleWinner(t *testing.T) {
	db := newStoreDB(t)
	ctx := context.Background()
	us := seedUsers(t, db, 1, 2)
	inv := seedInvite(t, db, us[0], us[1])

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := domain.InviteStatusAccepted
			if i%2 == 1 {
				status = domain.InviteStatusDeclined
			}
			ok, err := ResolveInvite(ctx, db, inv.ID, status, us[1].ID, time.Now())
			if err != nil {
				t.Errorf("ResolveInvite: %v", err)
				return
			}
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestListPendingInvitesFor(t *testing.T) {
	db := newStoreDB(t)
	ctx := context.Background()
	us := seedUsers(t, db, 1, 2, 3)

	a := seedInvite(t, db, us[0], us[1])
	b := seedInvite(t, db, us[2], us[1])
	seedInvite(t, db, us[1], us[0]) // outgoing, not listed
	c := seedInvite(t, db, us[0], us[1])
	if _, err := ResolveInvite(ctx, db, c.ID, domain.InviteStatusDeclined, us[1].ID, time.Now()); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	got, err := ListPendingInvitesFor(ctx, db, us[1].ID, 0)
	if err != nil {
		t.Fatalf("ListPendingInvitesFor: %v", err)
	}
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
		t.Fatalf("unexpected list: %+v", got)
	}
	if got[0].Initiator.TgID != 3 {
		t.Fatalf("initiator not preloaded: %+v", got[0].Initiator)
	}

	limited, _ := ListPendingInvitesFor(ctx, db, us[1].ID, 1)
	if len(limited) != 1 {
		t.Fatalf("limit not applied: %d", len(limited))
	}
}

func TestListSurveyCandidates_FiltersByStatusFlagAndCutoff(t *testing.T) {
	db := newStoreDB(t)
	ctx := context.Background()
	us := seedUsers(t, db, 1, 2)
	now := time.Now().UTC()

	old := seedInvite(t, db, us[0], us[1])
	fresh := seedInvite(t, db, us[0], us[1])
	declined := seedInvite(t, db, us[0], us[1])
	claimed := seedInvite(t, db, us[0], us[1])
	seedInvite(t, db, us[0], us[1]) // still pending

	mustResolve := func(id uint64, status string, at time.Time) {
		t.Helper()
		if ok, err := ResolveInvite(ctx, db, id, status, us[1].ID, at); err != nil || !ok {
			t.Fatalf("resolve %d: ok=%v err=%v", id, ok, err)
		}
	}
	mustResolve(old.ID, domain.InviteStatusAccepted, now.Add(-2*time.Hour))
	mustResolve(fresh.ID, domain.InviteStatusAccepted, now.Add(-time.Minute))
	mustResolve(declined.ID, domain.InviteStatusDeclined, now.Add(-2*time.Hour))
	mustResolve(claimed.ID, domain.InviteStatusAccepted, now.Add(-3*time.Hour))
	if ok, err := ClaimSurvey(ctx, db, claimed.ID); err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}

	got, err := ListSurveyCandidates(ctx, db, now.Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("ListSurveyCandidates: %v", err)
	}
	if len(got) != 1 || got[0].ID != old.ID {
		t.Fatalf("expected only the old accepted invite, got %+v", got)
	}
	if got[0].Initiator.TgID != 1 || got[0].Responder.TgID != 2 {
		t.Fatalf("parties not preloaded")
	}

	all, _ := ListSurveyCandidates(ctx, db, now, 10)
	if len(all) != 2 || all[0].ID != old.ID || all[1].ID != fresh.ID {
		t.Fatalf("expected old then fresh, got %+v", all)
	}
}

func TestClaimSurvey_OnlyAcceptedAndOnce(t *testing.T) {
	db := newStoreDB(t)
	ctx := context.Background()
	us := seedUsers(t, db, 1, 2)
	inv := seedInvite(t, db, us[0], us[1])

	if ok, err := ClaimSurvey(ctx, db, inv.ID); err != nil || ok {
		t.Fatalf("pending invite must not be claimable: ok=%v err=%v", ok, err)
	}
	if _, err := ResolveInvite(ctx, db, inv.ID, domain.InviteStatusAccepted, us[1].ID, time.Now()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ok, err := ClaimSurvey(ctx, db, inv.ID); err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	if ok, err := ClaimSurvey(ctx, db, inv.ID); err != nil || ok {
		t.Fatalf("second claim must fail: ok=%v err=%v", ok, err)
	}
	got, _ := GetInvite(ctx, db, inv.ID)
	if !got.SurveyDispatched {
		t.Fatalf("survey_dispatched not set")
	}
}

func TestClaimSurvey_ConcurrentExactlyOne(t *testing.T) {
	db := newStoreDB(t)
	ctx := context.Background()
	us := seedUsers(t, db, 1, 2)
	inv := seedInvite(t, db, us[0], us[1])
	if _, err := ResolveInvite(ctx, db, inv.ID, domain.InviteStatusAccepted, us[1].ID, time.Now()); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	const n = 32
	var wins int32
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := ClaimSurvey(ctx, db, inv.ID)
			if err != nil {
				t.Errorf("ClaimSurvey: %v", err)
				return
			}
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one successful claim out of %d, got %d", n, wins)
	}
}
