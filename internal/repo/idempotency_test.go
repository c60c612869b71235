package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/meet-eat-backend/internal/domain"
)

func TestGetIdempotency_BlankKey_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	rec, err := GetIdempotency(context.Background(), db, "invites.create", "1", "   ", time.Now())
	if rec != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected (nil, ErrNotFound), got (%v, %v)", rec, err)
	}
}

func TestIdempotency_CreateGetExpireDuplicate(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	rec, err := CreateIdempotency(ctx, db, "invites.create", "100", "k1", 42, 201, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ID == "" || rec.ResourceID != 42 || rec.Status != 201 || !rec.ExpiresAt.After(rec.CreatedAt) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "invites.create", "100", "k1", time.Now())
	if err != nil || got.ResourceID != 42 {
		t.Fatalf("GetIdempotency = (%+v, %v)", got, err)
	}

	// Different subject does not see it.
	if _, err := GetIdempotency(ctx, db, "invites.create", "200", "k1", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other subject, got %v", err)
	}

	// Past expiry.
	if _, err := GetIdempotency(ctx, db, "invites.create", "100", "k1", time.Now().Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}

	if _, err := CreateIdempotency(ctx, db, "invites.create", "100", "k1", 43, 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateIdempotency_NoTable(t *testing.T) {
	db := newTestDB(t)
	if _, err := CreateIdempotency(context.Background(), db, "s", "u", "k", 1, 201, time.Minute); err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected raw DB error, got %v", err)
	}
}

func TestIsDuplicate(t *testing.T) {
	cases := map[string]bool{
		"UNIQUE constraint failed: users.tg_id":                true,
		"constraint failed: UNIQUE constraint failed (2067)":   true,
		"Error 1062 (23000): Duplicate entry '1' for key 'x'":  true,
		"duplicate key value violates unique constraint \"x\"": true,
		"no such table: users":                                 false,
	}
	for msg, want := range cases {
		if got := isDuplicate(errors.New(msg)); got != want {
			t.Fatalf("isDuplicate(%q) = %v, want %v", msg, got, want)
		}
	}
}
