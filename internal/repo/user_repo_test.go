package repo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tbourn/meet-eat-backend/internal/domain"
)

func TestGetUserByTgID_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	if _, err := GetUserByTgID(context.Background(), db, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := GetUser(context.Background(), db, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnsureUser_CreatesOnceAndFillsBlanks(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	u1, err := EnsureUser(ctx, db, domain.User{TgID: 7})
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if u1.ID == 0 || u1.TgID != 7 || u1.Name != "" {
		t.Fatalf("unexpected user: %+v", u1)
	}

	u2, err := EnsureUser(ctx, db, domain.User{TgID: 7, Name: " Dana ", Username: "@dana"})
	if err != nil {
		t.Fatalf("EnsureUser again: %v", err)
	}
	if u2.ID != u1.ID || u2.Name != "Dana" || u2.Username != "dana" {
		t.Fatalf("expected same row with filled profile, got %+v", u2)
	}

	// Existing values are not overwritten.
	u3, err := EnsureUser(ctx, db, domain.User{TgID: 7, Name: "Other"})
	if err != nil || u3.Name != "Dana" {
		t.Fatalf("name should stay, got %+v err=%v", u3, err)
	}

	var n int64
	db.Model(&domain.User{}).Where("tg_id = ?", 7).Count(&n)
	if n != 1 {
		t.Fatalf("expected exactly one row, got %d", n)
	}
}

func TestEnsureUser_ConcurrentCallersShareRow(t *testing.T) {
	db := newStoreDB(t)
	ctx := context.Background()

	const n = 8
	ids := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := EnsureUser(ctx, db, domain.User{TgID: 555})
			if err != nil {
				t.Errorf("EnsureUser: %v", err)
				return
			}
			ids[i] = u.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("callers saw different ids: %v", ids)
		}
	}
}
