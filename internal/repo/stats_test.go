package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/meet-eat-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", filepath.Base(t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// newStoreDB opens a file-backed store through OpenSQLite with the full
// schema, matching production pool settings.
func newStoreDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	db = db.Session(&gorm.Session{Logger: logger.Default.LogMode(logger.Silent)})
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func seedUsers(t *testing.T, db *gorm.DB, tgIDs ...int64) []*domain.User {
	t.Helper()
	out := make([]*domain.User, 0, len(tgIDs))
	for _, tg := range tgIDs {
		u := &domain.User{TgID: tg, Name: fmt.Sprintf("user%d", tg)}
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user %d: %v", tg, err)
		}
		out = append(out, u)
	}
	return out
}

func seedInvite(t *testing.T, db *gorm.DB, from, to *domain.User) *domain.Invite {
	t.Helper()
	inv := &domain.Invite{InitiatorID: from.ID, ResponderID: to.ID, MealType: "lunch", VenueName: "Cafe"}
	if err := CreateInvite(context.Background(), db, inv); err != nil {
		t.Fatalf("seed invite: %v", err)
	}
	return inv
}

func TestNotificationsStats_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, _, _, err := NotificationsStats(context.Background(), db, 1); err == nil {
		t.Fatalf("expected error due to missing notifications table")
	}
}

func TestNotificationsStats_EmptyAndCounts(t *testing.T) {
	db := newTestDB(t, &domain.Notification{})
	ctx := context.Background()

	c, u, maxID, err := NotificationsStats(ctx, db, 1)
	if err != nil || c != 0 || u != 0 || maxID != 0 {
		t.Fatalf("empty stats = (%d,%d,%d,%v)", c, u, maxID, err)
	}

	var last *domain.Notification
	for i := 0; i < 3; i++ {
		n, err := CreateNotification(ctx, db, 1, domain.NotificationSurvey, []byte(`{}`))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		last = n
	}
	if _, err := CreateNotification(ctx, db, 2, domain.NotificationSurvey, nil); err != nil {
		t.Fatalf("create other user: %v", err)
	}
	if err := MarkNotificationRead(ctx, db, 1, last.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	c, u, maxID, err = NotificationsStats(ctx, db, 1)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if c != 3 || u != 2 || maxID != last.ID {
		t.Fatalf("stats = (%d,%d,%d), want (3,2,%d)", c, u, maxID, last.ID)
	}
}

func TestPendingInvitesStats(t *testing.T) {
	db := newStoreDB(t)
	ctx := context.Background()
	us := seedUsers(t, db, 10, 20)

	c, mx, err := PendingInvitesStats(ctx, db, us[1].ID)
	if err != nil || c != 0 || mx != nil {
		t.Fatalf("empty stats = (%d,%v,%v)", c, mx, err)
	}

	seedInvite(t, db, us[0], us[1])
	inv2 := seedInvite(t, db, us[0], us[1])
	if ok, err := ResolveInvite(ctx, db, inv2.ID, domain.InviteStatusDeclined, us[1].ID, time.Now()); err != nil || !ok {
		t.Fatalf("resolve: ok=%v err=%v", ok, err)
	}

	c, mx, err = PendingInvitesStats(ctx, db, us[1].ID)
	if err != nil || c != 1 || mx == nil {
		t.Fatalf("stats = (%d,%v,%v), want one pending", c, mx, err)
	}
}
