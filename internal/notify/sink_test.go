package notify

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/repo"
)

func newSinkDB(t *testing.T) (*gorm.DB, *domain.User) {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "sink.db"))
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	u, err := repo.EnsureUser(context.Background(), db, domain.User{TgID: 100, Name: "A"})
	require.NoError(t, err)
	return db, u
}

type recordingPublisher struct {
	got []*domain.Notification
	err error
}

func (p *recordingPublisher) Publish(_ context.Context, n *domain.Notification) error {
	p.got = append(p.got, n)
	return p.err
}

func TestSink_AppendStoresJSONAndPublishes(t *testing.T) {
	db, u := newSinkDB(t)
	pub := &recordingPublisher{}
	s := &Sink{Publisher: pub, Log: zerolog.Nop()}

	n, err := s.Append(context.Background(), db, u.ID, domain.NotificationSurvey, map[string]any{
		"invite_id":    7,
		"partner_name": "B",
	})
	require.NoError(t, err)
	require.NotZero(t, n.ID)
	assert.Equal(t, domain.NotificationSurvey, n.Type)
	assert.False(t, n.Read)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(n.Payload, &payload))
	assert.Equal(t, "B", payload["partner_name"])

	require.Len(t, pub.got, 1)
	assert.Equal(t, n.ID, pub.got[0].ID)
}

func TestSink_PublishFailureIsSwallowed(t *testing.T) {
	db, u := newSinkDB(t)
	s := &Sink{Publisher: &recordingPublisher{err: errors.New("nats down")}, Log: zerolog.Nop()}

	n, err := s.Append(context.Background(), db, u.ID, domain.NotificationSurveyNegative, map[string]string{"message": "ok"})
	require.NoError(t, err)

	rows, err := repo.ListNotifications(context.Background(), db, u.ID, 0, 10, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, n.ID, rows[0].ID)
}

func TestSink_RejectsUnencodablePayload(t *testing.T) {
	db, u := newSinkDB(t)
	s := &Sink{Log: zerolog.Nop()}
	_, err := s.Append(context.Background(), db, u.ID, domain.NotificationSurvey, map[string]any{"bad": make(chan int)})
	require.Error(t, err)
}

func TestNATSPublisher_Subject(t *testing.T) {
	p := &NATSPublisher{Prefix: "meeteat.notifications"}
	assert.Equal(t, "meeteat.notifications.42", p.Subject(42))
}
