package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/repo"
)

// Publisher mirrors stored notifications to an external channel.
type Publisher interface {
	Publish(ctx context.Context, n *domain.Notification) error
}

// Sink appends notification rows. When a Publisher is set, each stored row
// is mirrored after the insert; publish failures are logged only.
type Sink struct {
	Publisher Publisher
	Log       zerolog.Logger
}

// Append stores a notification of type typ for userID with payload encoded
// as JSON. db may be a transaction.
func (s *Sink) Append(ctx context.Context, db *gorm.DB, userID uint64, typ string, payload any) (*domain.Notification, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	n, err := repo.CreateNotification(ctx, db, userID, typ, raw)
	if err != nil {
		return nil, err
	}
	if s.Publisher != nil {
		if perr := s.Publisher.Publish(ctx, n); perr != nil {
			s.Log.Warn().Err(perr).Uint64("notification_id", n.ID).Msg("notification publish failed")
		}
	}
	return n, nil
}

// NATSPublisher publishes each notification as JSON on
// "<prefix>.<user_id>".
type NATSPublisher struct {
	Conn   *nats.Conn
	Prefix string
}

// Subject returns the subject for userID.
func (p *NATSPublisher) Subject(userID uint64) string {
	return p.Prefix + "." + strconv.FormatUint(userID, 10)
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(_ context.Context, n *domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.Conn.Publish(p.Subject(n.UserID), body)
}
