package services

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/telegram"
)

// NotificationSink appends rows to a user's notification feed.
type NotificationSink interface {
	Append(ctx context.Context, db *gorm.DB, userID uint64, typ string, payload any) (*domain.Notification, error)
}

// Messenger delivers a message to a chat, retrying as it sees fit.
type Messenger interface {
	Deliver(ctx context.Context, m telegram.Message) error
}

// Runner schedules work outside the caller's request.
type Runner interface {
	Go(name string, fn func(ctx context.Context) error)
}

// Outbox groups the side effects that follow a committed state change.
// Failures are logged and never returned.
type Outbox struct {
	Sink      NotificationSink
	Messenger Messenger
	// Async runs deliveries off the request path. When nil, deliveries run
	// inline on a context detached from the caller's cancellation.
	Async Runner
	Log   zerolog.Logger
}

// record appends a notification for userID.
func (o *Outbox) record(ctx context.Context, db *gorm.DB, userID uint64, typ string, payload any) {
	if o == nil || o.Sink == nil {
		return
	}
	if _, err := o.Sink.Append(ctx, db, userID, typ, payload); err != nil {
		o.Log.Error().Err(err).Uint64("user_id", userID).Str("type", typ).Msg("notification append failed")
	}
}

// send delivers m without blocking the caller when an Async runner is set.
func (o *Outbox) send(ctx context.Context, name string, m telegram.Message) {
	if o == nil || o.Messenger == nil || m.ChatID == 0 {
		return
	}
	deliver := func(ctx context.Context) error { return o.Messenger.Deliver(ctx, m) }
	if o.Async != nil {
		o.Async.Go(name, deliver)
		return
	}
	if err := deliver(context.WithoutCancel(ctx)); err != nil {
		o.Log.Warn().Err(err).Str("task", name).Int64("chat_id", m.ChatID).Msg("message delivery failed")
	}
}
