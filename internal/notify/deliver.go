// Package notify carries outbound side effects for the invite lifecycle:
// the append-only notification sink, best-effort message delivery with capped
// retries, and a bounded pool for work that must not block a request.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/tbourn/meet-eat-backend/internal/telegram"
)

// ErrDeliveryFailure wraps the last error of a delivery that exhausted its
// attempts. It never leaves the component that produced it.
var ErrDeliveryFailure = errors.New("delivery failed")

// Sender is the subset of the messaging gateway used for delivery.
type Sender interface {
	SendMessage(ctx context.Context, m telegram.Message) error
}

// Deliverer sends messages with a capped exponential backoff. Client errors
// other than rate limiting are not retried.
type Deliverer struct {
	Sender   Sender
	Attempts uint
	Initial  time.Duration
	Max      time.Duration
	Log      zerolog.Logger
}

// NewDeliverer returns a Deliverer with defaults applied.
func NewDeliverer(s Sender, attempts int, initial, maxDelay time.Duration, log zerolog.Logger) *Deliverer {
	if attempts <= 0 {
		attempts = 1
	}
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	if maxDelay < initial {
		maxDelay = initial
	}
	return &Deliverer{Sender: s, Attempts: uint(attempts), Initial: initial, Max: maxDelay, Log: log}
}

// Deliver sends m. A disabled gateway is not an error. Any other failure is
// returned wrapped in ErrDeliveryFailure after the attempts are used up.
func (d *Deliverer) Deliver(ctx context.Context, m telegram.Message) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.Initial
	b.MaxInterval = d.Max

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := d.Sender.SendMessage(ctx, m)
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, telegram.ErrDisabled):
			return struct{}{}, backoff.Permanent(err)
		}
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) {
			if !apiErr.Temporary() {
				return struct{}{}, backoff.Permanent(err)
			}
			if wait := time.Duration(apiErr.RetryAfter) * time.Second; wait > 0 && wait <= d.Max {
				return struct{}{}, backoff.RetryAfter(apiErr.RetryAfter)
			}
		}
		d.Log.Debug().Err(err).Int64("chat_id", m.ChatID).Int("attempt", attempt).Msg("delivery attempt failed")
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(d.Attempts))

	if err == nil || errors.Is(err, telegram.ErrDisabled) {
		return nil
	}
	return fmt.Errorf("%w: chat %d after %d attempt(s): %v", ErrDeliveryFailure, m.ChatID, attempt, err)
}
