package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/mealdash/mealdash-backend/pkg/enums"
	"github.com/mealdash/mealdash-backend/pkg/logger"
)

// PushNote is the device-facing shape of a notification.
type PushNote struct {
	Kind    enums.NotificationType
	Title   string
	Message string
	OrderID *uuid.UUID
}

// Pusher delivers one note to one device token. Implementations talk
// to the provider; retries live in the caller.
type Pusher interface {
	Push(ctx context.Context, token string, note PushNote) error
}

// LogPusher stands in when no push provider is configured. Every note
// is logged and reported delivered.
type LogPusher struct {
	logg *logger.Logger
}

// NewLogPusher returns a pusher that only logs.
func NewLogPusher(logg *logger.Logger) *LogPusher {
	return &LogPusher{logg: logg}
}

func (p *LogPusher) Push(ctx context.Context, token string, note PushNote) error {
	ctx = p.logg.WithFields(ctx, map[string]any{
		"push_kind":  string(note.Kind),
		"push_title": note.Title,
	})
	p.logg.Info(ctx, "push delivered (log pusher)")
	return nil
}

const pushBackoffBase = 200 * time.Millisecond

// pushWithRetry delivers a note with bounded exponential backoff. Each
// attempt is capped by the configured timeout; exhaustion returns the
// last push error.
func pushWithRetry(ctx context.Context, pusher Pusher, token string, note PushNote, timeout time.Duration, maxAttempts uint64) error {
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(pushBackoffBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := pusher.Push(attemptCtx, token, note); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
