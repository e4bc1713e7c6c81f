package otp

import (
	"context"
	"log/slog"

	"github.com/iliyamo/otp-session-auth/internal/model"
)

// Notifier delivers a freshly issued challenge to its recipient.
type Notifier interface {
	Notify(ctx context.Context, c model.OtpChallenge) error
}

// LogNotifier is the mock delivery channel: it writes the code to the log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, c model.OtpChallenge) error {
	n.Logger.InfoContext(ctx, "mock otp sent",
		"to", c.Recipient,
		"type", string(c.Type),
		"otp", c.Code,
		"expires_at", c.ExpiresAt,
	)
	return nil
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, c model.OtpChallenge) error

func (f NotifierFunc) Notify(ctx context.Context, c model.OtpChallenge) error { return f(ctx, c) }
