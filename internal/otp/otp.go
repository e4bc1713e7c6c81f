// Package otp issues and verifies six-digit one-time passcodes that prove
// control of an email address or mobile number.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/iliyamo/otp-session-auth/internal/model"
	"github.com/iliyamo/otp-session-auth/internal/store"
)

// DefaultTTL is how long a challenge stays valid after issue.
const DefaultTTL = 5 * time.Minute

const (
	codeMin   = 100000
	codeRange = 900000 // codes are uniform over [100000, 999999]
)

var (
	// ErrNotFound means no challenge matched the recipient and code.
	ErrNotFound = errors.New("otp not found")
	// ErrExpired means the matching challenge had expired; it has been removed.
	ErrExpired = errors.New("otp expired")
)

// Engine issues challenges into the credential store and consumes them on
// verification.
type Engine struct {
	store    *store.Store
	notifier Notifier
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option { return func(e *Engine) { e.ttl = ttl } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// NewEngine wires an Engine to the store and notification channel.
func NewEngine(s *store.Store, n Notifier, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{store: s, notifier: n, ttl: DefaultTTL, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Issue creates a challenge for recipient, persists it and hands it to the
// notifier.  A delivery failure is logged but does not undo the challenge.
func (e *Engine) Issue(ctx context.Context, recipient string, typ model.OtpType, userID string) (model.OtpChallenge, error) {
	code, err := generateCode()
	if err != nil {
		return model.OtpChallenge{}, fmt.Errorf("generate otp: %w", err)
	}
	c := model.OtpChallenge{
		Recipient: recipient,
		Code:      code,
		ExpiresAt: e.now().UTC().Add(e.ttl),
		Type:      typ,
		UserID:    userID,
	}
	if err := e.store.AppendChallenge(ctx, c); err != nil {
		return model.OtpChallenge{}, err
	}
	if err := e.notifier.Notify(ctx, c); err != nil {
		e.logger.ErrorContext(ctx, "otp dispatch failed",
			"type", string(typ), "user_id", userID, "error", err)
	}
	return c, nil
}

// Verify consumes the first challenge matching (recipient, code).  On success
// the owning user is marked verified and its id returned.  An expired match
// is removed and reported as ErrExpired; no match mutates nothing.
func (e *Engine) Verify(ctx context.Context, recipient, code string) (string, error) {
	challenges, err := e.store.Challenges(ctx)
	if err != nil {
		return "", err
	}
	var (
		match model.OtpChallenge
		found bool
	)
	for _, c := range challenges {
		if c.Recipient == recipient && c.Code == code {
			match, found = c, true
			break
		}
	}
	if !found {
		return "", ErrNotFound
	}

	same := func(c model.OtpChallenge) bool {
		return c.Recipient == match.Recipient && c.Code == match.Code &&
			c.UserID == match.UserID && c.ExpiresAt.Equal(match.ExpiresAt)
	}

	if match.Expired(e.now()) {
		if _, err := e.store.RemoveFirstChallenge(ctx, same); err != nil {
			return "", err
		}
		return "", ErrExpired
	}

	updated, err := e.store.UpdateUser(ctx, match.UserID, func(u *model.User) { u.IsVerified = true })
	if err != nil {
		return "", err
	}
	if !updated {
		e.logger.WarnContext(ctx, "user not found for otp verification", "user_id", match.UserID)
	}
	if _, err := e.store.RemoveFirstChallenge(ctx, same); err != nil {
		return "", err
	}
	return match.UserID, nil
}

// generateCode draws a uniform six-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
