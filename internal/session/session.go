// Package session issues and rotates access/refresh token pairs.  The
// active refresh-token set in the credential store is the authority for
// whether a refresh token may still be exchanged.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/otp-session-auth/internal/model"
	"github.com/iliyamo/otp-session-auth/internal/store"
	"github.com/iliyamo/otp-session-auth/internal/token"
)

// Default lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	// ErrNotActive means the refresh token is not in the active set.
	ErrNotActive = errors.New("refresh token not active")
	// ErrInvalid means the refresh token failed signature or expiry checks.
	// The token has been removed from the active set.
	ErrInvalid = errors.New("refresh token invalid")
)

// Config carries the two secrets and lifetimes.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Pair is a freshly minted access/refresh token pair.
type Pair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Manager mints and rotates token pairs against the credential store.
type Manager struct {
	store  *store.Store
	codec  *token.Codec
	cfg    Config
	logger *slog.Logger
}

// NewManager returns a Manager.  Zero TTLs fall back to the defaults.
func NewManager(s *store.Store, codec *token.Codec, cfg Config, logger *slog.Logger) *Manager {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Manager{store: s, codec: codec, cfg: cfg, logger: logger}
}

// RefreshTTL is the lifetime of refresh tokens, used for the cookie Max-Age.
func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

// Login issues a new pair for u and records the refresh token as active.
func (m *Manager) Login(ctx context.Context, u model.User) (Pair, error) {
	return m.issue(ctx, token.Identity{UserID: u.ID, Email: u.Email})
}

// Check validates a refresh token without rotating it: it must be in the
// active set and carry a valid signature and expiry.  A token that fails the
// signature/expiry check is dropped from the active set.
func (m *Manager) Check(ctx context.Context, refreshToken string) (token.Identity, error) {
	active, err := m.store.HasRefreshToken(ctx, refreshToken)
	if err != nil {
		return token.Identity{}, err
	}
	if !active {
		return token.Identity{}, ErrNotActive
	}
	id, err := m.codec.Verify(refreshToken, m.cfg.RefreshSecret)
	if err != nil {
		if _, rmErr := m.store.RemoveRefreshToken(ctx, refreshToken); rmErr != nil {
			return token.Identity{}, rmErr
		}
		m.logger.InfoContext(ctx, "stale refresh token removed from active set")
		return token.Identity{}, ErrInvalid
	}
	return id, nil
}

// Refresh exchanges an active refresh token for a new pair.  The old token
// stays in the active set; only explicit Revoke removes a valid token.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (Pair, error) {
	id, err := m.Check(ctx, refreshToken)
	if err != nil {
		return Pair{}, err
	}
	return m.issue(ctx, id)
}

// Rotate issues a new pair for an identity whose refresh token the caller
// has already validated with Check.
func (m *Manager) Rotate(ctx context.Context, id token.Identity) (Pair, error) {
	return m.issue(ctx, id)
}

// Revoke removes refreshToken from the active set.  Revoking an unknown
// token is not an error.
func (m *Manager) Revoke(ctx context.Context, refreshToken string) error {
	_, err := m.store.RemoveRefreshToken(ctx, refreshToken)
	return err
}

// Authenticate verifies an access token and returns its identity.
func (m *Manager) Authenticate(accessToken string) (token.Identity, error) {
	return m.codec.Verify(accessToken, m.cfg.AccessSecret)
}

func (m *Manager) issue(ctx context.Context, id token.Identity) (Pair, error) {
	access, accessExp, err := m.codec.Issue(id, m.cfg.AccessSecret, m.cfg.AccessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("issue access: %w", err)
	}
	refresh, refreshExp, err := m.codec.Issue(id, m.cfg.RefreshSecret, m.cfg.RefreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("issue refresh: %w", err)
	}
	if err := m.store.AppendRefreshToken(ctx, refresh); err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}
