package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/otp-session-auth/internal/model"
)

// DefaultTimeout bounds a single Backend call when none is configured.
const DefaultTimeout = 5 * time.Second

// Store is the single long-lived handle through which every component reads
// and mutates the credential collections.
type Store struct {
	backend Backend
	timeout time.Duration
	logger  *slog.Logger
}

// New wraps backend.  A non-positive timeout falls back to DefaultTimeout.
func New(backend Backend, timeout time.Duration, logger *slog.Logger) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, timeout: timeout, logger: logger}
}

// loadAll reads a collection.  Missing and corrupt documents both come back
// as an empty slice; a corrupt document is overwritten by the next write.
func loadAll[T any](ctx context.Context, s *Store, c Collection) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.backend.Load(ctx, c)
	if errors.Is(err, ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		s.logger.WarnContext(ctx, "collection corrupt, reinitializing with empty set",
			"collection", string(c), "error", err)
		return []T{}, nil
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// replaceAll writes a collection back in full.
func replaceAll[T any](ctx context.Context, s *Store, c Collection, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.backend.Replace(ctx, c, data); err != nil {
		return fmt.Errorf("replace %s: %w", c, err)
	}
	s.logger.DebugContext(ctx, "collection written", "collection", string(c), "records", len(items))
	return nil
}

// ----- users -----

// Users returns every stored user.
func (s *Store) Users(ctx context.Context) ([]model.User, error) {
	return loadAll[model.User](ctx, s, Users)
}

// FindUser returns the first user matching pred.
func (s *Store) FindUser(ctx context.Context, pred func(model.User) bool) (model.User, bool, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return model.User{}, false, err
	}
	for _, u := range users {
		if pred(u) {
			return u, true, nil
		}
	}
	return model.User{}, false, nil
}

// AppendUser re-reads the users collection, appends u and writes it back.
func (s *Store) AppendUser(ctx context.Context, u model.User) error {
	users, err := s.Users(ctx)
	if err != nil {
		return err
	}
	return replaceAll(ctx, s, Users, append(users, u))
}

// UpdateUser applies fn to the user with the given id and persists the
// collection.  It reports false, without writing, when no such user exists.
func (s *Store) UpdateUser(ctx context.Context, id string, fn func(*model.User)) (bool, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return false, err
	}
	for i := range users {
		if users[i].ID == id {
			fn(&users[i])
			return true, replaceAll(ctx, s, Users, users)
		}
	}
	return false, nil
}

// ----- otp challenges -----

// Challenges returns every stored OTP challenge in insertion order.
func (s *Store) Challenges(ctx context.Context) ([]model.OtpChallenge, error) {
	return loadAll[model.OtpChallenge](ctx, s, Challenges)
}

// AppendChallenge re-reads the challenges collection, appends c and writes it back.
func (s *Store) AppendChallenge(ctx context.Context, c model.OtpChallenge) error {
	challenges, err := s.Challenges(ctx)
	if err != nil {
		return err
	}
	return replaceAll(ctx, s, Challenges, append(challenges, c))
}

// RemoveFirstChallenge deletes the first challenge matching pred.  It
// reports false, without writing, when nothing matched.
func (s *Store) RemoveFirstChallenge(ctx context.Context, pred func(model.OtpChallenge) bool) (bool, error) {
	challenges, err := s.Challenges(ctx)
	if err != nil {
		return false, err
	}
	for i, c := range challenges {
		if pred(c) {
			rest := append(challenges[:i:i], challenges[i+1:]...)
			return true, replaceAll(ctx, s, Challenges, rest)
		}
	}
	return false, nil
}

// ----- active refresh tokens -----

// RefreshTokens returns the active refresh-token set.
func (s *Store) RefreshTokens(ctx context.Context) ([]string, error) {
	return loadAll[string](ctx, s, RefreshTokens)
}

// HasRefreshToken reports whether token is in the active set.
func (s *Store) HasRefreshToken(ctx context.Context, token string) (bool, error) {
	tokens, err := s.RefreshTokens(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range tokens {
		if t == token {
			return true, nil
		}
	}
	return false, nil
}

// AppendRefreshToken re-reads the active set, appends token and writes it back.
func (s *Store) AppendRefreshToken(ctx context.Context, token string) error {
	tokens, err := s.RefreshTokens(ctx)
	if err != nil {
		return err
	}
	return replaceAll(ctx, s, RefreshTokens, append(tokens, token))
}

// RemoveRefreshToken drops every occurrence of token from the active set and
// reports whether anything was removed.
func (s *Store) RemoveRefreshToken(ctx context.Context, token string) (bool, error) {
	tokens, err := s.RefreshTokens(ctx)
	if err != nil {
		return false, err
	}
	kept := tokens[:0]
	for _, t := range tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tokens) {
		return false, nil
	}
	return true, replaceAll(ctx, s, RefreshTokens, kept)
}
