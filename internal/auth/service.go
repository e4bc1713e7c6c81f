// Package auth ties the credential store, OTP engine and session manager
// into the signup → verify → login → refresh → access lifecycle.
//
// The service takes no locks.  Each operation is a sequence of whole-
// collection read-modify-write cycles against the store, so two concurrent
// signups for the same email can both pass the duplicate check, and two
// concurrent OTP verifications can both consume the same challenge.  That is
// an accepted limit of the single-process deployment; a transactional
// store.Backend is the upgrade path.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/otp-session-auth/internal/model"
	"github.com/iliyamo/otp-session-auth/internal/otp"
	"github.com/iliyamo/otp-session-auth/internal/password"
	"github.com/iliyamo/otp-session-auth/internal/session"
	"github.com/iliyamo/otp-session-auth/internal/store"
	"github.com/iliyamo/otp-session-auth/internal/token"
)

// Service is the request-level auth state machine.
type Service struct {
	store    *store.Store
	hasher   password.Hasher
	otps     *otp.Engine
	sessions *session.Manager
	logger   *slog.Logger
}

// NewService wires the orchestrator to its collaborators.  All of them must
// share the same store instance.
func NewService(s *store.Store, h password.Hasher, o *otp.Engine, m *session.Manager, logger *slog.Logger) *Service {
	return &Service{store: s, hasher: h, otps: o, sessions: m, logger: logger}
}

// SignupInput is the validated body of a signup request.
type SignupInput struct {
	Name     string
	Email    string
	Mobile   string
	Password string
}

// Signup registers an unverified user and sends one OTP to each channel.
func (s *Service) Signup(ctx context.Context, in SignupInput) (model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Mobile = strings.TrimSpace(in.Mobile)
	if in.Name == "" || in.Email == "" || in.Mobile == "" || in.Password == "" {
		return model.User{}, newError(KindValidation, "All fields are required: name, email, mobile, password")
	}

	_, exists, err := s.store.FindUser(ctx, func(u model.User) bool {
		return u.Email == in.Email || u.Mobile == in.Mobile
	})
	if err != nil {
		return model.User{}, internal("Server error during signup", err)
	}
	if exists {
		return model.User{}, newError(KindConflict, "User with this email or mobile already exists")
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return model.User{}, internal("Server error during signup", err)
	}
	u := model.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Mobile:       in.Mobile,
		PasswordHash: hash,
		IsVerified:   false,
	}
	if err := s.store.AppendUser(ctx, u); err != nil {
		return model.User{}, internal("Server error during signup", err)
	}

	if _, err := s.otps.Issue(ctx, u.Email, model.OtpEmail, u.ID); err != nil {
		return model.User{}, internal("Server error during signup", err)
	}
	if _, err := s.otps.Issue(ctx, u.Mobile, model.OtpMobile, u.ID); err != nil {
		return model.User{}, internal("Server error during signup", err)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login authenticates identifier (email or mobile) and password and starts
// a session.
func (s *Service) Login(ctx context.Context, identifier, plain string) (session.Pair, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || plain == "" {
		return session.Pair{}, newError(KindValidation, "Identifier (email/mobile) and password are required")
	}

	u, found, err := s.store.FindUser(ctx, func(u model.User) bool { return u.Matches(identifier) })
	if err != nil {
		return session.Pair{}, internal("Server error during login", err)
	}
	if !found {
		return session.Pair{}, newError(KindNotFound, "User not found")
	}
	if !u.IsVerified {
		return session.Pair{}, newError(KindForbidden, "Account not verified. Please verify your email/mobile with OTP.")
	}

	ok, err := s.hasher.Verify(ctx, plain, u.PasswordHash)
	if err != nil {
		return session.Pair{}, internal("Server error during login", err)
	}
	if !ok {
		return session.Pair{}, newError(KindUnauthorized, "Invalid credentials")
	}

	pair, err := s.sessions.Login(ctx, u)
	if err != nil {
		return session.Pair{}, internal("Server error during login", err)
	}
	s.logger.InfoContext(ctx, "user logged in", "user_id", u.ID)
	return pair, nil
}

// VerifyOTP consumes a challenge for recipient and marks its owner verified.
func (s *Service) VerifyOTP(ctx context.Context, recipient, code string) (string, error) {
	recipient = strings.TrimSpace(recipient)
	code = strings.TrimSpace(code)
	if recipient == "" || code == "" {
		return "", newError(KindValidation, "Recipient and OTP are required")
	}

	userID, err := s.otps.Verify(ctx, recipient, code)
	switch {
	case errors.Is(err, otp.ErrNotFound):
		return "", newError(KindValidation, "Invalid OTP")
	case errors.Is(err, otp.ErrExpired):
		return "", newError(KindValidation, "OTP has expired")
	case err != nil:
		return "", internal("Server error during OTP verification", err)
	}
	s.logger.InfoContext(ctx, "otp verified", "user_id", userID)
	return userID, nil
}

// Refresh exchanges a refresh token for a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (session.Pair, error) {
	if refreshToken == "" {
		return session.Pair{}, newError(KindUnauthorized, "Refresh token required")
	}
	pair, err := s.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		return session.Pair{}, mapRefreshError(err)
	}
	return pair, nil
}

// Rotate issues a new pair for an identity already accepted by
// CheckRefresh, without re-reading the active set to validate it again.
func (s *Service) Rotate(ctx context.Context, id token.Identity) (session.Pair, error) {
	pair, err := s.sessions.Rotate(ctx, id)
	if err != nil {
		return session.Pair{}, internal("Server error during token refresh", err)
	}
	return pair, nil
}

// CheckRefresh validates a refresh token without rotating it.  It backs the
// cookie gate in front of the refresh endpoint.
func (s *Service) CheckRefresh(ctx context.Context, refreshToken string) (token.Identity, error) {
	if refreshToken == "" {
		return token.Identity{}, newError(KindUnauthorized, "Refresh token required")
	}
	id, err := s.sessions.Check(ctx, refreshToken)
	if err != nil {
		return token.Identity{}, mapRefreshError(err)
	}
	return id, nil
}

// Logout revokes refreshToken.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return newError(KindUnauthorized, "Refresh token required")
	}
	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		return internal("Server error during logout", err)
	}
	return nil
}

// Access resolves the identity behind an access token.
func (s *Service) Access(accessToken string) (token.Identity, error) {
	if accessToken == "" {
		return token.Identity{}, newError(KindUnauthorized, "Access token required")
	}
	id, err := s.sessions.Authenticate(accessToken)
	if err != nil {
		return token.Identity{}, newError(KindForbidden, "Invalid or expired access token")
	}
	return id, nil
}

// RefreshTTL exposes the refresh-token lifetime for cookie Max-Age.
func (s *Service) RefreshTTL() time.Duration {
	return s.sessions.RefreshTTL()
}

func mapRefreshError(err error) *Error {
	switch {
	case errors.Is(err, session.ErrNotActive):
		return newError(KindForbidden, "Invalid refresh token")
	case errors.Is(err, session.ErrInvalid):
		return newError(KindForbidden, "Invalid or expired refresh token")
	}
	return internal("Server error during token refresh", err)
}
