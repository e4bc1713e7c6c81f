// Package token signs and verifies the HS256 JWTs used for both access and
// refresh tokens.  Access and refresh tokens share a claim layout and differ
// only in the secret and TTL they are issued with.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalid is the single outcome of every failed verification: bad
// signature, wrong secret, malformed payload or expiry.
var ErrInvalid = errors.New("invalid token")

// Identity is the application payload carried by every token.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Claims is the full JWT body.  ID (jti) is random so two tokens minted for
// the same identity within one second never collide.
type Claims struct {
	Identity
	jwt.RegisteredClaims
}

// Codec issues and verifies tokens against a clock.
type Codec struct {
	now func() time.Time
}

// NewCodec returns a Codec using now, or time.Now when nil.
func NewCodec(now func() time.Time) *Codec {
	if now == nil {
		now = time.Now
	}
	return &Codec{now: now}
}

// Issue builds and signs an HS256 JWT embedding id, expiring ttl from now.
// It returns the serialized token and its absolute expiry.
func (c *Codec) Issue(id Identity, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := c.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Identity: id,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses raw, checks its signature against secret and its expiry
// against the codec clock.  Any failure is reported as ErrInvalid.
func (c *Codec) Verify(raw string, secret []byte) (Identity, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalid
	}
	if claims.UserID == "" {
		return Identity{}, ErrInvalid
	}
	return claims.Identity, nil
}
