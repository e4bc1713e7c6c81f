// Package password wraps bcrypt behind a hash/verify pair.  Hashing is CPU
// bound, so concurrent calls are throttled by a weighted semaphore.
package password

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hasher is the one-way password primitive used by the auth service.
type Hasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Verify(ctx context.Context, plain, hash string) (bool, error)
}

// Bcrypt hashes with bcrypt at a fixed cost, running at most `workers`
// computations at once.
type Bcrypt struct {
	cost int
	sem  *semaphore.Weighted
}

// NewBcrypt returns a Bcrypt hasher.  Cost outside bcrypt's range falls back
// to bcrypt.DefaultCost; workers <= 0 means GOMAXPROCS.
func NewBcrypt(cost, workers int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Bcrypt{cost: cost, sem: semaphore.NewWeighted(int64(workers))}
}

// Hash returns bcrypt hash of plain.  A fresh salt is drawn on every call.
func (b *Bcrypt) Hash(ctx context.Context, plain string) (string, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer b.sem.Release(1)

	h, err := bcrypt.GenerateFromPassword(prepare(plain), b.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify safely compares bcrypt hash and plain password.  A malformed hash
// is a mismatch, not an error; the error is reserved for ctx cancellation.
func (b *Bcrypt) Verify(ctx context.Context, plain, hash string) (bool, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer b.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), prepare(plain)) == nil, nil
}

// maxBcryptInput is the longest input bcrypt accepts.
const maxBcryptInput = 72

// prepare returns the bytes fed to bcrypt.  Inputs over bcrypt's 72-byte
// limit are replaced by their base64 SHA-256 digest (44 bytes), so every
// byte of a long password still counts and hashing never rejects it.
func prepare(plain string) []byte {
	if len(plain) <= maxBcryptInput {
		return []byte(plain)
	}
	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
