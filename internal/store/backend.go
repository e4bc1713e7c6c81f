// Package store owns the three credential collections: users, OTP
// challenges and active refresh tokens.
//
// Persistence is deliberately coarse.  A Backend only knows how to load and
// replace a whole collection as a JSON document, and Store layers typed
// read-all, append, update and remove-by-predicate operations on top.  Every
// mutation re-reads the collection right before writing it back, but nothing
// serialises concurrent read-modify-write cycles: two requests that load the
// same "before" state will both write and the last write wins.  Callers that
// need stronger guarantees should swap in a Backend with per-record
// transactions; nothing above this package has to change.
package store

import (
	"context"
	"errors"
)

// Collection names a persisted record set.
type Collection string

const (
	Users         Collection = "users"
	Challenges    Collection = "otps"
	RefreshTokens Collection = "refreshTokens"
)

// ErrNotExist is returned by a Backend when a collection was never written.
// Store treats it as an empty collection.
var ErrNotExist = errors.New("collection does not exist")

// Backend persists whole collections as opaque JSON documents.
type Backend interface {
	// Load returns the stored document or ErrNotExist.
	Load(ctx context.Context, c Collection) ([]byte, error)
	// Replace overwrites the stored document.
	Replace(ctx context.Context, c Collection, data []byte) error
}
