// Package session holds server-side session records keyed by the opaque
// identifier carried in the browser cookie.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session record does not exist or has
// expired.
var ErrNotFound = errors.New("session not found")

// Record is one server-side session. Value holds the serialized user
// identifier; only the id is ever stored, never the full user object.
// Legacy sessions may carry the id as a numeric string or a JSON-encoded
// object, which resolution normalizes.
type Record struct {
	ID        string
	Value     string
	CreatedAt time.Time

	// ExpiresAt is zero when sessions do not expire.
	ExpiresAt time.Time
}

// Repo defines storage operations for session records.
type Repo interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
}
