// Package checkpoint persists serialized execution-state snapshots keyed by
// session id. Saves happen fire-and-forget off the strategy hot path: a save
// failure is logged by the caller but never blocks or fails a step.
package checkpoint

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no snapshot exists for a session.
var ErrNotFound = errors.New("checkpoint: not found")

// Store persists execution-state snapshots. Implementations must be safe for
// concurrent use; the same session id is only written by one run at a time
// but distinct sessions may save concurrently.
type Store interface {
	// Save stores (or replaces) the snapshot for a session.
	Save(ctx context.Context, sessionID string, snapshot []byte) error

	// Load returns the latest snapshot for a session, or ErrNotFound.
	Load(ctx context.Context, sessionID string) ([]byte, error)

	// Delete removes a session's snapshot. Deleting a missing session is
	// not an error.
	Delete(ctx context.Context, sessionID string) error
}
