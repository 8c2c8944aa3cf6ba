// ABOUTME: ThreadStore interface over the external telephony provider
// ABOUTME: Defines delete-by-thread and delete-by-uri operations with cutoff timestamps

package telephony

import (
	"context"
	"errors"
)

// ErrInvalidThreadID is returned when a delete is attempted with a
// negative thread id. Callers are expected to take the per-message
// fallback path instead of calling DeleteThread.
var ErrInvalidThreadID = errors.New("invalid telephony thread id")

// ThreadStore abstracts the external telephony provider that must be
// purged in lockstep with the local conversation store. The provider is
// slower than the local store; callers must never hold a local
// transaction open across these calls.
type ThreadStore interface {
	// DeleteThread deletes all provider messages for the thread with
	// timestamp at or before cutoff and returns the number of rows
	// removed. threadID must be non-negative; a negative id is a caller
	// precondition violation and returns ErrInvalidThreadID.
	DeleteThread(ctx context.Context, threadID int64, cutoff int64) (int64, error)

	// DeleteMessage deletes a single provider message by its URI and
	// returns the number of rows removed. Used only on the fallback path
	// for conversations with no addressable thread.
	DeleteMessage(ctx context.Context, uri string) (int64, error)
}
