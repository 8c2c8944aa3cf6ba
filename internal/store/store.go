// ABOUTME: Store interface and data types for finch-store persistence
// ABOUTME: Defines Conversation, Message structs and the ConversationStore interface

package store

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateConversation is returned when trying to create a conversation that already exists
var ErrDuplicateConversation = errors.New("conversation already exists")

// NoThreadID is the sentinel for a conversation with no addressable
// telephony thread. Any negative value is treated the same way.
const NoThreadID int64 = -1

// DeleteAllMessages is the cutoff sentinel meaning "remove all messages
// regardless of timestamp".
const DeleteAllMessages int64 = math.MaxInt64

// PrefRetentionDays is the well-known preference key for the retention
// period, stored as an integer number of days.
const PrefRetentionDays = "retention_days"

// Conversation represents a conversation record in the local store.
type Conversation struct {
	ID          string
	Participant string
	// ThreadID references the telephony provider's thread for this
	// conversation. Negative means no valid telephony thread exists.
	ThreadID int64
	// DeletedStatus is true when the conversation has been soft-deleted
	// and is awaiting permanent purge.
	DeletedStatus bool
	// DeletedTimestamp is the epoch-millisecond time of the soft delete.
	// Zero when DeletedStatus is false. Invariant:
	// DeletedTimestamp > 0 <=> DeletedStatus == true.
	DeletedTimestamp int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Message represents a single message owned by a conversation.
type Message struct {
	ID             string
	ConversationID string
	Sender         string
	Body           string
	// TelephonyURI addresses the copy of this message in the telephony
	// provider; empty when the message has no telephony counterpart.
	TelephonyURI string
	// ReceivedAt is the epoch-millisecond receive time, compared against
	// cutoff timestamps during deletion.
	ReceivedAt int64
}

// SoftDeletedConversation is a (id, deletedTimestamp) pair returned by the
// soft-deleted scan. The sweep applies the retention age arithmetic to
// each row's own timestamp.
type SoftDeletedConversation struct {
	ID               string
	DeletedTimestamp int64
}

// ConversationStore defines the persistence operations the deletion
// pipeline needs from the local database.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// IsDeleted reports the current soft-delete flag for a conversation.
	// Returns ErrNotFound if the conversation doesn't exist.
	IsDeleted(ctx context.Context, id string) (bool, error)

	// GetThreadID returns the telephony thread reference for a
	// conversation, or a negative sentinel if there is none.
	GetThreadID(ctx context.Context, id string) (int64, error)

	// SetDeletedStatus updates the soft-delete flag and timestamp in a
	// single transaction. Setting an already-set flag is a no-op that
	// preserves the original timestamp.
	SetDeletedStatus(ctx context.Context, id string, deleted bool, now time.Time) error

	// ListSoftDeleted returns all soft-deleted conversations as a single
	// point-in-time read.
	ListSoftDeleted(ctx context.Context) ([]SoftDeletedConversation, error)

	// PermanentlyDelete removes the conversation row and its messages
	// whose ReceivedAt is at or before cutoff. Returns whether the
	// conversation row was removed.
	PermanentlyDelete(ctx context.Context, id string, cutoff int64) (bool, error)

	// MessageURIs returns the telephony URIs of all messages in a
	// conversation, skipping messages with no telephony counterpart.
	MessageURIs(ctx context.Context, conversationID string) ([]string, error)

	SaveMessage(ctx context.Context, msg *Message) error
	GetConversationMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error)

	// Integer preferences (retention policy storage). GetIntPref never
	// fails: missing or malformed values degrade to def.
	GetIntPref(ctx context.Context, key string, def int) int
	SetIntPref(ctx context.Context, key string, value int) error

	// Close releases any resources held by the store
	Close() error
}
