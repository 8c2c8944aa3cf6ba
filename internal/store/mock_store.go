// ABOUTME: Mock ConversationStore implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject failures

package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockStore is an in-memory ConversationStore implementation for testing.
type MockStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation // keyed by conversation ID
	messages      map[string][]*Message    // keyed by conversation ID
	prefs         map[string]string        // keyed by preference key

	// FailPermanentDelete simulates a local write failure for the given
	// conversation IDs: PermanentlyDelete reports no row deleted.
	FailPermanentDelete map[string]bool
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		conversations:       make(map[string]*Conversation),
		messages:            make(map[string][]*Message),
		prefs:               make(map[string]string),
		FailPermanentDelete: make(map[string]bool),
	}
}

// CreateConversation stores a new conversation.
func (m *MockStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[conv.ID]; ok {
		return ErrDuplicateConversation
	}

	// Make a copy to avoid external modification
	c := *conv
	m.conversations[c.ID] = &c
	return nil
}

// GetConversation retrieves a conversation by ID.
func (m *MockStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	conv := *c
	return &conv, nil
}

// IsDeleted reports the soft-delete flag for a conversation.
func (m *MockStore) IsDeleted(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.conversations[id]
	if !ok {
		return false, ErrNotFound
	}
	return c.DeletedStatus, nil
}

// GetThreadID returns the telephony thread reference for a conversation.
func (m *MockStore) GetThreadID(ctx context.Context, id string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.conversations[id]
	if !ok {
		return NoThreadID, ErrNotFound
	}
	return c.ThreadID, nil
}

// SetDeletedStatus updates flag and timestamp together. Idempotent.
func (m *MockStore) SetDeletedStatus(ctx context.Context, id string, deleted bool, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[id]
	if !ok {
		return ErrNotFound
	}

	if c.DeletedStatus == deleted {
		return nil // already in the requested state
	}

	c.DeletedStatus = deleted
	if deleted {
		c.DeletedTimestamp = now.UnixMilli()
	} else {
		c.DeletedTimestamp = 0
	}
	c.UpdatedAt = now
	return nil
}

// ListSoftDeleted returns all soft-deleted conversations.
func (m *MockStore) ListSoftDeleted(ctx context.Context) ([]SoftDeletedConversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var deleted []SoftDeletedConversation
	for _, c := range m.conversations {
		if c.DeletedStatus && c.DeletedTimestamp > 0 {
			deleted = append(deleted, SoftDeletedConversation{
				ID:               c.ID,
				DeletedTimestamp: c.DeletedTimestamp,
			})
		}
	}

	sort.Slice(deleted, func(i, j int) bool {
		return deleted[i].DeletedTimestamp < deleted[j].DeletedTimestamp
	})
	return deleted, nil
}

// PermanentlyDelete removes the conversation and its messages at or before
// cutoff. Deleting an unknown conversation returns false without error.
func (m *MockStore) PermanentlyDelete(ctx context.Context, id string, cutoff int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPermanentDelete[id] {
		return false, nil
	}

	if _, ok := m.conversations[id]; !ok {
		return false, nil
	}

	var remaining []*Message
	for _, msg := range m.messages[id] {
		if msg.ReceivedAt > cutoff {
			remaining = append(remaining, msg)
		}
	}
	if len(remaining) == 0 {
		delete(m.messages, id)
	} else {
		m.messages[id] = remaining
	}

	delete(m.conversations, id)
	return true, nil
}

// MessageURIs returns telephony URIs for a conversation's messages.
func (m *MockStore) MessageURIs(ctx context.Context, conversationID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var uris []string
	for _, msg := range m.messages[conversationID] {
		if msg.TelephonyURI != "" {
			uris = append(uris, msg.TelephonyURI)
		}
	}
	return uris, nil
}

// SaveMessage stores a message.
func (m *MockStore) SaveMessage(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgCopy := *msg
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], &msgCopy)
	return nil
}

// GetConversationMessages retrieves messages in chronological order.
func (m *MockStore) GetConversationMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages[conversationID]
	result := make([]*Message, 0, len(msgs))
	for _, msg := range msgs {
		msgCopy := *msg
		result = append(result, &msgCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ReceivedAt < result[j].ReceivedAt
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetIntPref reads an integer preference, degrading to def on missing or
// malformed values.
func (m *MockStore) GetIntPref(ctx context.Context, key string, def int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.prefs[key]
	if !ok {
		return def
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return value
}

// SetIntPref stores an integer preference.
func (m *MockStore) SetIntPref(ctx context.Context, key string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prefs[key] = strconv.Itoa(value)
	return nil
}

// SetRawPref stores an arbitrary preference string, for testing the
// malformed-value fallback.
func (m *MockStore) SetRawPref(key, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[key] = raw
}

// Close is a no-op for the mock.
func (m *MockStore) Close() error {
	return nil
}

// Ensure MockStore implements ConversationStore interface
var _ ConversationStore = (*MockStore)(nil)
