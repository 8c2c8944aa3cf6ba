// ABOUTME: Mock ThreadStore implementation for testing
// ABOUTME: Tracks delete calls and supports failure injection

package telephony

import (
	"context"
	"fmt"
	"sync"
)

// mockMessage is a provider message held by the mock.
type mockMessage struct {
	uri       string
	threadID  int64
	timestamp int64
}

// MockProvider is an in-memory ThreadStore for testing the deletion
// pipeline without a second database.
type MockProvider struct {
	mu       sync.Mutex
	messages map[string]mockMessage // keyed by URI

	// FailMessages makes DeleteMessage report zero rows for these URIs.
	FailMessages map[string]bool

	// ThreadDeletes records each DeleteThread call's thread id.
	ThreadDeletes []int64
}

// NewMockProvider creates an empty MockProvider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		messages:     make(map[string]mockMessage),
		FailMessages: make(map[string]bool),
	}
}

// AddMessage seeds a provider message.
func (m *MockProvider) AddMessage(uri string, threadID int64, timestamp int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[uri] = mockMessage{uri: uri, threadID: threadID, timestamp: timestamp}
}

// DeleteThread removes all messages with the given thread id at or before
// cutoff. Negative thread ids violate the caller precondition.
func (m *MockProvider) DeleteThread(ctx context.Context, threadID int64, cutoff int64) (int64, error) {
	if threadID < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidThreadID, threadID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ThreadDeletes = append(m.ThreadDeletes, threadID)

	var count int64
	for uri, msg := range m.messages {
		if msg.threadID == threadID && msg.timestamp <= cutoff {
			delete(m.messages, uri)
			count++
		}
	}
	return count, nil
}

// DeleteMessage removes a single message by URI.
func (m *MockProvider) DeleteMessage(ctx context.Context, uri string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailMessages[uri] {
		return 0, nil
	}

	if _, ok := m.messages[uri]; !ok {
		return 0, nil
	}
	delete(m.messages, uri)
	return 1, nil
}

// MessageCount returns the number of messages the provider still holds.
func (m *MockProvider) MessageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// Ensure MockProvider implements ThreadStore interface
var _ ThreadStore = (*MockProvider)(nil)
