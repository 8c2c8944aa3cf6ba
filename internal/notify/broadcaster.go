// ABOUTME: In-memory fan-out broadcaster for conversation change events
// ABOUTME: Publishes deletion lifecycle changes to UI/widget-style subscribers

package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// ChangeKind identifies the sort of change an event describes.
type ChangeKind string

const (
	// ConversationListChanged signals that the set of visible
	// conversations changed (a delete, undelete, or purge happened).
	ConversationListChanged ChangeKind = "conversation_list_changed"

	// ConversationMetadataChanged signals that a single conversation's
	// metadata changed; ConversationID identifies it.
	ConversationMetadataChanged ChangeKind = "conversation_metadata_changed"

	// ConversationDeleted signals that a conversation is being
	// permanently removed; subscribers should tear down anything keyed
	// by its id (notification channels, widgets).
	ConversationDeleted ChangeKind = "conversation_deleted"
)

// ChangeEvent is a fire-and-forget outbound notification. No return value
// is consumed from subscribers.
type ChangeEvent struct {
	Kind           ChangeKind
	ConversationID string // empty for list-wide changes
}

// Notifier is the outbound notification surface the deletion pipeline
// publishes through.
type Notifier interface {
	NotifyListChanged()
	NotifyMetadataChanged(conversationID string)
	NotifyConversationDeleted(conversationID string)
}

// Broadcaster provides in-memory pub/sub for ChangeEvents. Subscribers
// receive events as they are published; slow subscribers have events
// dropped rather than blocking the deletion pipeline.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan ChangeEvent // subID -> ch
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]chan ChangeEvent),
		logger:      logger.With("component", "notify"),
	}
}

// Subscribe registers a subscriber for all change events. Returns a
// channel that receives events and a subscription ID for later
// unsubscription. The subscription is automatically cleaned up when ctx
// is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan ChangeEvent, string) {
	subID := uuid.New().String()
	ch := make(chan ChangeEvent, subscriberBufferSize)

	b.mu.Lock()
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[subID]
	if !ok {
		return
	}

	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// publish sends an event to all subscribers.
// Non-blocking: events are dropped for subscribers whose channels are full.
func (b *Broadcaster) publish(event ChangeEvent) {
	b.mu.RLock()
	// Copy subscriber channels under read lock to avoid holding the lock
	// during sends
	targets := make([]chan ChangeEvent, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- event:
			// Sent
		default:
			b.logger.Debug("dropped event for slow subscriber",
				"kind", event.Kind,
				"conversation_id", event.ConversationID)
		}
	}
}

// NotifyListChanged publishes a conversation-list change.
func (b *Broadcaster) NotifyListChanged() {
	b.publish(ChangeEvent{Kind: ConversationListChanged})
}

// NotifyMetadataChanged publishes a per-conversation metadata change.
func (b *Broadcaster) NotifyMetadataChanged(conversationID string) {
	b.publish(ChangeEvent{Kind: ConversationMetadataChanged, ConversationID: conversationID})
}

// NotifyConversationDeleted publishes a permanent-deletion notification.
func (b *Broadcaster) NotifyConversationDeleted(conversationID string) {
	b.publish(ChangeEvent{Kind: ConversationDeleted, ConversationID: conversationID})
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, subID)
	}

	b.logger.Debug("broadcaster closed")
}

// Ensure Broadcaster implements Notifier interface
var _ Notifier = (*Broadcaster)(nil)
