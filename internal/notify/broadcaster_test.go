package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_PublishSubscribe(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, _ := b.Subscribe(ctx)

	b.NotifyConversationDeleted("conv-1")

	select {
	case event := <-ch:
		assert.Equal(t, ConversationDeleted, event.Kind)
		assert.Equal(t, "conv-1", event.ConversationID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroadcaster_ListChanged(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, _ := b.Subscribe(ctx)

	b.NotifyListChanged()

	select {
	case event := <-ch:
		assert.Equal(t, ConversationListChanged, event.Kind)
		assert.Empty(t, event.ConversationID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, subID := b.Subscribe(ctx)
	b.Unsubscribe(subID)

	// Channel is closed after unsubscribe
	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe must not panic
	b.NotifyMetadataChanged("conv-1")
}

func TestBroadcaster_MultipleSubscribers(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1, _ := b.Subscribe(ctx)
	ch2, _ := b.Subscribe(ctx)

	b.NotifyMetadataChanged("conv-1")

	for _, ch := range []<-chan ChangeEvent{ch1, ch2} {
		select {
		case event := <-ch:
			require.Equal(t, ConversationMetadataChanged, event.Kind)
			require.Equal(t, "conv-1", event.ConversationID)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}
