package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func newTestConversation(id string, threadID int64) *Conversation {
	now := time.Now().UTC().Truncate(time.Second)
	return &Conversation{
		ID:          id,
		Participant: "+15550100",
		ThreadID:    threadID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestStore_CreateConversation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.CreateConversation(ctx, newTestConversation("conv-1", 42))
	require.NoError(t, err)

	retrieved, err := store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", retrieved.ID)
	assert.Equal(t, int64(42), retrieved.ThreadID)
	assert.False(t, retrieved.DeletedStatus)
	assert.Zero(t, retrieved.DeletedTimestamp)
}

func TestStore_CreateConversation_Duplicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateConversation(ctx, newTestConversation("conv-1", 42)))

	err := store.CreateConversation(ctx, newTestConversation("conv-1", 42))
	assert.ErrorIs(t, err, ErrDuplicateConversation)
}

func TestStore_GetConversation_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetConversation(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SetDeletedStatus(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateConversation(ctx, newTestConversation("conv-1", 42)))

	now := time.Now()
	require.NoError(t, store.SetDeletedStatus(ctx, "conv-1", true, now))

	conv, err := store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.True(t, conv.DeletedStatus)
	assert.Equal(t, now.UnixMilli(), conv.DeletedTimestamp)
}

func TestStore_SetDeletedStatus_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateConversation(ctx, newTestConversation("conv-1", 42)))

	first := time.Now().Add(-time.Hour)
	require.NoError(t, store.SetDeletedStatus(ctx, "conv-1", true, first))

	// A second soft delete must not move the timestamp
	require.NoError(t, store.SetDeletedStatus(ctx, "conv-1", true, time.Now()))

	conv, err := store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.True(t, conv.DeletedStatus)
	assert.Equal(t, first.UnixMilli(), conv.DeletedTimestamp)
}

func TestStore_SetDeletedStatus_Undelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateConversation(ctx, newTestConversation("conv-1", 42)))
	require.NoError(t, store.SetDeletedStatus(ctx, "conv-1", true, time.Now()))
	require.NoError(t, store.SetDeletedStatus(ctx, "conv-1", false, time.Now()))

	conv, err := store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, conv.DeletedStatus)
	assert.Zero(t, conv.DeletedTimestamp, "undelete must clear the timestamp")
}

func TestStore_SetDeletedStatus_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.SetDeletedStatus(ctx, "nonexistent", true, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_IsDeleted(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateConversation(ctx, newTestConversation("conv-1", 42)))

	deleted, err := store.IsDeleted(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, store.SetDeletedStatus(ctx, "conv-1", true, time.Now()))

	deleted, err = store.IsDeleted(ctx, "conv-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = store.IsDeleted(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetThreadID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateConversation(ctx, newTestConversation("conv-1", 42)))
	require.NoError(t, store.CreateConversation(ctx, newTestConversation("conv-2", NoThreadID)))

	threadID, err := store.GetThreadID(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), threadID)

	threadID, err = store.GetThreadID(ctx, "conv-2")
	require.NoError(t, err)
	assert.Negative(t, threadID)
}

func TestStore_ListSoftDeleted(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	now := time.Now()
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("conv-%d", i)
		require.NoError(t, store.CreateConversation(ctx, newTestConversation(id, int64(i))))
	}
	require.NoError(t, store.SetDeletedStatus(ctx, "conv-1", true, now.Add(-48*time.Hour)))
	require.NoError(t, store.SetDeletedStatus(ctx, "conv-3", true, now.Add(-24*time.Hour)))

	deleted, err := store.ListSoftDeleted(ctx)
	require.NoError(t, err)
	require.Len(t, deleted, 2)

	// Ordered oldest first
	assert.Equal(t, "conv-1", deleted[0].ID)
	assert.Equal(t, "conv-3", deleted[1].ID)
	assert.Positive(t, deleted[0].DeletedTimestamp)
}

func TestStore_PermanentlyDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateConversation(ctx, newTestConversation("conv-1", 42)))
	require.NoError(t, store.SaveMessage(ctx, &Message{
		ID:             "msg-1",
		ConversationID: "conv-1",
		Sender:         "+15550100",
		Body:           "hello",
		TelephonyURI:   "content://sms/1",
		ReceivedAt:     1000,
	}))

	removed, err := store.PermanentlyDelete(ctx, "conv-1", DeleteAllMessages)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = store.GetConversation(ctx, "conv-1")
	assert.ErrorIs(t, err, ErrNotFound)

	msgs, err := store.GetConversationMessages(ctx, "conv-1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStore_PermanentlyDelete_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	removed, err := store.PermanentlyDelete(ctx, "nonexistent", DeleteAllMessages)
	require.NoError(t, err)
	assert.False(t, removed, "deleting a non-existent conversation is a no-op, not an error")
}

func TestStore_PermanentlyDelete_MessageCutoff(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateConversation(ctx, newTestConversation("conv-1", 42)))
	for i, receivedAt := range []int64{100, 200, 300} {
		require.NoError(t, store.SaveMessage(ctx, &Message{
			ID:             fmt.Sprintf("msg-%d", i),
			ConversationID: "conv-1",
			Sender:         "+15550100",
			Body:           "hello",
			ReceivedAt:     receivedAt,
		}))
	}

	// Cutoff is inclusive: messages at 100 and 200 go, 300 stays
	removed, err := store.PermanentlyDelete(ctx, "conv-1", 200)
	require.NoError(t, err)
	assert.True(t, removed)

	msgs, err := store.GetConversationMessages(ctx, "conv-1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(300), msgs[0].ReceivedAt)
}

func TestStore_MessageURIs(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateConversation(ctx, newTestConversation("conv-1", NoThreadID)))
	require.NoError(t, store.SaveMessage(ctx, &Message{
		ID: "msg-1", ConversationID: "conv-1", Sender: "a", Body: "x",
		TelephonyURI: "content://sms/1", ReceivedAt: 100,
	}))
	require.NoError(t, store.SaveMessage(ctx, &Message{
		ID: "msg-2", ConversationID: "conv-1", Sender: "a", Body: "y",
		ReceivedAt: 200, // no telephony counterpart
	}))

	uris, err := store.MessageURIs(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"content://sms/1"}, uris)
}

func TestStore_IntPrefs(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Missing -> default
	assert.Equal(t, 14, store.GetIntPref(ctx, PrefRetentionDays, 14))

	require.NoError(t, store.SetIntPref(ctx, PrefRetentionDays, 30))
	assert.Equal(t, 30, store.GetIntPref(ctx, PrefRetentionDays, 14))

	// Overwrite
	require.NoError(t, store.SetIntPref(ctx, PrefRetentionDays, 0))
	assert.Equal(t, 0, store.GetIntPref(ctx, PrefRetentionDays, 14))
}

func TestStore_GetIntPref_Malformed(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO prefs (key, value) VALUES (?, ?)`, PrefRetentionDays, "thirty")
	require.NoError(t, err)

	// Malformed value degrades to the default instead of failing
	assert.Equal(t, 14, store.GetIntPref(ctx, PrefRetentionDays, 14))
}
