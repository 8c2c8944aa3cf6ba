// Package deleter implements the per-conversation deletion state machine.
//
// # Overview
//
// Conversations move through three states:
//
//	Active -> SoftDeleted -> PermanentlyDeleted
//
// A user-initiated delete normally soft-deletes: the row stays in the
// store with deleted_status set and the deletion timestamp recorded, and
// the auto-purge sweep removes it once the retention window has elapsed.
// With retention set to 0 days the soft-delete phase is skipped and the
// conversation goes straight to permanently deleted.
//
// # Two-Store Deletion
//
// A permanent delete touches two stores: the local conversation store and
// the telephony provider. The local delete always happens first:
//
//  1. Delete the conversation row and its messages locally
//  2. Notify listeners that the conversation list changed
//  3. Delete the telephony thread (or each message individually when the
//     conversation has no addressable thread)
//
// The ordering is deliberate. The provider is slow, and a concurrent
// background sync could recreate local rows for messages the provider
// still holds. Deleting locally first closes that race, at the cost of a
// transient window where the provider still has data for a conversation
// that is already gone locally. A telephony failure after local success
// is reported as a failure for that conversation but never rolled back.
//
// # Usage
//
//	del := deleter.New(store, provider, policy, notifier, logger)
//	ok := del.DeleteConversation(ctx, conversationID, store.DeleteAllMessages)
//
// Batch deletion aggregates per-item results without aborting:
//
//	result := del.Delete(ctx, targets...)
package deleter
