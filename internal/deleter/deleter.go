// ABOUTME: Per-conversation deletion state machine
// ABOUTME: Soft-delete vs immediate hard-delete, local-first purge, telephony lockstep

package deleter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/finch-store/internal/notify"
	"github.com/2389/finch-store/internal/retention"
	"github.com/2389/finch-store/internal/store"
	"github.com/2389/finch-store/internal/telephony"
)

// Target identifies one conversation to delete together with the cutoff
// timestamp bounding which of its messages are removed.
type Target struct {
	ConversationID  string
	CutoffTimestamp int64
}

// Result aggregates a batch deletion's per-conversation outcomes.
type Result struct {
	Succeeded int
	Failed    int
}

// Deleter drives a conversation through the deletion lifecycle:
// Active -> SoftDeleted -> PermanentlyDeleted, with a direct
// Active -> PermanentlyDeleted edge when retention is zero.
type Deleter struct {
	store    store.ConversationStore
	threads  telephony.ThreadStore
	policy   *retention.Policy
	notifier notify.Notifier
	logger   *slog.Logger
}

// New creates a Deleter. Pass nil logger for the default.
func New(convStore store.ConversationStore, threads telephony.ThreadStore, policy *retention.Policy, notifier notify.Notifier, logger *slog.Logger) *Deleter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deleter{
		store:    convStore,
		threads:  threads,
		policy:   policy,
		notifier: notifier,
		logger:   logger.With("component", "deleter"),
	}
}

// Delete processes a batch of deletion targets. Per-conversation failures
// are logged and counted, never propagated: one conversation's failure
// does not block the rest of the batch.
func (d *Deleter) Delete(ctx context.Context, targets ...Target) Result {
	var result Result
	for _, target := range targets {
		if d.deleteOne(ctx, target) {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	if result.Failed > 0 {
		d.logger.Warn("some conversations failed to delete",
			"failed", result.Failed, "succeeded", result.Succeeded)
	}
	return result
}

// DeleteConversation deletes a single conversation and reports whether it
// succeeded.
func (d *Deleter) DeleteConversation(ctx context.Context, conversationID string, cutoff int64) bool {
	return d.deleteOne(ctx, Target{ConversationID: conversationID, CutoffTimestamp: cutoff})
}

// deleteOne runs the state machine for one conversation. Returns success.
//
// Local deletion happens before telephony deletion so a concurrent
// background sync cannot recreate local rows for messages the provider
// still has. The provider can be slow; listeners are notified as soon as
// the local delete commits.
func (d *Deleter) deleteOne(ctx context.Context, target Target) bool {
	conversationID := target.ConversationID
	if conversationID == "" {
		d.logger.Error("delete requested with empty conversation id")
		return false
	}

	isDeleted, err := d.store.IsDeleted(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			d.logger.Warn("delete requested for unknown conversation", "id", conversationID)
		} else {
			d.logger.Error("checking deleted status failed", "id", conversationID, "error", err)
		}
		return false
	}

	days := d.policy.Days(ctx)

	if !isDeleted && !retention.Immediate(days) {
		// Normal user-initiated delete: mark soft-deleted and stop. The
		// permanent purge happens on a later call or via the sweep.
		if err := d.SoftDelete(ctx, conversationID); err != nil {
			d.logger.Error("soft delete failed", "id", conversationID, "error", err)
			return false
		}
		d.logger.Info("marked conversation as deleted", "id", conversationID)
		return true
	}

	if !isDeleted && retention.Immediate(days) {
		d.logger.Info("retention is 0 days, permanently deleting immediately", "id", conversationID)
	}

	// Either already soft-deleted or retention is zero
	return d.Purge(ctx, conversationID, target.CutoffTimestamp)
}

// SoftDelete marks a conversation deleted, recording the deletion
// timestamp in the same transaction. Soft-deleting an already-deleted
// conversation is a safe no-op.
func (d *Deleter) SoftDelete(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("conversation id is empty")
	}

	if err := d.store.SetDeletedStatus(ctx, conversationID, true, time.Now()); err != nil {
		return fmt.Errorf("marking conversation deleted: %w", err)
	}

	d.notifier.NotifyListChanged()
	d.notifier.NotifyMetadataChanged(conversationID)
	return nil
}

// Undelete restores a soft-deleted conversation, clearing the deletion
// timestamp.
func (d *Deleter) Undelete(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("conversation id is empty")
	}

	if err := d.store.SetDeletedStatus(ctx, conversationID, false, time.Now()); err != nil {
		return fmt.Errorf("restoring conversation: %w", err)
	}

	d.logger.Info("restored conversation", "id", conversationID)
	d.notifier.NotifyListChanged()
	d.notifier.NotifyMetadataChanged(conversationID)
	return nil
}

// Purge permanently removes a conversation from the local store and the
// telephony provider. Local deletion commits first; a telephony failure
// after local success is reported as a failure but never rolled back. The
// conversation's telephony messages are captured up front because the
// local delete removes the rows they are read from.
func (d *Deleter) Purge(ctx context.Context, conversationID string, cutoff int64) bool {
	threadID, err := d.store.GetThreadID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			d.logger.Warn("purge requested for unknown conversation", "id", conversationID)
		} else {
			d.logger.Error("resolving thread id failed", "id", conversationID, "error", err)
		}
		return false
	}

	// Fallback inputs must be gathered before the local rows disappear.
	var messageURIs []string
	if threadID < 0 {
		messageURIs, err = d.store.MessageURIs(ctx, conversationID)
		if err != nil {
			d.logger.Error("listing telephony message uris failed", "id", conversationID, "error", err)
			return false
		}
	}

	removed, err := d.store.PermanentlyDelete(ctx, conversationID, cutoff)
	if err != nil {
		d.logger.Error("local delete failed", "id", conversationID, "error", err)
		return false
	}
	if !removed {
		d.logger.Warn("could not delete local conversation", "id", conversationID)
		return false
	}

	d.logger.Info("deleted local conversation", "id", conversationID, "cutoff", cutoff)

	// The conversation list has changed; widgets keyed by this id should
	// tear down.
	d.notifier.NotifyListChanged()
	d.notifier.NotifyConversationDeleted(conversationID)

	// Now delete from the telephony provider. The provider rejects
	// negative thread ids; those conversations get per-message deletion.
	if threadID >= 0 {
		count, err := d.threads.DeleteThread(ctx, threadID, cutoff)
		if err != nil {
			d.logger.Error("telephony thread delete failed",
				"id", conversationID, "thread_id", threadID, "error", err)
			return false
		}
		if count == 0 {
			// Zero rows with local success signals telephony-side
			// inconsistency; the local delete stands.
			d.logger.Warn("could not delete thread from telephony",
				"id", conversationID, "thread_id", threadID)
			return false
		}
		d.logger.Info("deleted telephony thread",
			"thread_id", threadID, "cutoff", cutoff, "count", count)
		return true
	}

	d.logger.Warn("conversation has an invalid telephony thread id; deleting messages individually",
		"id", conversationID, "thread_id", threadID)
	return d.deleteMessagesFromTelephony(ctx, conversationID, messageURIs)
}

// deleteMessagesFromTelephony deletes each telephony message individually.
// This is the fallback for conversations with no addressable thread (e.g.
// an unknown-sender conversation). Succeeds only if every message was
// deleted.
func (d *Deleter) deleteMessagesFromTelephony(ctx context.Context, conversationID string, uris []string) bool {
	deleted := 0
	for _, uri := range uris {
		count, err := d.threads.DeleteMessage(ctx, uri)
		if err != nil {
			d.logger.Error("telephony message delete failed",
				"id", conversationID, "uri", uri, "error", err)
			continue
		}
		if count == 0 {
			d.logger.Warn("could not delete telephony message",
				"id", conversationID, "uri", uri)
			continue
		}
		d.logger.Debug("deleted telephony message", "uri", uri)
		deleted++
	}
	return deleted == len(uris)
}
