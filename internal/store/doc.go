// Package store provides persistent storage for finch-store using SQLite.
//
// # Architecture
//
// The package defines one interface, ConversationStore, implemented twice:
//
//   - SQLiteStore: the production store backed by modernc.org/sqlite
//   - MockStore: an in-memory implementation for unit tests
//
// # Data Model
//
// Conversation carries the deletion lifecycle state:
//
//   - DeletedStatus: soft-delete flag, false by default
//   - DeletedTimestamp: epoch-millisecond time of the soft delete, zero
//     when the flag is clear
//   - ThreadID: reference into the external telephony store, negative
//     when the conversation has no addressable thread
//
// The schema enforces the lifecycle invariant with a CHECK constraint:
// deleted_status = 1 exactly when deleted_timestamp > 0. SetDeletedStatus
// maintains both columns in one transaction so the invariant holds on
// every exit path.
//
// Message rows carry ReceivedAt epoch-millisecond timestamps, compared
// against cutoff values during permanent deletion. The cutoff sentinel
// DeleteAllMessages removes messages regardless of timestamp.
//
// # Preferences
//
// The prefs table stores integer settings as text keyed by well-known
// names (PrefRetentionDays). GetIntPref never fails: a missing or
// malformed value degrades to the caller's default, so a corrupt
// preference cannot disable retention or crash the purge sweep.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// All methods accept context.Context for cancellation support.
package store
