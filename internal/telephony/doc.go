// Package telephony abstracts the external provider store that must be
// purged in lockstep with the local conversation store.
//
// The provider is addressed by thread id for whole-conversation deletes
// and by message URI for the per-message fallback. DeleteThread rejects
// negative thread ids; callers are expected to route conversations
// without a valid thread through DeleteMessage instead.
//
// SQLiteProvider is a local stand-in for a real provider with the same
// thread/message data model and deliberately slower, coarser operations.
package telephony
