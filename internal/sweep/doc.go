// Package sweep implements the batch auto-purge of expired soft-deleted
// conversations.
//
// # Overview
//
// A sweep scans the conversation store for soft-deleted rows, computes
// each row's age from its own deletion timestamp, and permanently deletes
// the ones whose retention window has elapsed. The sweep is best-effort:
// a single conversation's failure is counted and logged but never stops
// the batch.
//
// Sweeps always purge with the delete-all message cutoff; the per-call
// cutoff semantics of interactive deletes do not apply here.
//
// # Scheduling
//
// Scheduler runs the sweep on a cron expression, by default daily at
// 3 AM. The daemon also sweeps at startup (to catch conversations that
// expired while it was down) and after a config reload (so a shortened
// retention window takes effect right away).
//
// # Metrics
//
// Metrics exposes sweep run counts, purge totals, and durations via
// Prometheus. Pass nil to NewSweeper to disable reporting.
package sweep
