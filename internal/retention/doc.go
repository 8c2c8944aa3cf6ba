// Package retention resolves the configured retention period and computes
// purge eligibility from it.
//
// The retention period is stored as an integer preference in the
// conversation store:
//
//   - days < 0 disables automatic deletion entirely
//   - days == 0 means deletes are immediate and permanent
//   - days > 0 keeps soft-deleted conversations for that many days
//
// Missing or malformed stored values degrade to the configured default
// rather than failing; a corrupt preference must not disable the feature
// or crash the sweep. User input is clamped to [0, 999] at the edit
// boundary only.
package retention
