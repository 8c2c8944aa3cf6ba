// ABOUTME: Retention policy resolution and cutoff arithmetic
// ABOUTME: Resolves configured retention days with malformed-value fallback

package retention

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/finch-store/internal/store"
)

const (
	// DefaultDays is the retention period used when no preference is
	// stored or the stored value is malformed.
	DefaultDays = 14

	// MaxDays is the largest retention period accepted at the edit
	// boundary.
	MaxDays = 999

	// DayMillis is one day in epoch milliseconds.
	DayMillis int64 = 24 * 60 * 60 * 1000
)

// Prefs is the configuration reader the policy resolves retention days
// through. Implementations must tolerate missing and malformed values by
// returning the default instead of failing.
type Prefs interface {
	GetIntPref(ctx context.Context, key string, def int) int
}

// Policy resolves the configured retention period and computes purge
// cutoffs from it.
//
// Semantics of the resolved value:
//
//   - days < 0: auto-delete disabled; the sweep is a no-op
//   - days == 0: immediate hard delete; the soft-delete phase is skipped
//   - days > 0: a soft-deleted conversation becomes purge-eligible once
//     now - deletedTimestamp >= days*DayMillis (inclusive boundary)
type Policy struct {
	prefs  Prefs
	logger *slog.Logger

	mu          sync.RWMutex
	defaultDays int
}

// NewPolicy creates a retention policy backed by the given preference
// reader. Pass nil logger for the default.
func NewPolicy(prefs Prefs, defaultDays int, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{
		prefs:       prefs,
		defaultDays: defaultDays,
		logger:      logger.With("component", "retention"),
	}
}

// Days resolves the configured retention period. Never fails: missing or
// malformed stored values degrade to the configured default. Out-of-range
// stored values are returned as-is; clamping happens at the edit boundary
// (ClampDays), not here.
func (p *Policy) Days(ctx context.Context) int {
	p.mu.RLock()
	def := p.defaultDays
	p.mu.RUnlock()
	return p.prefs.GetIntPref(ctx, store.PrefRetentionDays, def)
}

// SetDefaultDays replaces the fallback retention period, typically after a
// config reload. It does not touch the stored preference.
func (p *Policy) SetDefaultDays(days int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if days != p.defaultDays {
		p.logger.Info("default retention period changed",
			"old_days", p.defaultDays, "new_days", days)
	}
	p.defaultDays = days
}

// Disabled reports whether the given retention period disables automatic
// deletion entirely.
func Disabled(days int) bool {
	return days < 0
}

// Immediate reports whether the given retention period means hard delete
// with no soft-delete phase.
func Immediate(days int) bool {
	return days == 0
}

// CutoffMillis returns the purge cutoff for a positive retention period:
// conversations soft-deleted at or before the returned timestamp are
// purge-eligible. Callers must use the immediate branch for days == 0
// rather than a cutoff; there is no finite cutoff that means "everything".
func CutoffMillis(days int, now time.Time) int64 {
	return now.UnixMilli() - int64(days)*DayMillis
}

// Expired reports whether a conversation soft-deleted at deletedTimestamp
// has aged past the retention period at time now. The boundary is
// inclusive: an age of exactly days*DayMillis is expired.
func Expired(days int, deletedTimestamp int64, now time.Time) bool {
	if deletedTimestamp <= 0 {
		return false
	}
	return now.UnixMilli()-deletedTimestamp >= int64(days)*DayMillis
}

// ClampDays constrains user input to the accepted [0, MaxDays] range.
// Used at the settings edit boundary; stored values outside the range are
// still tolerated by Days.
func ClampDays(days int) int {
	if days < 0 {
		return 0
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}
