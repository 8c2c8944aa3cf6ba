// ABOUTME: Batch auto-purge sweep over expired soft-deleted conversations
// ABOUTME: Scans the store under the current retention policy and purges per-row

package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/finch-store/internal/deleter"
	"github.com/2389/finch-store/internal/notify"
	"github.com/2389/finch-store/internal/retention"
	"github.com/2389/finch-store/internal/store"
)

// Result aggregates the outcome of one sweep run.
type Result struct {
	Purged    int // conversations permanently deleted
	Remaining int // soft-deleted conversations still inside the retention window
	Failed    int // conversations whose purge failed
}

// Sweeper scans for soft-deleted conversations whose retention window has
// elapsed and permanently deletes them. One run is best-effort: a single
// conversation's failure never stops the rest of the batch.
type Sweeper struct {
	store    store.ConversationStore
	deleter  *deleter.Deleter
	policy   *retention.Policy
	notifier notify.Notifier
	metrics  *Metrics
	logger   *slog.Logger
}

// NewSweeper creates a Sweeper. Pass nil metrics to disable reporting and
// nil logger for the default.
func NewSweeper(convStore store.ConversationStore, del *deleter.Deleter, policy *retention.Policy, notifier notify.Notifier, metrics *Metrics, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:    convStore,
		deleter:  del,
		policy:   policy,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.With("component", "sweep"),
	}
}

// Run performs one sweep at the given reference time. A disabled policy
// (negative retention) makes the run a no-op, not an error. Age is
// computed per conversation from its own deletion timestamp, so rows that
// changed state between scan and delete degrade to no-ops.
//
// The sweep always purges with the delete-all cutoff; per-call cutoff
// semantics only apply to interactive deletes.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (Result, error) {
	start := time.Now()

	days := s.policy.Days(ctx)
	if retention.Disabled(days) {
		s.logger.Debug("auto purge is disabled, skipping sweep", "retention_days", days)
		return Result{}, nil
	}

	candidates, err := s.store.ListSoftDeleted(ctx)
	if err != nil {
		s.metrics.recordRun(Result{}, time.Since(start), true)
		return Result{}, fmt.Errorf("scanning soft-deleted conversations: %w", err)
	}

	var result Result
	for _, c := range candidates {
		if !retention.Immediate(days) && !retention.Expired(days, c.DeletedTimestamp, now) {
			result.Remaining++
			continue
		}

		if s.deleter.Purge(ctx, c.ID, store.DeleteAllMessages) {
			result.Purged++
		} else {
			result.Failed++
		}
	}

	if result.Purged > 0 {
		s.notifier.NotifyListChanged()
	}

	s.metrics.recordRun(result, time.Since(start), false)
	s.logger.Info("sweep completed",
		"retention_days", days,
		"purged", result.Purged,
		"remaining", result.Remaining,
		"failed", result.Failed,
		"duration", time.Since(start))

	return result, nil
}
