// Package reaper force-fails work items stuck in processing past their
// deadline. It is a pure poll-and-reap: the caller's invocation cadence
// determines how far past the deadline an item may linger.
package reaper

import (
	"context"
	"fmt"
	"time"

	"contentflow/internal/domain"
	"contentflow/internal/infra"
	"contentflow/internal/notify"
)

const timeoutMessage = "Processing timed out"

// ReapedItem describes one work item a sweep force-failed.
type ReapedItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	RetryCount int    `json:"retry_count"`
}

// SweepResult reports what a single sweep did.
type SweepResult struct {
	ProcessedCount int          `json:"processed_count"`
	FailedItems    []ReapedItem `json:"failed_items"`
}

// Reaper sweeps expired processing items.
type Reaper struct {
	items    domain.WorkItemRepository
	notifier *notify.Notifier
	logger   infra.Logger
	now      func() time.Time
}

// New constructs a Reaper.
func New(items domain.WorkItemRepository, notifier *notify.Notifier, logger infra.Logger) *Reaper {
	return &Reaper{items: items, notifier: notifier, logger: logger, now: time.Now}
}

// Sweep finds work items whose processing deadline has passed, flips them to
// failed in one batch update and emits one notification per reaped item.
//
// The batch update repeats the processing+expired predicate, so a sweep that
// races a late callback skips whatever the callback already finalized, and a
// second sweep over the same items reaps nothing. A store failure fails the
// whole sweep; notification failures are independent per item.
func (r *Reaper) Sweep(ctx context.Context) (*SweepResult, error) {
	now := r.now().UTC()

	expired, err := r.items.ListExpiredProcessing(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list expired items: %w", err)
	}
	if len(expired) == 0 {
		return &SweepResult{}, nil
	}

	ids := make([]string, len(expired))
	for i, item := range expired {
		ids[i] = item.ID
	}

	reaped, err := r.items.FailExpired(ctx, ids, timeoutMessage, now)
	if err != nil {
		return nil, fmt.Errorf("fail expired items: %w", err)
	}
	flipped := make(map[string]bool, len(reaped))
	for _, id := range reaped {
		flipped[id] = true
	}

	result := &SweepResult{ProcessedCount: len(reaped)}
	for _, item := range expired {
		if !flipped[item.ID] {
			// A late callback finalized it between list and update; the
			// owner must not hear it was marked failed.
			continue
		}
		result.FailedItems = append(result.FailedItems, ReapedItem{
			ID:         item.ID,
			Title:      item.Title,
			RetryCount: item.RetryCount,
		})
		r.notifier.Failure(ctx, item.OwnerID,
			"Processing timed out",
			fmt.Sprintf("%q did not finish within the allowed time and was marked failed.", item.Title),
			item.ID, string(item.Kind))
	}

	r.logger.Info().
		Int("reaped", len(reaped)).
		Int("expired", len(expired)).
		Msg("reaper: sweep complete")
	return result, nil
}
