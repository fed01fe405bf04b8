// Package dispatch hands work items to external long-running workers over
// webhooks and owns the entry into the processing state.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contentflow/internal/domain"
	"contentflow/internal/infra"
)

// Request is a validated dispatch request. Extras carry kind-specific fields
// that pass through to the outbound payload verbatim.
type Request struct {
	WorkItemID string
	Kind       domain.Kind
	Extras     map[string]any
}

// Trigger validates dispatch requests, transitions work items into
// processing and performs the outbound webhook call.
type Trigger struct {
	items       domain.WorkItemRepository
	dispatcher  *Dispatcher
	callbackURL string
	timeout     time.Duration
	logger      infra.Logger
	now         func() time.Time
}

// NewTrigger constructs a Trigger. timeout is the processing window stamped
// onto every dispatched item.
func NewTrigger(items domain.WorkItemRepository, dispatcher *Dispatcher, callbackURL string, timeout time.Duration, logger infra.Logger) *Trigger {
	return &Trigger{
		items:       items,
		dispatcher:  dispatcher,
		callbackURL: callbackURL,
		timeout:     timeout,
		logger:      logger,
		now:         time.Now,
	}
}

// Dispatch hands a work item to its external worker.
//
// The item enters processing before the outbound call so a worker that calls
// back very fast never races an item still marked ready. If the call fails,
// the item is flipped to failed synchronously; it is never left stuck in
// processing.
//
// Content items are the exception: their creation pipeline writes results
// directly into the store, so no outbound call is made for them. This
// asymmetry is intentional.
func (t *Trigger) Dispatch(ctx context.Context, req Request) error {
	if !req.Kind.Valid() {
		return fmt.Errorf("kind %q: %w", req.Kind, domain.ErrInvalidKind)
	}

	item, err := t.items.GetByID(ctx, req.WorkItemID)
	if err != nil {
		return err
	}
	if item.Kind != req.Kind {
		return fmt.Errorf("work item %s has kind %q, not %q: %w", item.ID, item.Kind, req.Kind, domain.ErrInvalidKind)
	}
	if item.InProcessing() {
		return fmt.Errorf("work item %s: %w", item.ID, domain.ErrAlreadyProcessing)
	}

	startedAt := t.now().UTC()
	timeoutAt := startedAt.Add(t.timeout)

	if item.Kind == domain.KindContentItem {
		if err := t.items.MarkProcessing(ctx, item.ID, startedAt, timeoutAt); err != nil {
			return fmt.Errorf("mark processing: %w", err)
		}
		t.logger.Info().
			Str("work_item_id", item.ID).
			Msg("dispatch: content creation accepted, downstream writes results directly")
		return nil
	}

	channel, err := t.resolveForKind(ctx, item.Kind)
	if err != nil {
		return err
	}

	payload := BuildPayload(item, t.callbackURL, req.Extras, startedAt)

	if err := t.items.MarkProcessing(ctx, item.ID, startedAt, timeoutAt); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	if err := t.dispatcher.Send(ctx, channel.EndpointURL, payload); err != nil {
		t.logger.Error().Err(err).
			Str("work_item_id", item.ID).
			Str("channel", channel.ChannelName).
			Msg("dispatch: outbound call failed")
		if markErr := t.items.MarkFailed(ctx, item.ID, err.Error()); markErr != nil {
			t.logger.Error().Err(markErr).
				Str("work_item_id", item.ID).
				Msg("dispatch: failed to record dispatch failure")
		}
		return err
	}

	t.logger.Info().
		Str("work_item_id", item.ID).
		Str("kind", string(item.Kind)).
		Str("channel", channel.ChannelName).
		Time("timeout_at", timeoutAt).
		Msg("dispatch: work item handed to worker")
	return nil
}

// resolveForKind maps the kind to its channel name, applying the
// general-content → knowledge-base fallback for submissions only.
func (t *Trigger) resolveForKind(ctx context.Context, kind domain.Kind) (*domain.WebhookChannel, error) {
	primary, fallback := channelFor(kind)
	if primary == "" {
		return nil, fmt.Errorf("kind %q has no dispatch channel: %w", kind, domain.ErrNoActiveChannel)
	}

	channel, err := t.dispatcher.ResolveChannel(ctx, primary)
	if err == nil {
		return channel, nil
	}
	if fallback == "" || !errors.Is(err, domain.ErrNoActiveChannel) {
		return nil, err
	}

	t.logger.Warn().
		Str("channel", primary).
		Str("fallback", fallback).
		Msg("dispatch: primary channel unavailable, trying fallback")
	return t.dispatcher.ResolveChannel(ctx, fallback)
}
