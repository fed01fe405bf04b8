package callback

import (
	"context"
	"fmt"

	"contentflow/internal/domain"
	"contentflow/internal/infra"
	"contentflow/internal/notify"
)

// Callback status values reported by remote workers.
const (
	callbackStatusCompleted = "completed"
	callbackStatusFailed    = "failed"
)

// Reconcilers holds the store-facing routines behind the router. One method
// per callback kind, all following the same shape: validate, terminal
// update, notification; every failure past validation is best-effort.
type Reconcilers struct {
	items    domain.WorkItemRepository
	notifier *notify.Notifier
	logger   infra.Logger
}

// NewReconcilers constructs the reconciliation routines.
func NewReconcilers(items domain.WorkItemRepository, notifier *notify.Notifier, logger infra.Logger) *Reconcilers {
	return &Reconcilers{items: items, notifier: notifier, logger: logger}
}

// NewDefaultRouter returns a router with every known callback kind
// registered, plus the submission-derivative fallback route.
func NewDefaultRouter(rec *Reconcilers, logger infra.Logger) *Router {
	r := NewRouter(logger)
	r.Register("submission_processing_complete", ReconcilerFunc(rec.SubmissionProcessed))
	r.Register("idea_processing_complete", ReconcilerFunc(rec.IdeaProcessed))
	r.Register("brief_creation_complete", ReconcilerFunc(rec.BriefCreated))
	r.Register("derivative_generation_complete", ReconcilerFunc(rec.DerivativesGenerated))
	r.RegisterFallback(ReconcilerFunc(rec.DerivativesGenerated))
	return r
}

// SubmissionProcessed handles completion of submission processing. A
// successful run may reference the content item the worker created from the
// submission; the reference is stored on the submission row.
func (r *Reconcilers) SubmissionProcessed(ctx context.Context, env *Envelope) error {
	if err := requireFields(env, "submission_id", "status"); err != nil {
		return err
	}
	id := env.String("submission_id")

	item, err := r.items.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load submission %s: %w", id, err)
	}

	if env.String("status") != callbackStatusCompleted {
		r.finishFailed(ctx, item, env.String("error"), "Submission processing failed")
		return nil
	}

	resultRef := env.String("content_item_id")
	if err := r.items.MarkTerminal(ctx, item.ID, domain.TerminalSuccessStatus(item.Kind), resultRef, ""); err != nil {
		r.logger.Error().Err(err).Str("work_item_id", item.ID).Msg("callback: terminal update failed")
		return nil
	}
	r.notifier.Success(ctx, item.OwnerID,
		"Submission processed",
		fmt.Sprintf("%q has been processed and is ready for review.", item.Title),
		item.ID, string(item.Kind))
	return nil
}

// IdeaProcessed handles completion of idea expansion. The success
// notification carries the suggestion count reported by the worker.
func (r *Reconcilers) IdeaProcessed(ctx context.Context, env *Envelope) error {
	if err := requireFields(env, "idea_id", "status"); err != nil {
		return err
	}
	id := env.String("idea_id")

	item, err := r.items.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load idea %s: %w", id, err)
	}

	if env.String("status") != callbackStatusCompleted {
		r.finishFailed(ctx, item, env.String("error"), "Idea processing failed")
		return nil
	}

	if err := r.items.MarkTerminal(ctx, item.ID, domain.TerminalSuccessStatus(item.Kind), "", ""); err != nil {
		r.logger.Error().Err(err).Str("work_item_id", item.ID).Msg("callback: terminal update failed")
		return nil
	}
	r.notifier.Success(ctx, item.OwnerID,
		"Idea processed",
		fmt.Sprintf("%q finished processing with %d suggestions.", item.Title, env.Int("suggestions_count")),
		item.ID, string(item.Kind))
	return nil
}

// BriefCreated handles completion of brief creation. When the brief records
// an idea as its source, the source idea is advanced as well; that update is
// best-effort and never blocks the notification. Other source kinds are left
// untouched.
func (r *Reconcilers) BriefCreated(ctx context.Context, env *Envelope) error {
	if err := requireFields(env, "brief_id", "status"); err != nil {
		return err
	}
	id := env.String("brief_id")

	item, err := r.items.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load brief %s: %w", id, err)
	}

	if env.String("status") != callbackStatusCompleted {
		r.finishFailed(ctx, item, env.String("error"), "Brief creation failed")
		return nil
	}

	if err := r.items.MarkTerminal(ctx, item.ID, domain.TerminalSuccessStatus(item.Kind), "", ""); err != nil {
		r.logger.Error().Err(err).Str("work_item_id", item.ID).Msg("callback: terminal update failed")
		return nil
	}

	if item.SourceType == string(domain.KindIdea) && item.SourceID != "" {
		if err := r.items.UpdateStatus(ctx, item.SourceID, domain.StatusCompleted); err != nil {
			r.logger.Error().Err(err).
				Str("brief_id", item.ID).
				Str("source_id", item.SourceID).
				Msg("callback: source idea update failed")
		}
	}

	r.notifier.Success(ctx, item.OwnerID,
		"Brief created",
		fmt.Sprintf("Brief %q is ready.", item.Title),
		item.ID, string(item.Kind))
	return nil
}

// DerivativesGenerated handles completion of derivative generation for a
// content item. Also serves untyped callbacks that carry submission and
// content item references. The success notification carries the derivative
// count.
func (r *Reconcilers) DerivativesGenerated(ctx context.Context, env *Envelope) error {
	if err := requireFields(env, "content_item_id", "status"); err != nil {
		return err
	}
	id := env.String("content_item_id")

	item, err := r.items.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load content item %s: %w", id, err)
	}

	if env.String("status") != callbackStatusCompleted {
		r.finishFailed(ctx, item, env.String("error"), "Derivative generation failed")
		return nil
	}

	if err := r.items.MarkTerminal(ctx, item.ID, domain.TerminalSuccessStatus(item.Kind), env.String("submission_id"), ""); err != nil {
		r.logger.Error().Err(err).Str("work_item_id", item.ID).Msg("callback: terminal update failed")
		return nil
	}
	count := env.Int("derivatives_count")
	r.notifier.Success(ctx, item.OwnerID,
		"Derivatives generated",
		fmt.Sprintf("%d derivatives generated for %q.", count, item.Title),
		item.ID, string(item.Kind))
	return nil
}

// finishFailed records a terminal failure and notifies the owner. Every
// failed item carries a non-empty error message usable directly in UI text.
func (r *Reconcilers) finishFailed(ctx context.Context, item *domain.WorkItem, errMsg, title string) {
	if errMsg == "" {
		errMsg = "Processing failed without details from the worker"
	}
	if err := r.items.MarkFailed(ctx, item.ID, errMsg); err != nil {
		r.logger.Error().Err(err).Str("work_item_id", item.ID).Msg("callback: failure update failed")
		return
	}
	r.notifier.Failure(ctx, item.OwnerID, title, errMsg, item.ID, string(item.Kind))
}
