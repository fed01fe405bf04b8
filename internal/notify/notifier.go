// Package notify delivers user-visible notifications on terminal work item
// transitions. Delivery is best-effort: a failed write is logged and never
// surfaced to the caller, because notification is a side channel and must not
// fail the transition that triggered it.
package notify

import (
	"context"

	"contentflow/internal/domain"
	"contentflow/internal/infra"
)

// Notifier persists notifications through a NotificationRepository.
type Notifier struct {
	repo   domain.NotificationRepository
	logger infra.Logger
}

// New constructs a Notifier.
func New(repo domain.NotificationRepository, logger infra.Logger) *Notifier {
	return &Notifier{repo: repo, logger: logger}
}

// Send persists a single notification. Failures are logged and swallowed.
func (n *Notifier) Send(ctx context.Context, notification *domain.Notification) {
	if notification.UserID == "" {
		n.logger.Warn().Str("title", notification.Title).Msg("notify: dropping notification without user id")
		return
	}
	if err := n.repo.Create(ctx, notification); err != nil {
		n.logger.Error().Err(err).
			Str("user_id", notification.UserID).
			Str("title", notification.Title).
			Msg("notify: failed to create notification")
	}
}

// Success is a convenience for terminal success notifications tied to an entity.
func (n *Notifier) Success(ctx context.Context, userID, title, message, entityID, entityType string) {
	n.Send(ctx, &domain.Notification{
		UserID:            userID,
		Title:             title,
		Message:           message,
		Severity:          domain.SeveritySuccess,
		RelatedEntityID:   entityID,
		RelatedEntityType: entityType,
	})
}

// Failure is a convenience for terminal failure notifications tied to an entity.
func (n *Notifier) Failure(ctx context.Context, userID, title, message, entityID, entityType string) {
	n.Send(ctx, &domain.Notification{
		UserID:            userID,
		Title:             title,
		Message:           message,
		Severity:          domain.SeverityError,
		RelatedEntityID:   entityID,
		RelatedEntityType: entityType,
	})
}
