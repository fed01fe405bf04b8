package domain

import (
	"context"
	"time"
)

// WorkItemRepository defines persistence for work items. Implementations
// must keep the processing timestamp pair consistent: MarkProcessing sets
// both, every terminal transition clears both.
type WorkItemRepository interface {
	GetByID(ctx context.Context, id string) (*WorkItem, error)

	// MarkProcessing transitions the item into processing, stamping both
	// timing fields and clearing any previous error message.
	MarkProcessing(ctx context.Context, id string, startedAt, timeoutAt time.Time) error

	// MarkFailed transitions the item to failed with a non-empty error
	// message and clears the timing fields.
	MarkFailed(ctx context.Context, id string, errMsg string) error

	// MarkTerminal transitions the item to a terminal success status,
	// clearing timing and error fields. resultRef and externalURL are
	// persisted when non-empty.
	MarkTerminal(ctx context.Context, id string, status Status, resultRef, externalURL string) error

	// UpdateStatus flips only the status column. Used for best-effort
	// source-entity updates during reconciliation.
	UpdateStatus(ctx context.Context, id string, status Status) error

	// ListExpiredProcessing returns items stuck in processing whose
	// deadline passed before now.
	ListExpiredProcessing(ctx context.Context, now time.Time) ([]WorkItem, error)

	// FailExpired flips the given items to failed in one statement,
	// guarded by the same processing+expired predicate so a racing
	// callback simply wins. Returns the IDs actually flipped, which may
	// be a subset of ids.
	FailExpired(ctx context.Context, ids []string, errMsg string, now time.Time) ([]string, error)
}

// ChannelRepository resolves outbound webhook endpoint configuration.
type ChannelRepository interface {
	// ListActiveByName returns active channels for the name, most recently
	// updated first (created_at breaks ties).
	ListActiveByName(ctx context.Context, name string) ([]WebhookChannel, error)
}

// NotificationRepository persists user-visible notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
}

// DerivativeRepository reads generated assets for a content item.
type DerivativeRepository interface {
	ListByContentItem(ctx context.Context, contentItemID string) ([]Derivative, error)
}
