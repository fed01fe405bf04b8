package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"contentflow/internal/domain"
)

// NotificationRepositoryPG implements domain.NotificationRepository.
type NotificationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a notification repository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepositoryPG {
	return &NotificationRepositoryPG{pool: pool}
}

// Create inserts a notification row. The ID is assigned here when the caller
// leaves it empty.
func (r *NotificationRepositoryPG) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	query, args, err := psql.
		Insert("notifications").
		Columns("id", "user_id", "title", "message", "severity", "related_entity_id", "related_entity_type").
		Values(n.ID, n.UserID, n.Title, n.Message, n.Severity, n.RelatedEntityID, n.RelatedEntityType).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

var _ domain.NotificationRepository = (*NotificationRepositoryPG)(nil)
