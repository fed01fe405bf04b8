package repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"contentflow/internal/domain"
)

// ChannelRepositoryPG implements domain.ChannelRepository on PostgreSQL.
type ChannelRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewChannelRepository creates a webhook channel repository.
func NewChannelRepository(pool *pgxpool.Pool) *ChannelRepositoryPG {
	return &ChannelRepositoryPG{pool: pool}
}

// ListActiveByName returns active channels for a name, newest update first.
func (r *ChannelRepositoryPG) ListActiveByName(ctx context.Context, name string) ([]domain.WebhookChannel, error) {
	query, args, err := psql.
		Select("id, channel_name, endpoint_url, is_active, created_at, updated_at").
		From("webhook_channels").
		Where(sq.Eq{"channel_name": name, "is_active": true}).
		OrderBy("updated_at DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	var channels []domain.WebhookChannel
	for rows.Next() {
		var ch domain.WebhookChannel
		if err := rows.Scan(&ch.ID, &ch.ChannelName, &ch.EndpointURL, &ch.IsActive, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return channels, nil
}

var _ domain.ChannelRepository = (*ChannelRepositoryPG)(nil)
