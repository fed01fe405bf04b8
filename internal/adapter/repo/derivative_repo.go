package repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"contentflow/internal/domain"
)

// DerivativeRepositoryPG implements domain.DerivativeRepository.
type DerivativeRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDerivativeRepository creates a derivative repository.
func NewDerivativeRepository(pool *pgxpool.Pool) *DerivativeRepositoryPG {
	return &DerivativeRepositoryPG{pool: pool}
}

// ListByContentItem returns all derivatives attached to a content item.
func (r *DerivativeRepositoryPG) ListByContentItem(ctx context.Context, contentItemID string) ([]domain.Derivative, error) {
	query, args, err := psql.
		Select("id, content_item_id, derivative_type, content_type, content, file_url, word_count, status, created_at").
		From("derivatives").
		Where(sq.Eq{"content_item_id": contentItemID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query derivatives: %w", err)
	}
	defer rows.Close()

	var derivatives []domain.Derivative
	for rows.Next() {
		var d domain.Derivative
		if err := rows.Scan(&d.ID, &d.ContentItemID, &d.DerivativeType, &d.ContentType, &d.Content, &d.FileURL, &d.WordCount, &d.Status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan derivative: %w", err)
		}
		derivatives = append(derivatives, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return derivatives, nil
}

var _ domain.DerivativeRepository = (*DerivativeRepositoryPG)(nil)
