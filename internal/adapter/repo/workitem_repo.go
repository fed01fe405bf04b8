package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"contentflow/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const workItemColumns = "id, kind, status, owner_id, title, body, category, content_type, " +
	"source_type, source_id, target_audience, tags, derivative_types, fields, " +
	"result_ref, external_url, retry_count, last_error_message, " +
	"processing_started_at, processing_timeout_at, created_at, updated_at"

// WorkItemRepositoryPG implements domain.WorkItemRepository on PostgreSQL.
type WorkItemRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewWorkItemRepository creates a work item repository backed by PostgreSQL.
func NewWorkItemRepository(pool *pgxpool.Pool) *WorkItemRepositoryPG {
	return &WorkItemRepositoryPG{pool: pool}
}

// GetByID fetches a work item by its identifier.
func (r *WorkItemRepositoryPG) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	query, args, err := psql.
		Select(workItemColumns).
		From("work_items").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	row := r.pool.QueryRow(ctx, query, args...)
	item, err := scanWorkItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

// MarkProcessing stamps both timing fields and clears the previous error.
func (r *WorkItemRepositoryPG) MarkProcessing(ctx context.Context, id string, startedAt, timeoutAt time.Time) error {
	query, args, err := psql.
		Update("work_items").
		Set("status", domain.StatusProcessing).
		Set("processing_started_at", startedAt).
		Set("processing_timeout_at", timeoutAt).
		Set("last_error_message", "").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.execOne(ctx, query, args)
}

// MarkFailed records a terminal failure and clears the timing pair.
func (r *WorkItemRepositoryPG) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query, args, err := psql.
		Update("work_items").
		Set("status", domain.StatusFailed).
		Set("last_error_message", errMsg).
		Set("processing_started_at", nil).
		Set("processing_timeout_at", nil).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.execOne(ctx, query, args)
}

// MarkTerminal records a terminal success and clears timing and error fields.
func (r *WorkItemRepositoryPG) MarkTerminal(ctx context.Context, id string, status domain.Status, resultRef, externalURL string) error {
	b := psql.
		Update("work_items").
		Set("status", status).
		Set("last_error_message", "").
		Set("processing_started_at", nil).
		Set("processing_timeout_at", nil).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id})
	if resultRef != "" {
		b = b.Set("result_ref", resultRef)
	}
	if externalURL != "" {
		b = b.Set("external_url", externalURL)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.execOne(ctx, query, args)
}

// UpdateStatus flips only the status column.
func (r *WorkItemRepositoryPG) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	query, args, err := psql.
		Update("work_items").
		Set("status", status).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.execOne(ctx, query, args)
}

// ListExpiredProcessing returns items whose processing deadline has passed.
func (r *WorkItemRepositoryPG) ListExpiredProcessing(ctx context.Context, now time.Time) ([]domain.WorkItem, error) {
	query, args, err := psql.
		Select(workItemColumns).
		From("work_items").
		Where(sq.Eq{"status": domain.StatusProcessing}).
		Where(sq.Lt{"processing_timeout_at": now}).
		OrderBy("processing_timeout_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expired: %w", err)
	}
	defer rows.Close()

	var items []domain.WorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return items, nil
}

// FailExpired flips the given items to failed in a single statement. The
// predicate repeats the processing+expired filter so an item a late callback
// already finalized is skipped rather than clobbered; the returned IDs are
// the rows that actually flipped.
func (r *WorkItemRepositoryPG) FailExpired(ctx context.Context, ids []string, errMsg string, now time.Time) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := psql.
		Update("work_items").
		Set("status", domain.StatusFailed).
		Set("last_error_message", errMsg).
		Set("processing_started_at", nil).
		Set("processing_timeout_at", nil).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": ids}).
		Where(sq.Eq{"status": domain.StatusProcessing}).
		Where(sq.Lt{"processing_timeout_at": now}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fail expired: %w", err)
	}
	defer rows.Close()

	var flipped []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reaped id: %w", err)
		}
		flipped = append(flipped, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return flipped, nil
}

func (r *WorkItemRepositoryPG) execOne(ctx context.Context, query string, args []any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanWorkItem(row pgx.Row) (*domain.WorkItem, error) {
	var item domain.WorkItem
	if err := row.Scan(
		&item.ID,
		&item.Kind,
		&item.Status,
		&item.OwnerID,
		&item.Title,
		&item.Body,
		&item.Category,
		&item.ContentType,
		&item.SourceType,
		&item.SourceID,
		&item.TargetAudience,
		&item.Tags,
		&item.DerivativeTypes,
		&item.Fields,
		&item.ResultRef,
		&item.ExternalURL,
		&item.RetryCount,
		&item.LastErrorMessage,
		&item.ProcessingStartedAt,
		&item.ProcessingTimeoutAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

var _ domain.WorkItemRepository = (*WorkItemRepositoryPG)(nil)
