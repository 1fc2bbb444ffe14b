package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stratix/import-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// importJobRepository implements ImportJobRepository backed by pgxpool.
type importJobRepository struct {
	pool *pgxpool.Pool
}

// NewImportJobRepository creates a new import job repository.
func NewImportJobRepository(pool *pgxpool.Pool) ImportJobRepository {
	return &importJobRepository{pool: pool}
}

const importJobColumns = `id, tenant_id, uploader_id, object_key, file_name, content_type, size_bytes, checksum,
	status, total_rows, processed_rows, success_rows, error_rows, error_summary, created_at, started_at, completed_at`

// Create persists a job in its initial queued state.
func (r *importJobRepository) Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO import_jobs (id, tenant_id, uploader_id, object_key, file_name, content_type, size_bytes, checksum, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+importJobColumns,
		job.ID,
		job.TenantID,
		job.UploaderID,
		job.ObjectKey,
		job.FileName,
		job.ContentType,
		job.SizeBytes,
		job.Checksum,
		job.Status,
	)
	created, err := scanImportJob(row)
	if err != nil {
		return domain.ImportJob{}, fmt.Errorf("failed to create import job: %w", err)
	}
	return created, nil
}

// GetByID retrieves a job by ID.
func (r *importJobRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ImportJob, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+importJobColumns+` FROM import_jobs WHERE id = $1`,
		id,
	)
	job, err := scanImportJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ImportJob{}, ErrNotFound
		}
		return domain.ImportJob{}, fmt.Errorf("failed to get import job: %w", err)
	}
	return job, nil
}

// ListByTenant returns the most recent jobs for a tenant.
func (r *importJobRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.ImportJob, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+importJobColumns+`
		 FROM import_jobs
		 WHERE tenant_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		tenantID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import jobs: %w", err)
	}
	defer rows.Close()

	jobs := []domain.ImportJob{}
	for rows.Next() {
		job, err := scanImportJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import jobs: %w", err)
	}
	return jobs, nil
}

// MarkProcessing moves a queued job to processing and records the row
// total and start time. Terminal jobs are never moved.
func (r *importJobRepository) MarkProcessing(ctx context.Context, id uuid.UUID, totalRows int) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE import_jobs
		 SET status = $2, total_rows = $3, started_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id,
		domain.JobStatusProcessing,
		totalRows,
		domain.JobStatusQueued,
	)
	if err != nil {
		return fmt.Errorf("failed to mark import job processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("import job %s is not in queued state", id)
	}
	return nil
}

// UpdateProgress persists a progress snapshot. Counters only ever grow,
// so a concurrently polling caller observes monotonic progress.
func (r *importJobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, processed, success, errored int) error {
	_, err := r.pool.Exec(
		ctx,
		`UPDATE import_jobs
		 SET processed_rows = $2, success_rows = $3, error_rows = $4
		 WHERE id = $1`,
		id,
		processed,
		success,
		errored,
	)
	if err != nil {
		return fmt.Errorf("failed to update import job progress: %w", err)
	}
	return nil
}

// MarkTerminal moves a job into a terminal state. The guard clause keeps
// already-terminal jobs untouched.
func (r *importJobRepository) MarkTerminal(ctx context.Context, id uuid.UUID, status domain.JobStatus, summary string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("status %s is not terminal", status)
	}

	_, err := r.pool.Exec(
		ctx,
		`UPDATE import_jobs
		 SET status = $2, error_summary = $3, completed_at = NOW()
		 WHERE id = $1 AND status NOT IN ($4, $5, $6)`,
		id,
		status,
		summary,
		domain.JobStatusCompleted,
		domain.JobStatusPartial,
		domain.JobStatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to mark import job terminal: %w", err)
	}
	return nil
}

// AppendItem records one per-row outcome. Items are append-only.
func (r *importJobRepository) AppendItem(ctx context.Context, item domain.ImportJobItem) error {
	rawJSON, err := json.Marshal(item.RawRow)
	if err != nil {
		return fmt.Errorf("failed to marshal raw row: %w", err)
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO import_job_items (id, job_id, row_number, entity_kind, entity_key, entity_id, action, status, message, raw_row)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID,
		item.JobID,
		item.RowNumber,
		item.EntityKind,
		item.EntityKey,
		item.EntityID,
		item.Action,
		item.Status,
		item.Message,
		rawJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to append import job item: %w", err)
	}
	return nil
}

// ListItems returns all items for a job in file order.
func (r *importJobRepository) ListItems(ctx context.Context, jobID uuid.UUID) ([]domain.ImportJobItem, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, job_id, row_number, entity_kind, entity_key, entity_id, action, status, message, raw_row, processed_at
		 FROM import_job_items
		 WHERE job_id = $1
		 ORDER BY row_number`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import job items: %w", err)
	}
	defer rows.Close()

	items := []domain.ImportJobItem{}
	for rows.Next() {
		var (
			item    domain.ImportJobItem
			rawJSON []byte
		)
		if err := rows.Scan(
			&item.ID,
			&item.JobID,
			&item.RowNumber,
			&item.EntityKind,
			&item.EntityKey,
			&item.EntityID,
			&item.Action,
			&item.Status,
			&item.Message,
			&rawJSON,
			&item.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan import job item: %w", err)
		}

		item.RawRow = map[string]string{}
		if len(rawJSON) > 0 {
			if err := json.Unmarshal(rawJSON, &item.RawRow); err != nil {
				return nil, fmt.Errorf("failed to decode raw row for item %s: %w", item.ID, err)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import job items: %w", err)
	}
	return items, nil
}

func scanImportJob(row pgx.Row) (domain.ImportJob, error) {
	var job domain.ImportJob
	if err := row.Scan(
		&job.ID,
		&job.TenantID,
		&job.UploaderID,
		&job.ObjectKey,
		&job.FileName,
		&job.ContentType,
		&job.SizeBytes,
		&job.Checksum,
		&job.Status,
		&job.TotalRows,
		&job.ProcessedRows,
		&job.SuccessRows,
		&job.ErrorRows,
		&job.ErrorSummary,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	); err != nil {
		return domain.ImportJob{}, err
	}
	return job, nil
}

// Stats aggregates job activity for a tenant.
func (r *importJobRepository) Stats(ctx context.Context, tenantID uuid.UUID) (domain.ImportJobStats, error) {
	var stats domain.ImportJobStats
	err := r.pool.QueryRow(
		ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'queued'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'partial'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COALESCE(SUM(total_rows), 0),
			COALESCE(SUM(success_rows), 0),
			COALESCE(SUM(error_rows), 0)
		 FROM import_jobs
		 WHERE tenant_id = $1`,
		tenantID,
	).Scan(
		&stats.TotalJobs,
		&stats.QueuedJobs,
		&stats.ProcessingJobs,
		&stats.CompletedJobs,
		&stats.PartialJobs,
		&stats.FailedJobs,
		&stats.TotalRows,
		&stats.SuccessRows,
		&stats.ErrorRows,
	)
	if err != nil {
		return domain.ImportJobStats{}, fmt.Errorf("failed to aggregate import job stats: %w", err)
	}
	return stats, nil
}
