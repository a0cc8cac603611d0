package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/port"
)

type importBatchRepo struct {
	db *sqlx.DB
}

// NewImportBatchRepo creates a new PostgreSQL-backed ImportBatchRepository.
func NewImportBatchRepo(db *sqlx.DB) port.ImportBatchRepository {
	return &importBatchRepo{db: db}
}

func (r *importBatchRepo) Create(ctx context.Context, batch *domain.ImportBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	now := time.Now().UTC()
	batch.CreatedAt = now
	batch.UpdatedAt = now

	query := `INSERT INTO import_batches
		(id, tenant_id, kind, status, s3_bucket, s3_key, content_type, file_name, file_size,
		 header, raw_text, error_msg, retryable, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.ExecContext(ctx, query,
		batch.ID, batch.TenantID, batch.Kind, batch.Status,
		batch.S3Bucket, batch.S3Key, batch.ContentType, batch.FileName, batch.FileSize,
		batch.Header, batch.RawText, batch.ErrorMsg, batch.Retryable,
		batch.CreatedBy, batch.CreatedAt, batch.UpdatedAt)
	if err != nil {
		return fmt.Errorf("importBatchRepo.Create: %w", err)
	}
	return nil
}

func (r *importBatchRepo) GetByID(ctx context.Context, tenantID, batchID uuid.UUID) (*domain.ImportBatch, error) {
	var batch domain.ImportBatch
	err := r.db.GetContext(ctx, &batch,
		"SELECT * FROM import_batches WHERE id = $1 AND tenant_id = $2", batchID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBatchNotFound
		}
		return nil, fmt.Errorf("importBatchRepo.GetByID: %w", err)
	}
	return &batch, nil
}

func (r *importBatchRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, kind *domain.ImportKind, offset, limit int) ([]domain.ImportBatch, int, error) {
	where := "WHERE tenant_id = $1"
	args := []interface{}{tenantID}
	if kind != nil {
		where += " AND kind = $2"
		args = append(args, *kind)
	}

	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM import_batches "+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("importBatchRepo.ListByTenant count: %w", err)
	}

	query := fmt.Sprintf("SELECT * FROM import_batches %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var batches []domain.ImportBatch
	err = r.db.SelectContext(ctx, &batches, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("importBatchRepo.ListByTenant: %w", err)
	}
	return batches, total, nil
}

// UpdateStatus moves the batch from one status to another. The expected
// current status is part of the WHERE clause so a concurrent change makes the
// update a no-op instead of clobbering the row.
func (r *importBatchRepo) UpdateStatus(ctx context.Context, tenantID, batchID uuid.UUID, from, to domain.BatchStatus) error {
	if !domain.CanTransition(from, to) {
		return domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	query := `UPDATE import_batches SET status = $1, updated_at = $2
		WHERE id = $3 AND tenant_id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, to, now, batchID, tenantID, from)
	if err != nil {
		return fmt.Errorf("importBatchRepo.UpdateStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Either the batch does not exist or it left the expected status.
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM import_batches WHERE id = $1 AND tenant_id = $2)",
			batchID, tenantID); err != nil {
			return fmt.Errorf("importBatchRepo.UpdateStatus check: %w", err)
		}
		if !exists {
			return domain.ErrBatchNotFound
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *importBatchRepo) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[domain.BatchStatus]int, error) {
	rows := []struct {
		Status domain.BatchStatus `db:"status"`
		Count  int                `db:"count"`
	}{}
	err := r.db.SelectContext(ctx, &rows,
		"SELECT status, COUNT(*) AS count FROM import_batches WHERE tenant_id = $1 GROUP BY status",
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("importBatchRepo.CountByStatus: %w", err)
	}
	counts := make(map[domain.BatchStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// UpdateResult persists the extraction outcome fields after a processing
// attempt: header, raw text, error details and the timestamps.
func (r *importBatchRepo) UpdateResult(ctx context.Context, batch *domain.ImportBatch) error {
	batch.UpdatedAt = time.Now().UTC()
	query := `UPDATE import_batches SET
			status = $1, header = $2, raw_text = $3, error_msg = $4, retryable = $5,
			processed_at = $6, approved_at = $7, updated_at = $8
		WHERE id = $9 AND tenant_id = $10`
	result, err := r.db.ExecContext(ctx, query,
		batch.Status, batch.Header, batch.RawText, batch.ErrorMsg, batch.Retryable,
		batch.ProcessedAt, batch.ApprovedAt, batch.UpdatedAt,
		batch.ID, batch.TenantID)
	if err != nil {
		return fmt.Errorf("importBatchRepo.UpdateResult: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrBatchNotFound
	}
	return nil
}
