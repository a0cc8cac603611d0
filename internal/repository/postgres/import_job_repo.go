package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/port"
)

type importJobRepo struct {
	db *sqlx.DB
}

// NewImportJobRepo creates a new PostgreSQL-backed ImportJobRepository.
func NewImportJobRepo(db *sqlx.DB) port.ImportJobRepository {
	return &importJobRepo{db: db}
}

func (r *importJobRepo) Enqueue(ctx context.Context, job *domain.ImportJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	if job.NextAttemptAt.IsZero() {
		job.NextAttemptAt = now
	}

	query := `INSERT INTO import_jobs
		(id, tenant_id, batch_id, attempts, max_attempts, next_attempt_at, last_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.TenantID, job.BatchID, job.Attempts, job.MaxAttempts,
		job.NextAttemptAt, job.LastError, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("importJobRepo.Enqueue: %w", err)
	}
	return nil
}

// ClaimPending claims up to limit due jobs. SKIP LOCKED keeps concurrent
// workers from claiming the same row; a claim older than staleAfter belongs
// to a crashed worker and is reclaimed. The attempt counter is bumped at
// claim time so a crashed worker still consumes an attempt.
func (r *importJobRepo) ClaimPending(ctx context.Context, limit int, staleAfter time.Duration) ([]domain.ImportJob, error) {
	now := time.Now().UTC()
	staleBefore := now.Add(-staleAfter)
	query := `UPDATE import_jobs SET claimed_at = $1, attempts = attempts + 1
		WHERE id IN (
			SELECT id FROM import_jobs
			WHERE done_at IS NULL
			  AND (claimed_at IS NULL OR claimed_at < $2)
			  AND next_attempt_at <= $1
			ORDER BY next_attempt_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`

	var jobs []domain.ImportJob
	err := r.db.SelectContext(ctx, &jobs, query, now, staleBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("importJobRepo.ClaimPending: %w", err)
	}
	return jobs, nil
}

func (r *importJobRepo) Release(ctx context.Context, jobID uuid.UUID, lastError string, nextAttemptAt time.Time) error {
	query := `UPDATE import_jobs SET claimed_at = NULL, last_error = $1, next_attempt_at = $2
		WHERE id = $3 AND done_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, lastError, nextAttemptAt, jobID)
	if err != nil {
		return fmt.Errorf("importJobRepo.Release: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *importJobRepo) Finish(ctx context.Context, jobID uuid.UUID, lastError string) error {
	now := time.Now().UTC()
	query := `UPDATE import_jobs SET done_at = $1, last_error = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, now, lastError, jobID)
	if err != nil {
		return fmt.Errorf("importJobRepo.Finish: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
