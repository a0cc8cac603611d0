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

type metricRepo struct {
	db *sqlx.DB
}

// NewProcessingMetricRepo creates a new PostgreSQL-backed ProcessingMetricRepository.
func NewProcessingMetricRepo(db *sqlx.DB) port.ProcessingMetricRepository {
	return &metricRepo{db: db}
}

func (r *metricRepo) Create(ctx context.Context, metric *domain.ProcessingMetric) error {
	if metric.ID == uuid.Nil {
		metric.ID = uuid.New()
	}
	metric.CreatedAt = time.Now().UTC()

	query := `INSERT INTO processing_metrics
		(id, tenant_id, batch_id, method, duration_ms, success, items_extracted, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		metric.ID, metric.TenantID, metric.BatchID, metric.Method,
		metric.DurationMs, metric.Success, metric.ItemsExtracted, metric.Detail, metric.CreatedAt)
	if err != nil {
		return fmt.Errorf("metricRepo.Create: %w", err)
	}
	return nil
}

func (r *metricRepo) ListByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]domain.ProcessingMetric, error) {
	var metrics []domain.ProcessingMetric
	err := r.db.SelectContext(ctx, &metrics,
		"SELECT * FROM processing_metrics WHERE tenant_id = $1 AND batch_id = $2 ORDER BY created_at ASC",
		tenantID, batchID)
	if err != nil {
		return nil, fmt.Errorf("metricRepo.ListByBatch: %w", err)
	}
	return metrics, nil
}
