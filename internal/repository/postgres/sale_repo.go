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

type saleRepo struct {
	db *sqlx.DB
}

// NewSaleRepo creates a new PostgreSQL-backed SaleRepository.
func NewSaleRepo(db *sqlx.DB) port.SaleRepository {
	return &saleRepo{db: db}
}

func (r *saleRepo) CreateBatch(ctx context.Context, records []domain.SaleRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range records {
		if records[i].ID == uuid.Nil {
			records[i].ID = uuid.New()
		}
		records[i].CreatedAt = now
	}

	query := `INSERT INTO sale_records
		(id, tenant_id, batch_id, line_id, menu_item_id, quantity, unit_price, total_price, sale_date, created_by, created_at)
		VALUES (:id, :tenant_id, :batch_id, :line_id, :menu_item_id, :quantity, :unit_price, :total_price, :sale_date, :created_by, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, records)
	if err != nil {
		return fmt.Errorf("saleRepo.CreateBatch: %w", err)
	}
	return nil
}

func (r *saleRepo) CountByBatch(ctx context.Context, tenantID, batchID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM sale_records WHERE tenant_id = $1 AND batch_id = $2",
		tenantID, batchID)
	if err != nil {
		return 0, fmt.Errorf("saleRepo.CountByBatch: %w", err)
	}
	return count, nil
}
