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

type purchaseRepo struct {
	db *sqlx.DB
}

// NewPurchaseRepo creates a new PostgreSQL-backed PurchaseRepository.
func NewPurchaseRepo(db *sqlx.DB) port.PurchaseRepository {
	return &purchaseRepo{db: db}
}

func (r *purchaseRepo) CreateBatch(ctx context.Context, lines []domain.PurchaseLine) error {
	if len(lines) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
		lines[i].CreatedAt = now
	}

	query := `INSERT INTO purchase_lines
		(id, tenant_id, batch_id, line_id, product_id, quantity, unit_price, total_price, created_by, created_at)
		VALUES (:id, :tenant_id, :batch_id, :line_id, :product_id, :quantity, :unit_price, :total_price, :created_by, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, lines)
	if err != nil {
		return fmt.Errorf("purchaseRepo.CreateBatch: %w", err)
	}
	return nil
}

func (r *purchaseRepo) CountByBatch(ctx context.Context, tenantID, batchID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM purchase_lines WHERE tenant_id = $1 AND batch_id = $2",
		tenantID, batchID)
	if err != nil {
		return 0, fmt.Errorf("purchaseRepo.CountByBatch: %w", err)
	}
	return count, nil
}
