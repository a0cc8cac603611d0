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

type importLineRepo struct {
	db *sqlx.DB
}

// NewImportLineRepo creates a new PostgreSQL-backed ImportLineRepository.
func NewImportLineRepo(db *sqlx.DB) port.ImportLineRepository {
	return &importLineRepo{db: db}
}

func (r *importLineRepo) CreateBatch(ctx context.Context, lines []domain.ImportLine) error {
	if len(lines) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
		lines[i].CreatedAt = now
		lines[i].UpdatedAt = now
		if lines[i].Version == 0 {
			lines[i].Version = 1
		}
	}

	query := `INSERT INTO import_lines
		(id, batch_id, tenant_id, line_no, description, normalized_desc,
		 quantity, unit_price, total_price, tax_rate, tax_amount,
		 matched_item_id, confidence, status, version, created_at, updated_at)
		VALUES (:id, :batch_id, :tenant_id, :line_no, :description, :normalized_desc,
		 :quantity, :unit_price, :total_price, :tax_rate, :tax_amount,
		 :matched_item_id, :confidence, :status, :version, :created_at, :updated_at)`

	_, err := r.db.NamedExecContext(ctx, query, lines)
	if err != nil {
		return fmt.Errorf("importLineRepo.CreateBatch: %w", err)
	}
	return nil
}

func (r *importLineRepo) GetByID(ctx context.Context, tenantID, lineID uuid.UUID) (*domain.ImportLine, error) {
	var line domain.ImportLine
	err := r.db.GetContext(ctx, &line,
		"SELECT * FROM import_lines WHERE id = $1 AND tenant_id = $2", lineID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLineNotFound
		}
		return nil, fmt.Errorf("importLineRepo.GetByID: %w", err)
	}
	return &line, nil
}

func (r *importLineRepo) ListByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]domain.ImportLine, error) {
	var lines []domain.ImportLine
	err := r.db.SelectContext(ctx, &lines,
		"SELECT * FROM import_lines WHERE batch_id = $1 AND tenant_id = $2 ORDER BY line_no ASC",
		batchID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("importLineRepo.ListByBatch: %w", err)
	}
	return lines, nil
}

// UpdateMatch writes a match decision. The expected version is part of the
// WHERE clause: a stale reviewer loses and gets ErrLineVersionConflict
// instead of overwriting the newer decision.
func (r *importLineRepo) UpdateMatch(ctx context.Context, line *domain.ImportLine, expectedVersion int) error {
	line.UpdatedAt = time.Now().UTC()
	query := `UPDATE import_lines SET
			matched_item_id = $1, confidence = $2, status = $3,
			version = version + 1, updated_at = $4
		WHERE id = $5 AND tenant_id = $6 AND version = $7`
	result, err := r.db.ExecContext(ctx, query,
		line.MatchedItemID, line.Confidence, line.Status, line.UpdatedAt,
		line.ID, line.TenantID, expectedVersion)
	if err != nil {
		return fmt.Errorf("importLineRepo.UpdateMatch: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM import_lines WHERE id = $1 AND tenant_id = $2)",
			line.ID, line.TenantID); err != nil {
			return fmt.Errorf("importLineRepo.UpdateMatch check: %w", err)
		}
		if !exists {
			return domain.ErrLineNotFound
		}
		return domain.ErrLineVersionConflict
	}
	line.Version = expectedVersion + 1
	return nil
}

func (r *importLineRepo) MarkApproved(ctx context.Context, tenantID, batchID uuid.UUID, lineIDs []uuid.UUID) error {
	if len(lineIDs) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`UPDATE import_lines SET status = ?, version = version + 1, updated_at = ?
		WHERE tenant_id = ? AND batch_id = ? AND id IN (?)`,
		domain.LineStatusApproved, time.Now().UTC(), tenantID, batchID, lineIDs)
	if err != nil {
		return fmt.Errorf("importLineRepo.MarkApproved build: %w", err)
	}
	query = r.db.Rebind(query)

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("importLineRepo.MarkApproved: %w", err)
	}
	return nil
}
