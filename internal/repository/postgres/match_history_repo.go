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

type matchHistoryRepo struct {
	db *sqlx.DB
}

// NewMatchHistoryRepo creates a new PostgreSQL-backed MatchHistoryRepository.
func NewMatchHistoryRepo(db *sqlx.DB) port.MatchHistoryRepository {
	return &matchHistoryRepo{db: db}
}

func (r *matchHistoryRepo) Append(ctx context.Context, entry *domain.MatchHistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()

	query := `INSERT INTO match_history
		(id, tenant_id, normalized_desc, item_id, confidence, confirmed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.TenantID, entry.NormalizedDesc, entry.ItemID,
		entry.Confidence, entry.ConfirmedBy, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("matchHistoryRepo.Append: %w", err)
	}
	return nil
}

// LookupByDescription aggregates confirmations for one normalized description.
// Items confirmed more often rank first, recency breaks ties. The returned
// entries carry the representative item_id and its latest confirmation time.
func (r *matchHistoryRepo) LookupByDescription(ctx context.Context, tenantID uuid.UUID, normalizedDesc string, limit int) ([]domain.MatchHistoryEntry, error) {
	query := `SELECT id, tenant_id, normalized_desc, item_id, confidence, confirmed_by, created_at
		FROM (
			SELECT *, COUNT(*) OVER (PARTITION BY item_id) AS cnt,
			       ROW_NUMBER() OVER (PARTITION BY item_id ORDER BY created_at DESC) AS rn
			FROM match_history
			WHERE tenant_id = $1 AND normalized_desc = $2
		) ranked
		WHERE rn = 1
		ORDER BY cnt DESC, created_at DESC
		LIMIT $3`

	var entries []domain.MatchHistoryEntry
	err := r.db.SelectContext(ctx, &entries, query, tenantID, normalizedDesc, limit)
	if err != nil {
		return nil, fmt.Errorf("matchHistoryRepo.LookupByDescription: %w", err)
	}
	return entries, nil
}
