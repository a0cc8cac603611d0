package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/port"
)

type catalogRepo struct {
	db *sqlx.DB
}

// NewCatalogRepo creates a new PostgreSQL-backed CatalogRepository.
func NewCatalogRepo(db *sqlx.DB) port.CatalogRepository {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) GetByID(ctx context.Context, tenantID, itemID uuid.UUID) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	err := r.db.GetContext(ctx, &item,
		"SELECT * FROM catalog_items WHERE id = $1 AND tenant_id = $2", itemID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCatalogItemNotFound
		}
		return nil, fmt.Errorf("catalogRepo.GetByID: %w", err)
	}
	return &item, nil
}

func (r *catalogRepo) ListActive(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind) ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	err := r.db.SelectContext(ctx, &items,
		"SELECT * FROM catalog_items WHERE tenant_id = $1 AND kind = $2 AND is_active = true ORDER BY name ASC",
		tenantID, kind)
	if err != nil {
		return nil, fmt.Errorf("catalogRepo.ListActive: %w", err)
	}
	return items, nil
}

func (r *catalogRepo) Search(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind, query string, limit int) ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	err := r.db.SelectContext(ctx, &items,
		`SELECT * FROM catalog_items
		WHERE tenant_id = $1 AND kind = $2 AND is_active = true
		  AND (name ILIKE '%' || $3 || '%' OR sku ILIKE '%' || $3 || '%')
		ORDER BY name ASC LIMIT $4`,
		tenantID, kind, query, limit)
	if err != nil {
		return nil, fmt.Errorf("catalogRepo.Search: %w", err)
	}
	return items, nil
}
