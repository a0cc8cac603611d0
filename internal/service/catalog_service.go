package service

import (
	"context"

	"github.com/google/uuid"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/port"
)

// CatalogService exposes the tenant catalog for reviewer lookups.
type CatalogService interface {
	Search(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind, query string, limit int) ([]domain.CatalogItem, error)
	ListActive(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind) ([]domain.CatalogItem, error)
}

type catalogService struct {
	catalogRepo port.CatalogRepository
}

// NewCatalogService creates a new CatalogService implementation.
func NewCatalogService(catalogRepo port.CatalogRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo}
}

func (s *catalogService) Search(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind, query string, limit int) ([]domain.CatalogItem, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.catalogRepo.Search(ctx, tenantID, kind, query, limit)
}

func (s *catalogService) ListActive(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind) ([]domain.CatalogItem, error) {
	return s.catalogRepo.ListActive(ctx, tenantID, kind)
}
