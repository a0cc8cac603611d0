package port

import (
	"context"

	"github.com/google/uuid"
)

// SummaryCache caches tenant-scoped purchase/sale aggregates. Approval
// invalidates it; it is never consulted by the pipeline itself.
type SummaryCache interface {
	Get(ctx context.Context, tenantID uuid.UUID, key string) ([]byte, bool, error)
	Set(ctx context.Context, tenantID uuid.UUID, key string, value []byte) error
	InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error
}
