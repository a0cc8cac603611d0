package cache

import (
	"context"

	"github.com/google/uuid"

	"ledgerflow/internal/port"
)

// NoopSummaryCache is used when Redis is disabled. Every lookup misses.
type NoopSummaryCache struct{}

func NewNoopSummaryCache() *NoopSummaryCache { return &NoopSummaryCache{} }

func (NoopSummaryCache) Get(ctx context.Context, tenantID uuid.UUID, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopSummaryCache) Set(ctx context.Context, tenantID uuid.UUID, key string, value []byte) error {
	return nil
}

func (NoopSummaryCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	return nil
}

var _ port.SummaryCache = NoopSummaryCache{}
