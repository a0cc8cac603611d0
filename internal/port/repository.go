package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ledgerflow/internal/domain"
)

// TenantRepository defines the contract for tenant lookup.
type TenantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
}

// UserRepository defines the contract for user lookup.
// All query methods include tenantID to enforce tenant isolation at the data layer.
type UserRepository interface {
	GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.User, error)
}

// ImportBatchRepository defines the contract for import batch persistence.
// All query methods include tenantID for tenant isolation.
type ImportBatchRepository interface {
	Create(ctx context.Context, batch *domain.ImportBatch) error
	GetByID(ctx context.Context, tenantID, batchID uuid.UUID) (*domain.ImportBatch, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, kind *domain.ImportKind, offset, limit int) ([]domain.ImportBatch, int, error)
	// UpdateStatus persists a status change guarded by the expected current
	// status; it returns domain.ErrInvalidTransition when the row is no longer
	// in the expected status.
	UpdateStatus(ctx context.Context, tenantID, batchID uuid.UUID, from, to domain.BatchStatus) error
	UpdateResult(ctx context.Context, batch *domain.ImportBatch) error
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[domain.BatchStatus]int, error)
}

// ImportLineRepository defines the contract for import line persistence.
type ImportLineRepository interface {
	CreateBatch(ctx context.Context, lines []domain.ImportLine) error
	GetByID(ctx context.Context, tenantID, lineID uuid.UUID) (*domain.ImportLine, error)
	ListByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]domain.ImportLine, error)
	// UpdateMatch applies a match decision with an optimistic version check.
	// It returns domain.ErrLineVersionConflict if the stored version differs
	// from expectedVersion.
	UpdateMatch(ctx context.Context, line *domain.ImportLine, expectedVersion int) error
	MarkApproved(ctx context.Context, tenantID, batchID uuid.UUID, lineIDs []uuid.UUID) error
}

// CatalogRepository is the read-only lookup of active, tenant-scoped catalog
// entities to match against.
type CatalogRepository interface {
	GetByID(ctx context.Context, tenantID, itemID uuid.UUID) (*domain.CatalogItem, error)
	ListActive(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind) ([]domain.CatalogItem, error)
	Search(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind, query string, limit int) ([]domain.CatalogItem, error)
}

// MatchHistoryRepository defines the contract for the append-only learning log.
type MatchHistoryRepository interface {
	Append(ctx context.Context, entry *domain.MatchHistoryEntry) error
	// LookupByDescription returns prior confirmations for the exact normalized
	// description, most frequent item first, ties broken by recency.
	LookupByDescription(ctx context.Context, tenantID uuid.UUID, normalizedDesc string, limit int) ([]domain.MatchHistoryEntry, error)
}

// ProcessingMetricRepository records per-attempt processing metrics.
type ProcessingMetricRepository interface {
	Create(ctx context.Context, metric *domain.ProcessingMetric) error
	ListByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]domain.ProcessingMetric, error)
}

// ImportJobRepository is the durable job queue backing the worker pool.
type ImportJobRepository interface {
	Enqueue(ctx context.Context, job *domain.ImportJob) error
	// ClaimPending atomically claims up to limit due jobs for processing.
	// A claimed job is invisible to other workers until released or finished;
	// a claim older than staleAfter counts as abandoned by a crashed worker
	// and becomes claimable again.
	ClaimPending(ctx context.Context, limit int, staleAfter time.Duration) ([]domain.ImportJob, error)
	// Release returns a failed job to the queue with its next attempt delayed
	// until nextAttemptAt; the attempt counter stays incremented.
	Release(ctx context.Context, jobID uuid.UUID, lastError string, nextAttemptAt time.Time) error
	Finish(ctx context.Context, jobID uuid.UUID, lastError string) error
}

// PurchaseRepository persists committed purchase lines.
type PurchaseRepository interface {
	CreateBatch(ctx context.Context, lines []domain.PurchaseLine) error
	CountByBatch(ctx context.Context, tenantID, batchID uuid.UUID) (int, error)
}

// SaleRepository persists committed sale records.
type SaleRepository interface {
	CreateBatch(ctx context.Context, records []domain.SaleRecord) error
	CountByBatch(ctx context.Context, tenantID, batchID uuid.UUID) (int, error)
}
