package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"ledgerflow/internal/domain"
)

// MockTenantRepo is a mock implementation of port.TenantRepository.
type MockTenantRepo struct {
	mock.Mock
}

func (m *MockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

// MockUserRepo is a mock implementation of port.UserRepository.
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockImportBatchRepo is a mock implementation of port.ImportBatchRepository.
type MockImportBatchRepo struct {
	mock.Mock
}

func (m *MockImportBatchRepo) Create(ctx context.Context, batch *domain.ImportBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockImportBatchRepo) GetByID(ctx context.Context, tenantID, batchID uuid.UUID) (*domain.ImportBatch, error) {
	args := m.Called(ctx, tenantID, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportBatch), args.Error(1)
}

func (m *MockImportBatchRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, kind *domain.ImportKind, offset, limit int) ([]domain.ImportBatch, int, error) {
	args := m.Called(ctx, tenantID, kind, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ImportBatch), args.Int(1), args.Error(2)
}

func (m *MockImportBatchRepo) UpdateStatus(ctx context.Context, tenantID, batchID uuid.UUID, from, to domain.BatchStatus) error {
	args := m.Called(ctx, tenantID, batchID, from, to)
	return args.Error(0)
}

func (m *MockImportBatchRepo) UpdateResult(ctx context.Context, batch *domain.ImportBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockImportBatchRepo) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[domain.BatchStatus]int, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.BatchStatus]int), args.Error(1)
}

// MockImportLineRepo is a mock implementation of port.ImportLineRepository.
type MockImportLineRepo struct {
	mock.Mock
}

func (m *MockImportLineRepo) CreateBatch(ctx context.Context, lines []domain.ImportLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *MockImportLineRepo) GetByID(ctx context.Context, tenantID, lineID uuid.UUID) (*domain.ImportLine, error) {
	args := m.Called(ctx, tenantID, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportLine), args.Error(1)
}

func (m *MockImportLineRepo) ListByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]domain.ImportLine, error) {
	args := m.Called(ctx, tenantID, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ImportLine), args.Error(1)
}

func (m *MockImportLineRepo) UpdateMatch(ctx context.Context, line *domain.ImportLine, expectedVersion int) error {
	args := m.Called(ctx, line, expectedVersion)
	return args.Error(0)
}

func (m *MockImportLineRepo) MarkApproved(ctx context.Context, tenantID, batchID uuid.UUID, lineIDs []uuid.UUID) error {
	args := m.Called(ctx, tenantID, batchID, lineIDs)
	return args.Error(0)
}

// MockCatalogRepo is a mock implementation of port.CatalogRepository.
type MockCatalogRepo struct {
	mock.Mock
}

func (m *MockCatalogRepo) GetByID(ctx context.Context, tenantID, itemID uuid.UUID) (*domain.CatalogItem, error) {
	args := m.Called(ctx, tenantID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CatalogItem), args.Error(1)
}

func (m *MockCatalogRepo) ListActive(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind) ([]domain.CatalogItem, error) {
	args := m.Called(ctx, tenantID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CatalogItem), args.Error(1)
}

func (m *MockCatalogRepo) Search(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind, query string, limit int) ([]domain.CatalogItem, error) {
	args := m.Called(ctx, tenantID, kind, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CatalogItem), args.Error(1)
}

// MockMatchHistoryRepo is a mock implementation of port.MatchHistoryRepository.
type MockMatchHistoryRepo struct {
	mock.Mock
}

func (m *MockMatchHistoryRepo) Append(ctx context.Context, entry *domain.MatchHistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockMatchHistoryRepo) LookupByDescription(ctx context.Context, tenantID uuid.UUID, normalizedDesc string, limit int) ([]domain.MatchHistoryEntry, error) {
	args := m.Called(ctx, tenantID, normalizedDesc, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchHistoryEntry), args.Error(1)
}

// MockProcessingMetricRepo is a mock implementation of port.ProcessingMetricRepository.
type MockProcessingMetricRepo struct {
	mock.Mock
}

func (m *MockProcessingMetricRepo) Create(ctx context.Context, metric *domain.ProcessingMetric) error {
	args := m.Called(ctx, metric)
	return args.Error(0)
}

func (m *MockProcessingMetricRepo) ListByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]domain.ProcessingMetric, error) {
	args := m.Called(ctx, tenantID, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProcessingMetric), args.Error(1)
}

// MockImportJobRepo is a mock implementation of port.ImportJobRepository.
type MockImportJobRepo struct {
	mock.Mock
}

func (m *MockImportJobRepo) Enqueue(ctx context.Context, job *domain.ImportJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockImportJobRepo) ClaimPending(ctx context.Context, limit int, staleAfter time.Duration) ([]domain.ImportJob, error) {
	args := m.Called(ctx, limit, staleAfter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ImportJob), args.Error(1)
}

func (m *MockImportJobRepo) Release(ctx context.Context, jobID uuid.UUID, lastError string, nextAttemptAt time.Time) error {
	args := m.Called(ctx, jobID, lastError, nextAttemptAt)
	return args.Error(0)
}

func (m *MockImportJobRepo) Finish(ctx context.Context, jobID uuid.UUID, lastError string) error {
	args := m.Called(ctx, jobID, lastError)
	return args.Error(0)
}

// MockPurchaseRepo is a mock implementation of port.PurchaseRepository.
type MockPurchaseRepo struct {
	mock.Mock
}

func (m *MockPurchaseRepo) CreateBatch(ctx context.Context, lines []domain.PurchaseLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *MockPurchaseRepo) CountByBatch(ctx context.Context, tenantID, batchID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID, batchID)
	return args.Int(0), args.Error(1)
}

// MockSaleRepo is a mock implementation of port.SaleRepository.
type MockSaleRepo struct {
	mock.Mock
}

func (m *MockSaleRepo) CreateBatch(ctx context.Context, records []domain.SaleRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockSaleRepo) CountByBatch(ctx context.Context, tenantID, batchID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID, batchID)
	return args.Int(0), args.Error(1)
}
