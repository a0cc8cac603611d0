package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/port"
	"ledgerflow/internal/service"
)

// MockAuthService is a mock implementation of service.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, input service.LoginInput) (*service.LoginOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoginOutput), args.Error(1)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

// MockUploadService is a mock implementation of service.UploadService.
type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) Upload(ctx context.Context, input service.UploadInput) (*domain.ImportBatch, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportBatch), args.Error(1)
}

// MockImportService is a mock implementation of service.ImportService.
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) ProcessJob(ctx context.Context, job *domain.ImportJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockReviewService is a mock implementation of service.ReviewService.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) GetBatch(ctx context.Context, tenantID, batchID uuid.UUID) (*service.BatchDetail, error) {
	args := m.Called(ctx, tenantID, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchDetail), args.Error(1)
}

func (m *MockReviewService) ListBatches(ctx context.Context, tenantID uuid.UUID, kind *domain.ImportKind, offset, limit int) ([]domain.ImportBatch, int, error) {
	args := m.Called(ctx, tenantID, kind, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ImportBatch), args.Int(1), args.Error(2)
}

func (m *MockReviewService) GetSourceURL(ctx context.Context, tenantID, batchID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID, batchID)
	return args.String(0), args.Error(1)
}

func (m *MockReviewService) GetSuggestions(ctx context.Context, tenantID, lineID uuid.UUID) ([]port.Suggestion, error) {
	args := m.Called(ctx, tenantID, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.Suggestion), args.Error(1)
}

func (m *MockReviewService) ManualMatch(ctx context.Context, input service.ManualMatchInput) (*domain.ImportLine, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportLine), args.Error(1)
}

func (m *MockReviewService) Approve(ctx context.Context, tenantID, userID, batchID uuid.UUID) (*service.ApproveResult, error) {
	args := m.Called(ctx, tenantID, userID, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ApproveResult), args.Error(1)
}

func (m *MockReviewService) Reject(ctx context.Context, tenantID, userID, batchID uuid.UUID) error {
	args := m.Called(ctx, tenantID, userID, batchID)
	return args.Error(0)
}

func (m *MockReviewService) Retry(ctx context.Context, tenantID, batchID uuid.UUID) error {
	args := m.Called(ctx, tenantID, batchID)
	return args.Error(0)
}

func (m *MockReviewService) GetOverview(ctx context.Context, tenantID uuid.UUID) (*service.TenantOverview, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TenantOverview), args.Error(1)
}

// MockCatalogService is a mock implementation of service.CatalogService.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Search(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind, query string, limit int) ([]domain.CatalogItem, error) {
	args := m.Called(ctx, tenantID, kind, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CatalogItem), args.Error(1)
}

func (m *MockCatalogService) ListActive(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind) ([]domain.CatalogItem, error) {
	args := m.Called(ctx, tenantID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CatalogItem), args.Error(1)
}
