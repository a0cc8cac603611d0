package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ledgerflow/internal/config"
	"ledgerflow/internal/domain"
	"ledgerflow/internal/service"
	"ledgerflow/mocks"
)

type reviewServiceFixture struct {
	svc         service.ReviewService
	batchRepo   *mocks.MockImportBatchRepo
	lineRepo    *mocks.MockImportLineRepo
	catalogRepo *mocks.MockCatalogRepo
	historyRepo *mocks.MockMatchHistoryRepo
	purchRepo   *mocks.MockPurchaseRepo
	saleRepo    *mocks.MockSaleRepo
	jobRepo     *mocks.MockImportJobRepo
	storage     *mocks.MockObjectStorage
	suggester   *mocks.MockSuggester
	cache       *mocks.MockSummaryCache
}

func setupReviewService() *reviewServiceFixture {
	f := &reviewServiceFixture{
		batchRepo:   new(mocks.MockImportBatchRepo),
		lineRepo:    new(mocks.MockImportLineRepo),
		catalogRepo: new(mocks.MockCatalogRepo),
		historyRepo: new(mocks.MockMatchHistoryRepo),
		purchRepo:   new(mocks.MockPurchaseRepo),
		saleRepo:    new(mocks.MockSaleRepo),
		jobRepo:     new(mocks.MockImportJobRepo),
		storage:     new(mocks.MockObjectStorage),
		suggester:   new(mocks.MockSuggester),
		cache:       new(mocks.MockSummaryCache),
	}
	f.svc = service.NewReviewService(
		f.batchRepo, f.lineRepo, f.catalogRepo, f.historyRepo,
		f.purchRepo, f.saleRepo, f.jobRepo, f.storage, f.suggester, f.cache,
		&config.S3Config{Bucket: "test-bucket", PresignExpiry: 900},
		config.QueueConfig{MaxAttempts: 3},
	)
	return f
}

func reviewingBatch(tenantID uuid.UUID, kind domain.ImportKind) *domain.ImportBatch {
	return &domain.ImportBatch{
		ID:       uuid.New(),
		TenantID: tenantID,
		Kind:     kind,
		Status:   domain.BatchStatusReviewing,
		S3Bucket: "test-bucket",
		S3Key:    "tenants/t/imports/b/doc.pdf",
	}
}

func matchedLine(batch *domain.ImportBatch, lineNo int) domain.ImportLine {
	itemID := uuid.New()
	confidence := 92
	return domain.ImportLine{
		ID:            uuid.New(),
		BatchID:       batch.ID,
		TenantID:      batch.TenantID,
		LineNo:        lineNo,
		Description:   "Widget",
		Quantity:      decimal.NewFromInt(2),
		UnitPrice:     decimal.RequireFromString("5.00"),
		TotalPrice:    decimal.RequireFromString("10.00"),
		MatchedItemID: &itemID,
		Confidence:    &confidence,
		Status:        domain.LineStatusMatched,
		Version:       1,
	}
}

// --- Approve ---

func TestReviewService_Approve_FullApproval(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	userID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)
	lines := []domain.ImportLine{matchedLine(batch, 1), matchedLine(batch, 2)}

	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)
	f.lineRepo.On("ListByBatch", mock.Anything, tenantID, batch.ID).Return(lines, nil)

	var committed []domain.PurchaseLine
	f.purchRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.PurchaseLine")).
		Run(func(args mock.Arguments) { committed = args.Get(1).([]domain.PurchaseLine) }).
		Return(nil)
	f.lineRepo.On("MarkApproved", mock.Anything, tenantID, batch.ID, mock.AnythingOfType("[]uuid.UUID")).Return(nil)
	f.batchRepo.On("UpdateStatus", mock.Anything, tenantID, batch.ID, domain.BatchStatusReviewing, domain.BatchStatusApproved).Return(nil)
	f.batchRepo.On("UpdateResult", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("InvalidateTenant", mock.Anything, tenantID).Return(nil)

	result, err := f.svc.Approve(context.Background(), tenantID, userID, batch.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, result.CreatedCount)
	assert.Equal(t, 0, result.UnmatchedCount)
	assert.False(t, result.Partial)

	require.Len(t, committed, 2)
	assert.Equal(t, *lines[0].MatchedItemID, committed[0].ProductID)
	assert.Equal(t, lines[0].ID, committed[0].LineID)
	assert.Equal(t, userID, committed[0].CreatedBy)
	assert.NotNil(t, batch.ApprovedAt)
	f.cache.AssertExpectations(t)
}

func TestReviewService_Approve_PartialSkipsUnmatched(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)
	pending := domain.ImportLine{
		ID: uuid.New(), BatchID: batch.ID, TenantID: tenantID,
		LineNo: 2, Status: domain.LineStatusPending, Version: 1,
	}
	lines := []domain.ImportLine{matchedLine(batch, 1), pending}

	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)
	f.lineRepo.On("ListByBatch", mock.Anything, tenantID, batch.ID).Return(lines, nil)
	f.purchRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(p []domain.PurchaseLine) bool {
		return len(p) == 1
	})).Return(nil)
	f.lineRepo.On("MarkApproved", mock.Anything, tenantID, batch.ID, mock.MatchedBy(func(ids []uuid.UUID) bool {
		return len(ids) == 1 && ids[0] == lines[0].ID
	})).Return(nil)
	f.batchRepo.On("UpdateStatus", mock.Anything, tenantID, batch.ID, domain.BatchStatusReviewing, domain.BatchStatusApproved).Return(nil)
	f.batchRepo.On("UpdateResult", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("InvalidateTenant", mock.Anything, tenantID).Return(nil)

	result, err := f.svc.Approve(context.Background(), tenantID, uuid.New(), batch.ID)

	require.NoError(t, err)
	assert.Equal(t, 1, result.CreatedCount)
	assert.Equal(t, 1, result.UnmatchedCount)
	assert.True(t, result.Partial)
}

func TestReviewService_Approve_SalesCommitsSaleRecords(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindSalesReport)
	header, err := (&domain.BatchHeader{
		Kind:  domain.ImportKindSalesReport,
		Sales: &domain.SalesHeader{SaleDate: "2026-04-01"},
	}).MarshalJSONB()
	require.NoError(t, err)
	batch.Header = header
	lines := []domain.ImportLine{matchedLine(batch, 1)}

	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)
	f.lineRepo.On("ListByBatch", mock.Anything, tenantID, batch.ID).Return(lines, nil)

	var sales []domain.SaleRecord
	f.saleRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.SaleRecord")).
		Run(func(args mock.Arguments) { sales = args.Get(1).([]domain.SaleRecord) }).
		Return(nil)
	f.lineRepo.On("MarkApproved", mock.Anything, tenantID, batch.ID, mock.Anything).Return(nil)
	f.batchRepo.On("UpdateStatus", mock.Anything, tenantID, batch.ID, domain.BatchStatusReviewing, domain.BatchStatusApproved).Return(nil)
	f.batchRepo.On("UpdateResult", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("InvalidateTenant", mock.Anything, tenantID).Return(nil)

	_, err = f.svc.Approve(context.Background(), tenantID, uuid.New(), batch.ID)

	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "2026-04-01", sales[0].SaleDate)
	assert.Equal(t, *lines[0].MatchedItemID, sales[0].MenuItemID)
	f.purchRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestReviewService_Approve_AlreadyApproved(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)
	batch.Status = domain.BatchStatusApproved

	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)

	_, err := f.svc.Approve(context.Background(), tenantID, uuid.New(), batch.ID)

	assert.ErrorIs(t, err, domain.ErrBatchAlreadyApproved)
}

func TestReviewService_Approve_NotReviewing(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)
	batch.Status = domain.BatchStatusProcessing

	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)

	_, err := f.svc.Approve(context.Background(), tenantID, uuid.New(), batch.ID)

	assert.ErrorIs(t, err, domain.ErrBatchNotReviewing)
}

func TestReviewService_Approve_LostRaceMapsToAlreadyApproved(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)

	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)
	f.lineRepo.On("ListByBatch", mock.Anything, tenantID, batch.ID).Return([]domain.ImportLine{}, nil)
	f.lineRepo.On("MarkApproved", mock.Anything, tenantID, batch.ID, mock.Anything).Return(nil)
	f.batchRepo.On("UpdateStatus", mock.Anything, tenantID, batch.ID, domain.BatchStatusReviewing, domain.BatchStatusApproved).
		Return(domain.ErrInvalidTransition)

	_, err := f.svc.Approve(context.Background(), tenantID, uuid.New(), batch.ID)

	assert.ErrorIs(t, err, domain.ErrBatchAlreadyApproved)
}

// --- ManualMatch ---

func TestReviewService_ManualMatch_Success(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	userID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)
	line := matchedLine(batch, 1)
	line.Status = domain.LineStatusPending
	line.MatchedItemID = nil
	line.NormalizedDesc = "widget"
	item := &domain.CatalogItem{
		ID: uuid.New(), TenantID: tenantID,
		Kind: domain.ImportKindInvoice, Name: "Widget", IsActive: true,
	}

	f.lineRepo.On("GetByID", mock.Anything, tenantID, line.ID).Return(&line, nil)
	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)
	f.catalogRepo.On("GetByID", mock.Anything, tenantID, item.ID).Return(item, nil)
	f.lineRepo.On("UpdateMatch", mock.Anything, mock.MatchedBy(func(l *domain.ImportLine) bool {
		return l.Status == domain.LineStatusMatched && *l.MatchedItemID == item.ID && *l.Confidence == 100
	}), 1).Return(nil)
	f.historyRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.MatchHistoryEntry) bool {
		return e.NormalizedDesc == "widget" && e.ItemID == item.ID && e.ConfirmedBy == userID && e.Confidence == 100
	})).Return(nil)

	updated, err := f.svc.ManualMatch(context.Background(), service.ManualMatchInput{
		TenantID:        tenantID,
		UserID:          userID,
		LineID:          line.ID,
		ItemID:          item.ID,
		ExpectedVersion: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.LineStatusMatched, updated.Status)
	f.historyRepo.AssertExpectations(t)
}

func TestReviewService_ManualMatch_VersionConflict(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)
	line := matchedLine(batch, 1)
	line.Version = 2
	item := &domain.CatalogItem{
		ID: uuid.New(), TenantID: tenantID,
		Kind: domain.ImportKindInvoice, IsActive: true,
	}

	f.lineRepo.On("GetByID", mock.Anything, tenantID, line.ID).Return(&line, nil)
	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)
	f.catalogRepo.On("GetByID", mock.Anything, tenantID, item.ID).Return(item, nil)
	f.lineRepo.On("UpdateMatch", mock.Anything, mock.Anything, 1).
		Return(domain.ErrLineVersionConflict)

	_, err := f.svc.ManualMatch(context.Background(), service.ManualMatchInput{
		TenantID:        tenantID,
		UserID:          uuid.New(),
		LineID:          line.ID,
		ItemID:          item.ID,
		ExpectedVersion: 1,
	})

	assert.ErrorIs(t, err, domain.ErrLineVersionConflict)
	f.historyRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestReviewService_ManualMatch_WrongKindItem(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)
	line := matchedLine(batch, 1)
	item := &domain.CatalogItem{
		ID: uuid.New(), TenantID: tenantID,
		Kind: domain.ImportKindSalesReport, IsActive: true,
	}

	f.lineRepo.On("GetByID", mock.Anything, tenantID, line.ID).Return(&line, nil)
	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)
	f.catalogRepo.On("GetByID", mock.Anything, tenantID, item.ID).Return(item, nil)

	_, err := f.svc.ManualMatch(context.Background(), service.ManualMatchInput{
		TenantID:        tenantID,
		LineID:          line.ID,
		ItemID:          item.ID,
		ExpectedVersion: 1,
	})

	assert.ErrorIs(t, err, domain.ErrCatalogItemNotFound)
}

func TestReviewService_ManualMatch_BatchNotReviewing(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)
	batch.Status = domain.BatchStatusApproved
	line := matchedLine(batch, 1)
	line.Status = domain.LineStatusPending

	f.lineRepo.On("GetByID", mock.Anything, tenantID, line.ID).Return(&line, nil)
	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)

	_, err := f.svc.ManualMatch(context.Background(), service.ManualMatchInput{
		TenantID:        tenantID,
		LineID:          line.ID,
		ItemID:          uuid.New(),
		ExpectedVersion: 1,
	})

	assert.ErrorIs(t, err, domain.ErrBatchNotReviewing)
}

func TestReviewService_ManualMatch_ApprovedLine(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)
	line := matchedLine(batch, 1)
	line.Status = domain.LineStatusApproved

	f.lineRepo.On("GetByID", mock.Anything, tenantID, line.ID).Return(&line, nil)

	_, err := f.svc.ManualMatch(context.Background(), service.ManualMatchInput{
		TenantID:        tenantID,
		LineID:          line.ID,
		ItemID:          uuid.New(),
		ExpectedVersion: 1,
	})

	assert.ErrorIs(t, err, domain.ErrLineNotMatchable)
}

// --- Retry ---

func TestReviewService_Retry_ReopensErroredBatch(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)
	batch.Status = domain.BatchStatusError

	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)
	f.batchRepo.On("UpdateStatus", mock.Anything, tenantID, batch.ID, domain.BatchStatusError, domain.BatchStatusPending).Return(nil)
	f.jobRepo.On("Enqueue", mock.Anything, mock.MatchedBy(func(job *domain.ImportJob) bool {
		return job.BatchID == batch.ID && job.MaxAttempts == 3
	})).Return(nil)

	err := f.svc.Retry(context.Background(), tenantID, batch.ID)

	require.NoError(t, err)
	f.jobRepo.AssertExpectations(t)
}

func TestReviewService_Retry_OnlyErroredBatches(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)

	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)

	err := f.svc.Retry(context.Background(), tenantID, batch.ID)

	assert.ErrorIs(t, err, domain.ErrBatchNotRetryable)
	f.jobRepo.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

// --- Reject ---

func TestReviewService_Reject(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)

	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)
	f.batchRepo.On("UpdateStatus", mock.Anything, tenantID, batch.ID, domain.BatchStatusReviewing, domain.BatchStatusRejected).Return(nil)

	assert.NoError(t, f.svc.Reject(context.Background(), tenantID, uuid.New(), batch.ID))
}

func TestReviewService_Reject_NotReviewing(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)
	batch.Status = domain.BatchStatusPending

	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)

	err := f.svc.Reject(context.Background(), tenantID, uuid.New(), batch.ID)

	assert.ErrorIs(t, err, domain.ErrBatchNotReviewing)
}

// --- Suggestions / source URL ---

func TestReviewService_GetSuggestions_ApprovedLine(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)
	line := matchedLine(batch, 1)
	line.Status = domain.LineStatusApproved

	f.lineRepo.On("GetByID", mock.Anything, tenantID, line.ID).Return(&line, nil)

	_, err := f.svc.GetSuggestions(context.Background(), tenantID, line.ID)

	assert.ErrorIs(t, err, domain.ErrLineNotMatchable)
	f.suggester.AssertNotCalled(t, "Suggest", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_GetSourceURL(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	batch := reviewingBatch(tenantID, domain.ImportKindInvoice)

	f.batchRepo.On("GetByID", mock.Anything, tenantID, batch.ID).Return(batch, nil)
	f.storage.On("GetPresignedURL", mock.Anything, "test-bucket", batch.S3Key, int64(900)).
		Return("https://signed.example/doc.pdf", nil)

	url, err := f.svc.GetSourceURL(context.Background(), tenantID, batch.ID)

	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/doc.pdf", url)
}

// --- Overview cache ---

func TestReviewService_GetOverview_CacheMissThenSet(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	counts := map[domain.BatchStatus]int{
		domain.BatchStatusReviewing: 4,
		domain.BatchStatusApproved:  10,
	}

	f.cache.On("Get", mock.Anything, tenantID, "overview").Return(nil, false, nil)
	f.batchRepo.On("CountByStatus", mock.Anything, tenantID).Return(counts, nil)
	f.cache.On("Set", mock.Anything, tenantID, "overview", mock.Anything).Return(nil)

	overview, err := f.svc.GetOverview(context.Background(), tenantID)

	require.NoError(t, err)
	assert.Equal(t, 4, overview.PendingReview)
	assert.Equal(t, 10, overview.BatchesByStatus[domain.BatchStatusApproved])
	f.cache.AssertExpectations(t)
}

func TestReviewService_GetOverview_CacheHit(t *testing.T) {
	f := setupReviewService()

	tenantID := uuid.New()
	cached, err := json.Marshal(&service.TenantOverview{
		BatchesByStatus: map[domain.BatchStatus]int{domain.BatchStatusReviewing: 2},
		PendingReview:   2,
	})
	require.NoError(t, err)

	f.cache.On("Get", mock.Anything, tenantID, "overview").Return(cached, true, nil)

	overview, err := f.svc.GetOverview(context.Background(), tenantID)

	require.NoError(t, err)
	assert.Equal(t, 2, overview.PendingReview)
	f.batchRepo.AssertNotCalled(t, "CountByStatus", mock.Anything, mock.Anything)
}
