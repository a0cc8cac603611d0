package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ledgerflow/internal/config"
	"ledgerflow/internal/domain"
	"ledgerflow/internal/matcher"
	"ledgerflow/internal/port"
)

const overviewCacheKey = "overview"

// BatchDetail is a batch together with its extracted lines.
type BatchDetail struct {
	Batch *domain.ImportBatch `json:"batch"`
	Lines []domain.ImportLine `json:"lines"`
}

// ManualMatchInput is the DTO for a reviewer's match decision.
type ManualMatchInput struct {
	TenantID        uuid.UUID
	UserID          uuid.UUID
	LineID          uuid.UUID
	ItemID          uuid.UUID
	ExpectedVersion int
}

// ApproveResult reports what an approval committed. Partial is set when some
// lines were skipped because no catalog item was matched.
type ApproveResult struct {
	CreatedCount   int  `json:"createdCount"`
	UnmatchedCount int  `json:"unmatchedCount"`
	Partial        bool `json:"partial"`
}

// TenantOverview is the cached per-tenant batch summary.
type TenantOverview struct {
	BatchesByStatus map[domain.BatchStatus]int `json:"batches_by_status"`
	PendingReview   int                        `json:"pending_review"`
}

// ReviewService covers everything after extraction: inspection, matching,
// approval and retry.
type ReviewService interface {
	GetBatch(ctx context.Context, tenantID, batchID uuid.UUID) (*BatchDetail, error)
	ListBatches(ctx context.Context, tenantID uuid.UUID, kind *domain.ImportKind, offset, limit int) ([]domain.ImportBatch, int, error)
	GetSourceURL(ctx context.Context, tenantID, batchID uuid.UUID) (string, error)
	GetSuggestions(ctx context.Context, tenantID, lineID uuid.UUID) ([]port.Suggestion, error)
	ManualMatch(ctx context.Context, input ManualMatchInput) (*domain.ImportLine, error)
	Approve(ctx context.Context, tenantID, userID, batchID uuid.UUID) (*ApproveResult, error)
	Reject(ctx context.Context, tenantID, userID, batchID uuid.UUID) error
	Retry(ctx context.Context, tenantID, batchID uuid.UUID) error
	GetOverview(ctx context.Context, tenantID uuid.UUID) (*TenantOverview, error)
}

type reviewService struct {
	batchRepo   port.ImportBatchRepository
	lineRepo    port.ImportLineRepository
	catalogRepo port.CatalogRepository
	historyRepo port.MatchHistoryRepository
	purchRepo   port.PurchaseRepository
	saleRepo    port.SaleRepository
	jobRepo     port.ImportJobRepository
	storage     port.ObjectStorage
	suggester   port.Suggester
	cache       port.SummaryCache
	s3cfg       *config.S3Config
	queueCfg    config.QueueConfig
}

// NewReviewService creates a new ReviewService implementation.
func NewReviewService(
	batchRepo port.ImportBatchRepository,
	lineRepo port.ImportLineRepository,
	catalogRepo port.CatalogRepository,
	historyRepo port.MatchHistoryRepository,
	purchRepo port.PurchaseRepository,
	saleRepo port.SaleRepository,
	jobRepo port.ImportJobRepository,
	storage port.ObjectStorage,
	suggester port.Suggester,
	summaryCache port.SummaryCache,
	s3cfg *config.S3Config,
	queueCfg config.QueueConfig,
) ReviewService {
	return &reviewService{
		batchRepo:   batchRepo,
		lineRepo:    lineRepo,
		catalogRepo: catalogRepo,
		historyRepo: historyRepo,
		purchRepo:   purchRepo,
		saleRepo:    saleRepo,
		jobRepo:     jobRepo,
		storage:     storage,
		suggester:   suggester,
		cache:       summaryCache,
		s3cfg:       s3cfg,
		queueCfg:    queueCfg,
	}
}

func (s *reviewService) GetBatch(ctx context.Context, tenantID, batchID uuid.UUID) (*BatchDetail, error) {
	batch, err := s.batchRepo.GetByID(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}
	lines, err := s.lineRepo.ListByBatch(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}
	return &BatchDetail{Batch: batch, Lines: lines}, nil
}

func (s *reviewService) ListBatches(ctx context.Context, tenantID uuid.UUID, kind *domain.ImportKind, offset, limit int) ([]domain.ImportBatch, int, error) {
	return s.batchRepo.ListByTenant(ctx, tenantID, kind, offset, limit)
}

func (s *reviewService) GetSourceURL(ctx context.Context, tenantID, batchID uuid.UUID) (string, error) {
	batch, err := s.batchRepo.GetByID(ctx, tenantID, batchID)
	if err != nil {
		return "", err
	}
	return s.storage.GetPresignedURL(ctx, batch.S3Bucket, batch.S3Key, s.s3cfg.PresignExpiry)
}

func (s *reviewService) GetSuggestions(ctx context.Context, tenantID, lineID uuid.UUID) ([]port.Suggestion, error) {
	line, err := s.lineRepo.GetByID(ctx, tenantID, lineID)
	if err != nil {
		return nil, err
	}
	if line.Status == domain.LineStatusApproved {
		return nil, domain.ErrLineNotMatchable
	}
	batch, err := s.batchRepo.GetByID(ctx, tenantID, line.BatchID)
	if err != nil {
		return nil, err
	}
	return s.suggester.Suggest(ctx, tenantID, batch.Kind, line.Description)
}

// ManualMatch records a reviewer's decision. Every confirmed decision is
// appended to match history so next time the same description matches
// instantly at full confidence.
func (s *reviewService) ManualMatch(ctx context.Context, input ManualMatchInput) (*domain.ImportLine, error) {
	line, err := s.lineRepo.GetByID(ctx, input.TenantID, input.LineID)
	if err != nil {
		return nil, err
	}
	if line.Status == domain.LineStatusApproved {
		return nil, domain.ErrLineNotMatchable
	}

	batch, err := s.batchRepo.GetByID(ctx, input.TenantID, line.BatchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != domain.BatchStatusReviewing {
		return nil, domain.ErrBatchNotReviewing
	}

	item, err := s.catalogRepo.GetByID(ctx, input.TenantID, input.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive || item.Kind != batch.Kind {
		return nil, domain.ErrCatalogItemNotFound
	}

	confidence := 100
	line.MatchedItemID = &item.ID
	line.Confidence = &confidence
	line.Status = domain.LineStatusMatched
	if err := s.lineRepo.UpdateMatch(ctx, line, input.ExpectedVersion); err != nil {
		return nil, err
	}

	normalized := line.NormalizedDesc
	if normalized == "" {
		normalized = matcher.Normalize(line.Description)
	}
	entry := &domain.MatchHistoryEntry{
		TenantID:       input.TenantID,
		NormalizedDesc: normalized,
		ItemID:         item.ID,
		Confidence:     confidence,
		ConfirmedBy:    input.UserID,
	}
	if err := s.historyRepo.Append(ctx, entry); err != nil {
		// The match itself is committed; the learning log is best-effort.
		log.Printf("reviewService.ManualMatch: failed to append match history for line %s: %v", line.ID, err)
	}

	return line, nil
}

// Approve commits the matched lines of a reviewing batch as purchase or sale
// records. Unmatched lines are skipped, not blocked on: the result reports a
// partial approval instead.
func (s *reviewService) Approve(ctx context.Context, tenantID, userID, batchID uuid.UUID) (*ApproveResult, error) {
	batch, err := s.batchRepo.GetByID(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status == domain.BatchStatusApproved {
		return nil, domain.ErrBatchAlreadyApproved
	}
	if batch.Status != domain.BatchStatusReviewing {
		return nil, domain.ErrBatchNotReviewing
	}

	lines, err := s.lineRepo.ListByBatch(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}

	var matched []domain.ImportLine
	unmatchedCount := 0
	for _, line := range lines {
		if line.Status == domain.LineStatusMatched && line.MatchedItemID != nil {
			matched = append(matched, line)
		} else {
			unmatchedCount++
		}
	}

	if err := s.commitLines(ctx, batch, matched, userID); err != nil {
		return nil, err
	}

	lineIDs := make([]uuid.UUID, len(matched))
	for i, line := range matched {
		lineIDs[i] = line.ID
	}
	if err := s.lineRepo.MarkApproved(ctx, tenantID, batchID, lineIDs); err != nil {
		return nil, err
	}

	if err := s.batchRepo.UpdateStatus(ctx, tenantID, batchID, domain.BatchStatusReviewing, domain.BatchStatusApproved); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil, domain.ErrBatchAlreadyApproved
		}
		return nil, err
	}
	now := time.Now().UTC()
	batch.Status = domain.BatchStatusApproved
	batch.ApprovedAt = &now
	if err := s.batchRepo.UpdateResult(ctx, batch); err != nil {
		log.Printf("reviewService.Approve: failed to stamp approval time on batch %s: %v", batchID, err)
	}

	if err := s.cache.InvalidateTenant(ctx, tenantID); err != nil {
		log.Printf("reviewService.Approve: cache invalidation failed for tenant %s: %v", tenantID, err)
	}

	log.Printf("reviewService.Approve: batch %s approved by %s: %d created, %d unmatched",
		batchID, userID, len(matched), unmatchedCount)

	return &ApproveResult{
		CreatedCount:   len(matched),
		UnmatchedCount: unmatchedCount,
		Partial:        unmatchedCount > 0,
	}, nil
}

func (s *reviewService) commitLines(ctx context.Context, batch *domain.ImportBatch, matched []domain.ImportLine, userID uuid.UUID) error {
	if len(matched) == 0 {
		return nil
	}

	switch batch.Kind {
	case domain.ImportKindInvoice:
		purchases := make([]domain.PurchaseLine, len(matched))
		for i, line := range matched {
			purchases[i] = domain.PurchaseLine{
				TenantID:   batch.TenantID,
				BatchID:    batch.ID,
				LineID:     line.ID,
				ProductID:  *line.MatchedItemID,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				TotalPrice: line.TotalPrice,
				CreatedBy:  userID,
			}
		}
		return s.purchRepo.CreateBatch(ctx, purchases)

	case domain.ImportKindSalesReport:
		saleDate := ""
		if header, err := domain.DecodeBatchHeader(batch.Header); err == nil && header.Sales != nil {
			saleDate = header.Sales.SaleDate
		}
		sales := make([]domain.SaleRecord, len(matched))
		for i, line := range matched {
			sales[i] = domain.SaleRecord{
				TenantID:   batch.TenantID,
				BatchID:    batch.ID,
				LineID:     line.ID,
				MenuItemID: *line.MatchedItemID,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				TotalPrice: line.TotalPrice,
				SaleDate:   saleDate,
				CreatedBy:  userID,
			}
		}
		return s.saleRepo.CreateBatch(ctx, sales)
	}
	return fmt.Errorf("unknown import kind: %q", batch.Kind)
}

func (s *reviewService) Reject(ctx context.Context, tenantID, userID, batchID uuid.UUID) error {
	batch, err := s.batchRepo.GetByID(ctx, tenantID, batchID)
	if err != nil {
		return err
	}
	if batch.Status != domain.BatchStatusReviewing {
		return domain.ErrBatchNotReviewing
	}
	if err := s.batchRepo.UpdateStatus(ctx, tenantID, batchID, domain.BatchStatusReviewing, domain.BatchStatusRejected); err != nil {
		return err
	}
	log.Printf("reviewService.Reject: batch %s rejected by %s", batchID, userID)
	return nil
}

// Retry reopens an errored batch and enqueues a fresh job with a full set of
// attempts.
func (s *reviewService) Retry(ctx context.Context, tenantID, batchID uuid.UUID) error {
	batch, err := s.batchRepo.GetByID(ctx, tenantID, batchID)
	if err != nil {
		return err
	}
	if batch.Status != domain.BatchStatusError {
		return domain.ErrBatchNotRetryable
	}
	if err := s.batchRepo.UpdateStatus(ctx, tenantID, batchID, domain.BatchStatusError, domain.BatchStatusPending); err != nil {
		return err
	}
	job := &domain.ImportJob{
		TenantID:    tenantID,
		BatchID:     batchID,
		MaxAttempts: s.queueCfg.MaxAttempts,
	}
	if err := s.jobRepo.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueueing retry job: %w", err)
	}
	log.Printf("reviewService.Retry: batch %s requeued", batchID)
	return nil
}

// GetOverview serves the tenant batch summary, cached until the next
// approval invalidates it.
func (s *reviewService) GetOverview(ctx context.Context, tenantID uuid.UUID) (*TenantOverview, error) {
	if cached, ok, err := s.cache.Get(ctx, tenantID, overviewCacheKey); err != nil {
		log.Printf("reviewService.GetOverview: cache read failed for tenant %s: %v", tenantID, err)
	} else if ok {
		var overview TenantOverview
		if err := json.Unmarshal(cached, &overview); err == nil {
			return &overview, nil
		}
	}

	counts, err := s.batchRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	overview := &TenantOverview{
		BatchesByStatus: counts,
		PendingReview:   counts[domain.BatchStatusReviewing],
	}

	if encoded, err := json.Marshal(overview); err == nil {
		if err := s.cache.Set(ctx, tenantID, overviewCacheKey, encoded); err != nil {
			log.Printf("reviewService.GetOverview: cache write failed for tenant %s: %v", tenantID, err)
		}
	}
	return overview, nil
}
