package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/extractor"
	"ledgerflow/internal/matcher"
	"ledgerflow/internal/port"
)

// ImportService runs the extraction pipeline for queued batches.
type ImportService interface {
	// ProcessJob executes one processing attempt for the job's batch. A nil
	// return means the job is finished, successfully or terminally; a non-nil
	// return means the attempt failed and the job should be released for a
	// later retry.
	ProcessJob(ctx context.Context, job *domain.ImportJob) error
}

type importService struct {
	batchRepo     port.ImportBatchRepository
	lineRepo      port.ImportLineRepository
	metricRepo    port.ProcessingMetricRepository
	storage       port.ObjectStorage
	textExtractor port.TextExtractor
	parser        port.BatchParser
	suggester     port.Suggester
	// autoMatchThreshold is the minimum suggestion confidence for matching a
	// freshly extracted line without a reviewer.
	autoMatchThreshold int
}

// NewImportService creates a new ImportService implementation.
func NewImportService(
	batchRepo port.ImportBatchRepository,
	lineRepo port.ImportLineRepository,
	metricRepo port.ProcessingMetricRepository,
	storage port.ObjectStorage,
	textExtractor port.TextExtractor,
	batchParser port.BatchParser,
	suggester port.Suggester,
	autoMatchThreshold int,
) ImportService {
	return &importService{
		batchRepo:          batchRepo,
		lineRepo:           lineRepo,
		metricRepo:         metricRepo,
		storage:            storage,
		textExtractor:      textExtractor,
		parser:             batchParser,
		suggester:          suggester,
		autoMatchThreshold: autoMatchThreshold,
	}
}

func (s *importService) ProcessJob(ctx context.Context, job *domain.ImportJob) error {
	batch, err := s.batchRepo.GetByID(ctx, job.TenantID, job.BatchID)
	if err != nil {
		log.Printf("importService.ProcessJob: batch %s lookup failed: %v", job.BatchID, err)
		if errors.Is(err, domain.ErrBatchNotFound) {
			return nil
		}
		return s.maybeRetry(ctx, job, nil, err, false)
	}

	// At-least-once delivery means a job can arrive for a batch that already
	// moved on. Approved, rejected and reviewing batches are left alone; an
	// errored batch waits for an explicit retry.
	switch batch.Status {
	case domain.BatchStatusPending:
		if err := s.batchRepo.UpdateStatus(ctx, job.TenantID, batch.ID, domain.BatchStatusPending, domain.BatchStatusProcessing); err != nil {
			log.Printf("importService.ProcessJob: batch %s claim failed: %v", batch.ID, err)
			return nil
		}
		batch.Status = domain.BatchStatusProcessing
	case domain.BatchStatusProcessing:
		// A previous attempt crashed mid-flight. Resume.
	default:
		log.Printf("importService.ProcessJob: batch %s is %s, skipping duplicate delivery", batch.ID, batch.Status)
		return nil
	}

	return s.process(ctx, job, batch)
}

func (s *importService) process(ctx context.Context, job *domain.ImportJob, batch *domain.ImportBatch) error {
	start := time.Now()

	// Work off a local scratch copy. The deferred remove covers every exit
	// path, including panics in the parse cascade.
	scratch, err := os.CreateTemp("", "ledgerflow-import-*")
	if err != nil {
		return s.maybeRetry(ctx, job, batch, fmt.Errorf("creating scratch file: %w", err), false)
	}
	scratchPath := scratch.Name()
	defer os.Remove(scratchPath)

	data, err := s.storage.Download(ctx, batch.S3Bucket, batch.S3Key)
	if err != nil {
		scratch.Close()
		return s.maybeRetry(ctx, job, batch, fmt.Errorf("downloading document: %w", err), false)
	}
	if _, err := scratch.Write(data); err != nil {
		scratch.Close()
		return s.maybeRetry(ctx, job, batch, fmt.Errorf("writing scratch file: %w", err), false)
	}
	if err := scratch.Close(); err != nil {
		return s.maybeRetry(ctx, job, batch, fmt.Errorf("closing scratch file: %w", err), false)
	}

	fileBytes, err := os.ReadFile(scratchPath)
	if err != nil {
		return s.maybeRetry(ctx, job, batch, fmt.Errorf("reading scratch file: %w", err), false)
	}

	// Recover raw text locally so the fallback strategy has something to work
	// with when the extraction provider is down. Failure here is not fatal:
	// the AI strategy works on the bytes alone.
	rawText := ""
	if s.textExtractor != nil {
		text, terr := s.textExtractor.ExtractText(fileBytes, batch.ContentType)
		if terr != nil {
			log.Printf("importService.process: raw text recovery failed for batch %s: %v", batch.ID, terr)
		} else {
			rawText = text
		}
	}

	result, err := s.parser.Parse(ctx, port.ParseInput{
		FileBytes:   fileBytes,
		ContentType: batch.ContentType,
		RawText:     rawText,
		Kind:        batch.Kind,
	})
	if err != nil {
		transient := extractor.IsTransient(err)
		s.recordMetric(ctx, batch, domain.ExtractionMethodFailed, start, false, 0, err.Error())
		return s.maybeRetry(ctx, job, batch, err, transient)
	}

	headerJSON, err := result.Header.MarshalJSONB()
	if err != nil {
		s.recordMetric(ctx, batch, result.Method, start, false, 0, err.Error())
		return s.maybeRetry(ctx, job, batch, fmt.Errorf("encoding batch header: %w", err), false)
	}

	lines := s.buildLines(ctx, batch, result.Lines)
	if err := s.lineRepo.CreateBatch(ctx, lines); err != nil {
		s.recordMetric(ctx, batch, result.Method, start, false, len(lines), err.Error())
		return s.maybeRetry(ctx, job, batch, fmt.Errorf("saving import lines: %w", err), false)
	}

	now := time.Now().UTC()
	batch.Status = domain.BatchStatusProcessing
	batch.Header = headerJSON
	if result.RawText == "" {
		result.RawText = rawText
	}
	batch.RawText = result.RawText
	batch.ErrorMsg = ""
	batch.Retryable = result.Retryable
	batch.ProcessedAt = &now
	if err := s.batchRepo.UpdateResult(ctx, batch); err != nil {
		return s.maybeRetry(ctx, job, batch, fmt.Errorf("saving batch result: %w", err), false)
	}
	if err := s.batchRepo.UpdateStatus(ctx, job.TenantID, batch.ID, domain.BatchStatusProcessing, domain.BatchStatusReviewing); err != nil {
		return s.maybeRetry(ctx, job, batch, fmt.Errorf("moving batch to reviewing: %w", err), false)
	}

	s.recordMetric(ctx, batch, result.Method, start, true, len(lines), "")
	log.Printf("importService.ProcessJob: batch %s processed via %s, %d line(s), retryable=%t",
		batch.ID, result.Method, len(lines), result.Retryable)
	return nil
}

// buildLines converts parsed rows into import lines and auto-matches the
// confident ones. Suggestion failures leave the line pending rather than
// failing the batch.
func (s *importService) buildLines(ctx context.Context, batch *domain.ImportBatch, parsed []port.ParsedLine) []domain.ImportLine {
	lines := make([]domain.ImportLine, 0, len(parsed))
	for i, p := range parsed {
		line := domain.ImportLine{
			ID:             uuid.New(),
			BatchID:        batch.ID,
			TenantID:       batch.TenantID,
			LineNo:         i + 1,
			Description:    p.Description,
			NormalizedDesc: matcher.Normalize(p.Description),
			Quantity:       p.Quantity,
			UnitPrice:      p.UnitPrice,
			TotalPrice:     p.TotalPrice,
			TaxRate:        p.TaxRate,
			TaxAmount:      p.TaxAmount,
			Status:         domain.LineStatusPending,
			Version:        1,
		}

		suggestions, err := s.suggester.Suggest(ctx, batch.TenantID, batch.Kind, p.Description)
		if err != nil {
			log.Printf("importService.buildLines: suggestions failed for line %d of batch %s: %v", i+1, batch.ID, err)
		} else if len(suggestions) > 0 && suggestions[0].Confidence >= s.autoMatchThreshold {
			top := suggestions[0]
			itemID := top.ItemID
			confidence := top.Confidence
			line.MatchedItemID = &itemID
			line.Confidence = &confidence
			line.Status = domain.LineStatusMatched
		}

		lines = append(lines, line)
	}
	return lines
}

// maybeRetry records the failure on the batch and decides the job's fate.
// Transient failures with attempts left go back to pending and the job is
// released; everything else parks the batch in error for a manual retry.
func (s *importService) maybeRetry(ctx context.Context, job *domain.ImportJob, batch *domain.ImportBatch, cause error, transient bool) error {
	if batch == nil {
		if job.Attempts < job.MaxAttempts {
			return cause
		}
		return nil
	}

	// UpdateResult records the failure details without touching the status;
	// the transition-checked UpdateStatus below does the processing -> error
	// flip so an already-moved batch is not silently overwritten.
	batch.ErrorMsg = cause.Error()
	batch.Retryable = transient
	if err := s.batchRepo.UpdateResult(ctx, batch); err != nil {
		log.Printf("importService.maybeRetry: failed to record error on batch %s: %v", batch.ID, err)
	}
	if err := s.batchRepo.UpdateStatus(ctx, job.TenantID, batch.ID, domain.BatchStatusProcessing, domain.BatchStatusError); err != nil {
		log.Printf("importService.maybeRetry: failed to move batch %s to error: %v", batch.ID, err)
	} else {
		batch.Status = domain.BatchStatusError
	}

	if transient && job.Attempts < job.MaxAttempts {
		// Reopen the batch so the released job finds it processable.
		if err := s.batchRepo.UpdateStatus(ctx, job.TenantID, batch.ID, domain.BatchStatusError, domain.BatchStatusPending); err != nil {
			log.Printf("importService.maybeRetry: failed to requeue batch %s: %v", batch.ID, err)
			return nil
		}
		log.Printf("importService.maybeRetry: batch %s attempt %d/%d failed transiently: %v",
			batch.ID, job.Attempts, job.MaxAttempts, cause)
		return cause
	}

	log.Printf("importService.maybeRetry: batch %s failed terminally after attempt %d/%d: %v",
		batch.ID, job.Attempts, job.MaxAttempts, cause)
	return nil
}

func (s *importService) recordMetric(ctx context.Context, batch *domain.ImportBatch, method domain.ExtractionMethod, start time.Time, success bool, items int, detail string) {
	metric := &domain.ProcessingMetric{
		TenantID:       batch.TenantID,
		BatchID:        batch.ID,
		Method:         method,
		DurationMs:     time.Since(start).Milliseconds(),
		Success:        success,
		ItemsExtracted: items,
		Detail:         detail,
	}
	if err := s.metricRepo.Create(ctx, metric); err != nil {
		log.Printf("importService.recordMetric: failed to save metric for batch %s: %v", batch.ID, err)
	}
}
