package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"ledgerflow/internal/config"
	"ledgerflow/internal/docmerge"
	"ledgerflow/internal/domain"
	"ledgerflow/internal/port"
)

// UploadInput is the DTO for document upload requests. A request carries
// either a single PDF or one or more page images.
type UploadInput struct {
	TenantID   uuid.UUID
	UploadedBy uuid.UUID
	Kind       domain.ImportKind
	Files      []*multipart.FileHeader
}

// UploadService accepts documents and hands them to the processing queue.
type UploadService interface {
	Upload(ctx context.Context, input UploadInput) (*domain.ImportBatch, error)
}

type uploadService struct {
	batchRepo port.ImportBatchRepository
	jobRepo   port.ImportJobRepository
	storage   port.ObjectStorage
	s3cfg     *config.S3Config
	cfg       config.UploadConfig
	queueCfg  config.QueueConfig
}

// NewUploadService creates a new UploadService implementation.
func NewUploadService(
	batchRepo port.ImportBatchRepository,
	jobRepo port.ImportJobRepository,
	storage port.ObjectStorage,
	s3cfg *config.S3Config,
	cfg config.UploadConfig,
	queueCfg config.QueueConfig,
) UploadService {
	return &uploadService{
		batchRepo: batchRepo,
		jobRepo:   jobRepo,
		storage:   storage,
		s3cfg:     s3cfg,
		cfg:       cfg,
		queueCfg:  queueCfg,
	}
}

func (s *uploadService) Upload(ctx context.Context, input UploadInput) (*domain.ImportBatch, error) {
	if len(input.Files) == 0 || len(input.Files) > s.cfg.MaxParts {
		return nil, domain.ErrUnsupportedFileType
	}

	parts, fileType, err := s.readAndValidate(input.Files)
	if err != nil {
		return nil, err
	}

	// Multiple parts are only legal for images; images are merged into one
	// paginated PDF so the pipeline downstream always sees a single document.
	fileName := input.Files[0].Filename
	contentType := domain.AllowedFileTypes[fileType]
	var body []byte
	if fileType == domain.FileTypePDF {
		if len(parts) > 1 {
			return nil, domain.ErrUnsupportedFileType
		}
		body = parts[0]
	} else {
		merged, pages, err := docmerge.MergeImagesToPDF(parts)
		if err != nil {
			return nil, err
		}
		log.Printf("uploadService.Upload: merged %d image(s) into a %d-page pdf", len(parts), pages)
		body = merged
		contentType = "application/pdf"
		fileName = strings.TrimSuffix(fileName, filepath.Ext(fileName)) + ".pdf"
	}

	batchID := uuid.New()
	s3Key := fmt.Sprintf("tenants/%s/imports/%s/%s", input.TenantID, batchID, fileName)

	batch := &domain.ImportBatch{
		ID:          batchID,
		TenantID:    input.TenantID,
		Kind:        input.Kind,
		Status:      domain.BatchStatusPending,
		S3Bucket:    s.s3cfg.Bucket,
		S3Key:       s3Key,
		ContentType: contentType,
		FileName:    fileName,
		FileSize:    int64(len(body)),
		CreatedBy:   input.UploadedBy,
	}

	log.Printf("uploadService.Upload: uploading %s (%s, %d bytes) for tenant %s by user %s",
		fileName, contentType, len(body), input.TenantID, input.UploadedBy)

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      batch.S3Bucket,
		Key:         batch.S3Key,
		Body:        bytes.NewReader(body),
		ContentType: contentType,
		Size:        batch.FileSize,
	}); err != nil {
		log.Printf("uploadService.Upload: S3 upload failed: %v", err)
		return nil, domain.ErrUploadFailed
	}

	if err := s.batchRepo.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("creating import batch: %w", err)
	}

	job := &domain.ImportJob{
		TenantID:    input.TenantID,
		BatchID:     batchID,
		MaxAttempts: s.queueCfg.MaxAttempts,
	}
	if err := s.jobRepo.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueueing import job: %w", err)
	}

	return batch, nil
}

// readAndValidate loads every part into memory after checking extension,
// size and magic bytes. All parts must share one file type family: either a
// lone PDF or a set of images.
func (s *uploadService) readAndValidate(files []*multipart.FileHeader) ([][]byte, domain.FileType, error) {
	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024

	var parts [][]byte
	var firstType domain.FileType
	for i, header := range files {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
		fileType, ok := domain.AllowedExtensions[ext]
		if !ok {
			return nil, "", domain.ErrUnsupportedFileType
		}
		if header.Size > maxBytes {
			return nil, "", domain.ErrFileTooLarge
		}

		if i == 0 {
			firstType = fileType
		} else if (fileType == domain.FileTypePDF) != (firstType == domain.FileTypePDF) {
			return nil, "", domain.ErrUnsupportedFileType
		}

		data, err := readPart(header)
		if err != nil {
			return nil, "", err
		}
		if int64(len(data)) > maxBytes {
			return nil, "", domain.ErrFileTooLarge
		}

		detected := http.DetectContentType(data[:min(len(data), 512)])
		if _, valid := domain.AllowedContentTypes[detected]; !valid {
			return nil, "", domain.ErrUnsupportedFileType
		}

		parts = append(parts, data)
	}
	return parts, firstType, nil
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload part: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading upload part: %w", err)
	}
	return data, nil
}
