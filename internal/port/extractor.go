package port

import (
	"context"
	"encoding/json"

	"ledgerflow/internal/domain"
)

// ExtractInput carries the document bytes sent to an extraction provider.
type ExtractInput struct {
	FileBytes   []byte
	ContentType string
	Kind        domain.ImportKind
}

// ExtractOutput contains the structured JSON returned by a provider, before
// it is decoded into the internal header/line shape.
type ExtractOutput struct {
	Data      json.RawMessage
	ModelUsed string
}

// ExtractionProvider abstracts a multimodal document-understanding service.
// Implementations return *extractor.TransientError for overload/unavailable
// failures so callers can distinguish retryable from fatal errors.
type ExtractionProvider interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
