package port

import (
	"context"

	"github.com/shopspring/decimal"

	"ledgerflow/internal/domain"
)

// ParseInput carries everything the cascade needs for one extraction attempt.
type ParseInput struct {
	FileBytes   []byte
	ContentType string
	RawText     string
	Kind        domain.ImportKind
}

// ParsedLine is one extracted row, before persistence.
type ParsedLine struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
}

// ParseResult is the normalized output of the cascade.
type ParseResult struct {
	Header *domain.BatchHeader
	Lines  []ParsedLine
	// RawText is the text representation of the document, when a strategy
	// produced or consumed one.
	RawText string
	Method  domain.ExtractionMethod
	// Retryable marks a result degraded by transient provider unavailability:
	// the fallback strategy ran, but re-running the AI strategy later may
	// recover line items.
	Retryable bool
}

// BatchParser runs the extraction strategy cascade over one document.
type BatchParser interface {
	Parse(ctx context.Context, input ParseInput) (*ParseResult, error)
}

// TextExtractor recovers a plain-text rendition of a stored document for
// strategies that operate on raw text instead of bytes. An empty result with
// a nil error means the document simply carries no recoverable text.
type TextExtractor interface {
	ExtractText(data []byte, contentType string) (string, error)
}
