package parser

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/port"
)

// aiDocument is the JSON shape extraction providers are prompted to return.
type aiDocument struct {
	Header    json.RawMessage   `json:"header"`
	LineItems []port.ParsedLine `json:"line_items"`
	RawText   string            `json:"raw_text"`
}

// AIStrategy extracts header and line items by sending the document bytes to
// an extraction provider. The shared limiter throttles provider calls across
// the whole worker pool, independent of worker concurrency.
type AIStrategy struct {
	provider port.ExtractionProvider
	limiter  *rate.Limiter
}

// NewAIStrategy creates an AIStrategy. limiter may be nil (no throttling).
func NewAIStrategy(provider port.ExtractionProvider, limiter *rate.Limiter) *AIStrategy {
	return &AIStrategy{provider: provider, limiter: limiter}
}

// Parse runs one provider extraction and decodes the result into the internal
// shape. Malformed JSON, an empty payload, or a provider error are all
// strategy failures; transient provider errors pass through typed so the
// cascade can classify them.
func (s *AIStrategy) Parse(ctx context.Context, input port.ParseInput) (*port.ParseResult, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for provider rate limit: %w", err)
		}
	}

	out, err := s.provider.Extract(ctx, port.ExtractInput{
		FileBytes:   input.FileBytes,
		ContentType: input.ContentType,
		Kind:        input.Kind,
	})
	if err != nil {
		return nil, err
	}

	var doc aiDocument
	if err := json.Unmarshal(out.Data, &doc); err != nil {
		return nil, fmt.Errorf("decoding extraction payload: %w", err)
	}
	if len(doc.Header) == 0 {
		return nil, fmt.Errorf("extraction payload has no header")
	}

	header, err := decodeHeader(input.Kind, doc.Header)
	if err != nil {
		return nil, err
	}

	return &port.ParseResult{
		Header:  header,
		Lines:   doc.LineItems,
		RawText: doc.RawText,
		Method:  domain.ExtractionMethodAI,
	}, nil
}

func decodeHeader(kind domain.ImportKind, raw json.RawMessage) (*domain.BatchHeader, error) {
	switch kind {
	case domain.ImportKindInvoice:
		var h domain.InvoiceHeader
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, fmt.Errorf("decoding invoice header: %w", err)
		}
		return &domain.BatchHeader{Kind: kind, Invoice: &h}, nil
	case domain.ImportKindSalesReport:
		var h domain.SalesHeader
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, fmt.Errorf("decoding sales header: %w", err)
		}
		return &domain.BatchHeader{Kind: kind, Sales: &h}, nil
	default:
		return nil, fmt.Errorf("unknown import kind: %q", kind)
	}
}
