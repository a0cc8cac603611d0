package parser_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/extractor"
	"ledgerflow/internal/parser"
	"ledgerflow/internal/port"
	"ledgerflow/mocks"
)

func newCascade(provider port.ExtractionProvider) *parser.Cascade {
	return parser.NewCascade(
		parser.NewAIStrategy(provider, nil),
		parser.NewRegexStrategy(parser.DefaultLabelSynonyms()),
	)
}

func aiPayload() json.RawMessage {
	return json.RawMessage(`{
		"header": {
			"supplier_name": "ACME Wholesale",
			"invoice_number": "INV-42",
			"invoice_date": "2026-02-14",
			"net_total": 100,
			"tax_total": 19,
			"gross_total": 119
		},
		"line_items": [
			{"description": "Widget A", "quantity": 2, "unit_price": 50, "total_price": 100, "tax_rate": 19, "tax_amount": 19}
		],
		"raw_text": "ACME Wholesale invoice 2026-02-14 total 119.00"
	}`)
}

func TestCascade_AISucceeds(t *testing.T) {
	provider := new(mocks.MockExtractionProvider)
	provider.On("Extract", mock.Anything, mock.Anything).
		Return(&port.ExtractOutput{Data: aiPayload(), ModelUsed: "gemini-2.0-flash"}, nil)

	result, err := newCascade(provider).Parse(context.Background(), port.ParseInput{
		FileBytes:   []byte("%PDF-1.4"),
		ContentType: "application/pdf",
		Kind:        domain.ImportKindInvoice,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionMethodAI, result.Method)
	assert.False(t, result.Retryable)
	require.NotNil(t, result.Header.Invoice)
	assert.Equal(t, "INV-42", result.Header.Invoice.InvoiceNumber)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, "Widget A", result.Lines[0].Description)
	assert.NotEmpty(t, result.RawText)
}

func TestCascade_FatalAIFailure_FallbackWithRawText(t *testing.T) {
	provider := new(mocks.MockExtractionProvider)
	provider.On("Extract", mock.Anything, mock.Anything).
		Return(nil, errors.New("model output is not valid JSON"))

	result, err := newCascade(provider).Parse(context.Background(), port.ParseInput{
		FileBytes:   []byte("%PDF-1.4"),
		ContentType: "application/pdf",
		RawText:     "Invoice date 2026-03-10\nTotal: 42.00",
		Kind:        domain.ImportKindInvoice,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionMethodRegex, result.Method)
	assert.False(t, result.Retryable)
	assert.Empty(t, result.Lines)
	assert.Equal(t, "2026-03-10", result.Header.Invoice.InvoiceDate)
}

func TestCascade_TransientAIFailure_FallbackIsRetryable(t *testing.T) {
	provider := new(mocks.MockExtractionProvider)
	provider.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extractor.NewTransientError("gemini", errors.New("503"), 60))

	result, err := newCascade(provider).Parse(context.Background(), port.ParseInput{
		FileBytes:   []byte("%PDF-1.4"),
		ContentType: "application/pdf",
		RawText:     "Invoice date 2026-03-10\nTotal: 42.00",
		Kind:        domain.ImportKindInvoice,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionMethodRegex, result.Method)
	assert.True(t, result.Retryable)
}

func TestCascade_TransientAIFailure_NoRawText(t *testing.T) {
	provider := new(mocks.MockExtractionProvider)
	provider.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extractor.NewTransientError("gemini", errors.New("429"), 30))

	result, err := newCascade(provider).Parse(context.Background(), port.ParseInput{
		FileBytes:   []byte("%PDF-1.4"),
		ContentType: "application/pdf",
		Kind:        domain.ImportKindInvoice,
	})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, extractor.IsTransient(err))
}

func TestCascade_BothFail_Fatal(t *testing.T) {
	provider := new(mocks.MockExtractionProvider)
	provider.On("Extract", mock.Anything, mock.Anything).
		Return(nil, errors.New("invalid api key"))

	result, err := newCascade(provider).Parse(context.Background(), port.ParseInput{
		FileBytes:   []byte("%PDF-1.4"),
		ContentType: "application/pdf",
		Kind:        domain.ImportKindInvoice,
	})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.False(t, extractor.IsTransient(err))
}
