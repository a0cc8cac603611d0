package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// InvoiceHeader is the document-level data extracted from a supplier invoice.
type InvoiceHeader struct {
	SupplierName  string          `json:"supplier_name"`
	SupplierTaxID string          `json:"supplier_tax_id"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   string          `json:"invoice_date"`
	Currency      string          `json:"currency"`
	NetTotal      decimal.Decimal `json:"net_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	GrossTotal    decimal.Decimal `json:"gross_total"`
}

// SalesHeader is the document-level data extracted from a point-of-sale
// sales report.
type SalesHeader struct {
	SaleDate   string          `json:"sale_date"`
	Outlet     string          `json:"outlet"`
	GrossTotal decimal.Decimal `json:"gross_total"`
	NetTotal   decimal.Decimal `json:"net_total"`
	TaxTotal   decimal.Decimal `json:"tax_total"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
}

// BatchHeader is a tagged union over the two header shapes. Exactly one of
// Invoice or Sales is non-nil, selected by Kind.
type BatchHeader struct {
	Kind    ImportKind     `json:"kind"`
	Invoice *InvoiceHeader `json:"invoice,omitempty"`
	Sales   *SalesHeader   `json:"sales,omitempty"`
}

// Validate checks that the union holds exactly the variant its Kind names.
func (h *BatchHeader) Validate() error {
	switch h.Kind {
	case ImportKindInvoice:
		if h.Invoice == nil || h.Sales != nil {
			return fmt.Errorf("invoice batch header must carry exactly the invoice variant")
		}
	case ImportKindSalesReport:
		if h.Sales == nil || h.Invoice != nil {
			return fmt.Errorf("sales batch header must carry exactly the sales variant")
		}
	default:
		return fmt.Errorf("unknown import kind: %q", h.Kind)
	}
	return nil
}

// MarshalJSONB serializes the header for JSONB storage.
func (h *BatchHeader) MarshalJSONB() (json.RawMessage, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(h)
}

// DecodeBatchHeader deserializes a header stored as JSONB.
func DecodeBatchHeader(raw json.RawMessage) (*BatchHeader, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty batch header")
	}
	var h BatchHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("decoding batch header: %w", err)
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}
