package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerflow/internal/domain"
)

func TestBatchHeader_Validate(t *testing.T) {
	valid := &domain.BatchHeader{
		Kind:    domain.ImportKindInvoice,
		Invoice: &domain.InvoiceHeader{InvoiceNumber: "INV-1"},
	}
	assert.NoError(t, valid.Validate())

	wrongVariant := &domain.BatchHeader{
		Kind:  domain.ImportKindInvoice,
		Sales: &domain.SalesHeader{SaleDate: "2026-01-01"},
	}
	assert.Error(t, wrongVariant.Validate())

	bothVariants := &domain.BatchHeader{
		Kind:    domain.ImportKindSalesReport,
		Invoice: &domain.InvoiceHeader{},
		Sales:   &domain.SalesHeader{},
	}
	assert.Error(t, bothVariants.Validate())

	noVariant := &domain.BatchHeader{Kind: domain.ImportKindSalesReport}
	assert.Error(t, noVariant.Validate())

	badKind := &domain.BatchHeader{Kind: "receipt", Invoice: &domain.InvoiceHeader{}}
	assert.Error(t, badKind.Validate())
}

func TestBatchHeader_RoundTrip(t *testing.T) {
	original := &domain.BatchHeader{
		Kind: domain.ImportKindSalesReport,
		Sales: &domain.SalesHeader{
			SaleDate:   "2026-04-01",
			Outlet:     "Downtown",
			GrossTotal: decimal.RequireFromString("119.00"),
			NetTotal:   decimal.RequireFromString("100.00"),
			TaxTotal:   decimal.RequireFromString("19.00"),
		},
	}

	raw, err := original.MarshalJSONB()
	require.NoError(t, err)

	decoded, err := domain.DecodeBatchHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportKindSalesReport, decoded.Kind)
	assert.Nil(t, decoded.Invoice)
	require.NotNil(t, decoded.Sales)
	assert.Equal(t, "Downtown", decoded.Sales.Outlet)
	assert.True(t, decoded.Sales.GrossTotal.Equal(original.Sales.GrossTotal))
}

func TestBatchHeader_MarshalRejectsInvalidUnion(t *testing.T) {
	broken := &domain.BatchHeader{Kind: domain.ImportKindInvoice}
	_, err := broken.MarshalJSONB()
	assert.Error(t, err)
}

func TestDecodeBatchHeader_Invalid(t *testing.T) {
	_, err := domain.DecodeBatchHeader(nil)
	assert.Error(t, err)

	_, err = domain.DecodeBatchHeader(json.RawMessage(`{not json`))
	assert.Error(t, err)

	// A stored header must still satisfy the union invariant.
	_, err = domain.DecodeBatchHeader(json.RawMessage(`{"kind":"invoice","sales":{"sale_date":"2026-01-01"}}`))
	assert.Error(t, err)
}
