package extractor

import "ledgerflow/internal/domain"

// BuildPrompt returns the extraction prompt for the given import kind.
func BuildPrompt(kind domain.ImportKind) string {
	if kind == domain.ImportKindSalesReport {
		return salesReportPrompt
	}
	return invoicePrompt
}

const invoicePrompt = `You are a document data extraction assistant. Analyze the provided supplier invoice and extract ALL data into the following JSON structure.

IMPORTANT INSTRUCTIONS:
- The document may span multiple pages. Extract EVERY line item from every page into a single flat "line_items" array. Do not skip, summarize, or omit any items.
- Normalize all dates to YYYY-MM-DD format. Strip timestamps and other non-date text.
- All monetary values must be plain numbers without currency symbols or thousands separators.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation, just the raw JSON object.

The JSON object must follow this schema:
{
  "header": {
    "supplier_name": "",
    "supplier_tax_id": "",
    "invoice_number": "",
    "invoice_date": "",
    "currency": "",
    "net_total": 0,
    "tax_total": 0,
    "gross_total": 0
  },
  "line_items": [
    {
      "description": "",
      "quantity": 0,
      "unit_price": 0,
      "total_price": 0,
      "tax_rate": 0,
      "tax_amount": 0
    }
  ],
  "raw_text": ""
}

"raw_text" must contain the plain-text transcription of the document.

If a field is not present in the document, use empty string for text and 0 for numbers.`

const salesReportPrompt = `You are a document data extraction assistant. Analyze the provided point-of-sale sales report and extract ALL data into the following JSON structure.

IMPORTANT INSTRUCTIONS:
- Extract EVERY sold item row into a single flat "line_items" array. Do not skip, summarize, or omit any items.
- Normalize all dates to YYYY-MM-DD format.
- All monetary values must be plain numbers without currency symbols or thousands separators.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation, just the raw JSON object.

The JSON object must follow this schema:
{
  "header": {
    "sale_date": "",
    "outlet": "",
    "gross_total": 0,
    "net_total": 0,
    "tax_total": 0,
    "tax_rate": 0
  },
  "line_items": [
    {
      "description": "",
      "quantity": 0,
      "unit_price": 0,
      "total_price": 0,
      "tax_rate": 0,
      "tax_amount": 0
    }
  ],
  "raw_text": ""
}

"raw_text" must contain the plain-text transcription of the document.

If a field is not present in the document, use empty string for text and 0 for numbers.`
