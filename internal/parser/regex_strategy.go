package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/port"
)

// LabelSynonyms configures the keyword anchors the fallback strategy searches
// near when hunting for monetary totals.
type LabelSynonyms struct {
	Gross []string
	Net   []string
	Tax   []string
}

// DefaultLabelSynonyms are the out-of-the-box label anchors.
func DefaultLabelSynonyms() LabelSynonyms {
	return LabelSynonyms{
		Gross: []string{"grand total", "gross total", "total due", "amount due", "total"},
		Net:   []string{"net total", "subtotal", "sub-total", "net"},
		Tax:   []string{"vat", "tax", "gst", "sales tax"},
	}
}

var (
	isoDatePattern = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dmyDatePattern = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{4})\b`)
	amountPattern  = regexp.MustCompile(`\d{1,3}(?:,\d{3})*\.\d{2}|\d+\.\d{2}|\d+,\d{2}`)
)

// RegexStrategy is the deterministic fallback: date-pattern matching plus
// keyword-proximity search for monetary totals over the raw OCR text. It
// never attempts to extract line items because unstructured fallback text is
// too unreliable for row-level data.
type RegexStrategy struct {
	synonyms LabelSynonyms
}

// NewRegexStrategy creates a RegexStrategy with the given label synonyms.
func NewRegexStrategy(synonyms LabelSynonyms) *RegexStrategy {
	return &RegexStrategy{synonyms: synonyms}
}

// Parse extracts coarse header fields from raw text. It fails when neither a
// date nor any labeled total can be found.
func (s *RegexStrategy) Parse(_ context.Context, input port.ParseInput) (*port.ParseResult, error) {
	text := input.RawText
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no raw text available for fallback extraction")
	}

	date, dateOK := findDate(text)
	gross, grossOK := s.findLabeledAmount(text, s.synonyms.Gross)
	net, netOK := s.findLabeledAmount(text, s.synonyms.Net)
	tax, taxOK := s.findLabeledAmount(text, s.synonyms.Tax)

	if !dateOK && !grossOK && !netOK && !taxOK {
		return nil, fmt.Errorf("fallback extraction found no header data")
	}

	header := buildFallbackHeader(input.Kind, date, gross, net, tax)

	return &port.ParseResult{
		Header:  header,
		Lines:   []port.ParsedLine{}, // header-only, line items are never guessed from raw text
		RawText: text,
		Method:  domain.ExtractionMethodRegex,
	}, nil
}

func buildFallbackHeader(kind domain.ImportKind, date string, gross, net, tax decimal.Decimal) *domain.BatchHeader {
	if kind == domain.ImportKindSalesReport {
		return &domain.BatchHeader{
			Kind: kind,
			Sales: &domain.SalesHeader{
				SaleDate:   date,
				GrossTotal: gross,
				NetTotal:   net,
				TaxTotal:   tax,
			},
		}
	}
	return &domain.BatchHeader{
		Kind: kind,
		Invoice: &domain.InvoiceHeader{
			InvoiceDate: date,
			GrossTotal:  gross,
			NetTotal:    net,
			TaxTotal:    tax,
		},
	}
}

// findDate returns the first recognizable date in the text, normalized to
// YYYY-MM-DD.
func findDate(text string) (string, bool) {
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]), true
	}
	if m := dmyDatePattern.FindStringSubmatch(text); m != nil {
		day, month, year := m[1], m[2], m[3]
		if len(day) == 1 {
			day = "0" + day
		}
		if len(month) == 1 {
			month = "0" + month
		}
		return fmt.Sprintf("%s-%s-%s", year, month, day), true
	}
	return "", false
}

// findLabeledAmount scans each line for a label synonym and takes the last
// monetary amount on the first matching line. Synonyms are tried in order, so
// more specific labels must come first.
func (s *RegexStrategy) findLabeledAmount(text string, synonyms []string) (decimal.Decimal, bool) {
	lines := strings.Split(text, "\n")
	for _, synonym := range synonyms {
		for _, line := range lines {
			if !strings.Contains(strings.ToLower(line), synonym) {
				continue
			}
			matches := amountPattern.FindAllString(line, -1)
			if len(matches) == 0 {
				continue
			}
			raw := normalizeAmount(matches[len(matches)-1])
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				continue
			}
			return amount, true
		}
	}
	return decimal.Zero, false
}

// normalizeAmount strips thousands separators and converts a decimal comma.
func normalizeAmount(raw string) string {
	if strings.Contains(raw, ",") && strings.Contains(raw, ".") {
		return strings.ReplaceAll(raw, ",", "")
	}
	if strings.Contains(raw, ",") {
		return strings.ReplaceAll(raw, ",", ".")
	}
	return raw
}
