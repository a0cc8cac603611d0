// Package doctext recovers a plain-text rendition of an uploaded PDF without
// calling any external service. The worker feeds the result to the fallback
// extraction strategy, so header recovery still works while the extraction
// provider is unavailable. Scanned documents carry no text operators and
// yield an empty result.
package doctext

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"ledgerflow/internal/port"
)

// Extractor implements port.TextExtractor over PDF page content streams.
type Extractor struct{}

var _ port.TextExtractor = (*Extractor)(nil)

// New creates a new Extractor.
func New() *Extractor {
	return &Extractor{}
}

// ExtractText decodes the text-show operators of every page. Non-PDF content
// is skipped with an empty result; PDFs using CID-keyed fonts may decode to
// unusable byte soup, which downstream pattern matching simply fails to match.
func (e *Extractor) ExtractText(data []byte, contentType string) (string, error) {
	if contentType != "application/pdf" {
		return "", nil
	}

	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.EXTRACTCONTENT
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("doctext.ExtractText: reading document: %w", err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			return "", fmt.Errorf("doctext.ExtractText: page %d: %w", pageNr, err)
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("doctext.ExtractText: page %d: %w", pageNr, err)
		}
		page := DecodeContent(string(content))
		if page == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(page)
	}
	return sb.String(), nil
}

// contentToken matches, in stream order, the pieces DecodeContent cares
// about: literal strings, hex strings, the text-show operators (Tj, TJ, '
// and ") and the line-positioning operators (Td, TD, T*).
var contentToken = regexp.MustCompile(`\((?:\\.|[^\\()])*\)|<[0-9A-Fa-f\s]+>|\bTJ\b|\bTj\b|\bTd\b|\bTD\b|T\*|'|"`)

// DecodeContent walks one page content stream and reassembles its shown text.
// Strings consumed by a single show operator are concatenated (TJ kerning
// splits words mid-glyph); separate shows on one line are joined with a
// space; each line-positioning operator starts a new output line.
func DecodeContent(content string) string {
	var lines []string
	var segments []string
	var pending []string

	flushShow := func() {
		if s := strings.Join(pending, ""); s != "" {
			segments = append(segments, s)
		}
		pending = pending[:0]
	}
	flushLine := func() {
		pending = pending[:0]
		if len(segments) > 0 {
			lines = append(lines, strings.Join(segments, " "))
			segments = segments[:0]
		}
	}

	for _, tok := range contentToken.FindAllString(content, -1) {
		switch {
		case strings.HasPrefix(tok, "("):
			pending = append(pending, decodeLiteral(tok))
		case strings.HasPrefix(tok, "<"):
			pending = append(pending, decodeHex(tok))
		case tok == "Tj" || tok == "TJ" || tok == "'" || tok == `"`:
			flushShow()
		case tok == "Td" || tok == "TD" || tok == "T*":
			flushLine()
		}
	}
	flushShow()
	flushLine()
	return strings.Join(lines, "\n")
}

// decodeLiteral unescapes a PDF literal string, parens included.
func decodeLiteral(tok string) string {
	body := tok[1 : len(tok)-1]
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' || i == len(body)-1 {
			sb.WriteByte(ch)
			continue
		}
		i++
		switch esc := body[i]; esc {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case '(', ')', '\\':
			sb.WriteByte(esc)
		case '\n':
			// Line continuation, emits nothing.
		case '0', '1', '2', '3', '4', '5', '6', '7':
			oct := string(esc)
			for len(oct) < 3 && i+1 < len(body) && body[i+1] >= '0' && body[i+1] <= '7' {
				i++
				oct += string(body[i])
			}
			if code, err := strconv.ParseUint(oct, 8, 16); err == nil && code < 256 {
				sb.WriteByte(byte(code))
			}
		default:
			sb.WriteByte(esc)
		}
	}
	return sb.String()
}

// decodeHex decodes a PDF hex string, angle brackets included. UTF-16BE
// strings are recognized by their byte-order mark.
func decodeHex(tok string) string {
	body := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, tok[1:len(tok)-1])
	if len(body)%2 == 1 {
		body += "0"
	}
	raw, err := hex.DecodeString(body)
	if err != nil {
		return ""
	}
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		codes := make([]uint16, 0, (len(raw)-2)/2)
		for i := 2; i+1 < len(raw); i += 2 {
			codes = append(codes, uint16(raw[i])<<8|uint16(raw[i+1]))
		}
		return string(utf16.Decode(codes))
	}
	return string(raw)
}
