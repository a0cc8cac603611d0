// Package docmerge combines multiple uploaded page images into a single
// paginated PDF so downstream processing always sees one document.
package docmerge

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"ledgerflow/internal/domain"
)

// MergeImagesToPDF decodes each image and renders it as one PDF page in the
// order given, preserving the original dimensions. Undecodable parts are
// skipped with a log line; if nothing decodes the merge fails with
// domain.ErrNoDecodableImages.
func MergeImagesToPDF(images [][]byte) ([]byte, int, error) {
	var readers []io.Reader
	for i, raw := range images {
		img, err := imaging.Decode(bytes.NewReader(raw))
		if err != nil {
			log.Printf("docmerge.MergeImagesToPDF: skipping part %d: %v", i, err)
			continue
		}
		// Re-encode to PNG so the PDF importer sees one known format
		// regardless of what the client sent.
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			log.Printf("docmerge.MergeImagesToPDF: skipping part %d: %v", i, err)
			continue
		}
		readers = append(readers, bytes.NewReader(buf.Bytes()))
	}

	if len(readers) == 0 {
		return nil, 0, domain.ErrNoDecodableImages
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	// A nil import spec keeps each page at the image's own dimensions.
	if err := api.ImportImages(nil, &out, readers, nil, conf); err != nil {
		return nil, 0, fmt.Errorf("docmerge.MergeImagesToPDF: %w", err)
	}
	return out.Bytes(), len(readers), nil
}
