package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"medbrief/internal/domain"
)

// ExtractionError indicates the bytes could not be opened as a PDF.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%v: %v", domain.ErrExtractionFailed, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{domain.ErrExtractionFailed, e.Err}
}

// ChunkID returns the identifier of the single chunk taken from a page.
func ChunkID(idPrefix string, page int) string {
	return fmt.Sprintf("%sP%d-C1", idPrefix, page)
}

// PDFExtractor implements port.TextExtractor using ledongthuc/pdf.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDFExtractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns one chunk per page that has non-blank text, in page order.
func (x *PDFExtractor) Extract(ctx context.Context, data []byte, idPrefix string) (chunks []domain.Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			chunks = nil
			err = &ExtractionError{Err: fmt.Errorf("pdf reader panic: %v", r)}
		}
	}()

	if len(data) == 0 {
		return nil, &ExtractionError{Err: fmt.Errorf("empty document")}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := pageText(page)
		if err != nil {
			zap.L().Warn("extract.Extract: skipping unreadable page",
				zap.Int("page", i), zap.Error(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ChunkID: ChunkID(idPrefix, i),
			Page:    i,
			Text:    text,
		})
	}
	return chunks, nil
}

// pageText isolates panics from malformed content streams to a single page.
func pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page content panic: %v", r)
		}
	}()
	return page.GetPlainText(nil)
}
