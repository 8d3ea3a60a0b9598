package extract_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbrief/internal/domain"
	"medbrief/internal/extract"
)

// buildPDF writes a minimal single-font PDF with one page per entry in pages.
// An empty entry produces a page with no text.
func buildPDF(pages ...string) []byte {
	n := len(pages)
	// objects: 1 catalog, 2 pages, 3 font, then (page, content) pairs
	total := 3 + 2*n
	objs := make([]string, total+1)

	kids := ""
	for i := 0; i < n; i++ {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	objs[1] = "<< /Type /Catalog /Pages 2 0 R >>"
	objs[2] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n)
	objs[3] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"

	for i, text := range pages {
		pageObj := 4 + 2*i
		contentObj := pageObj + 1
		objs[pageObj] = fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentObj)
		stream := ""
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objs[contentObj] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, total+1)
	for i := 1; i <= total; i++ {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i, objs[i])
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", total+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xref)
	return buf.Bytes()
}

func TestPDFExtractor_OneChunkPerPage(t *testing.T) {
	data := buildPDF("Hemoglobin 13.2 g/dL", "Vitamin D 18 ng/mL")

	chunks, err := extract.NewPDFExtractor().Extract(context.Background(), data, "")

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "P1-C1", chunks[0].ChunkID)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Contains(t, chunks[0].Text, "Hemoglobin 13.2 g/dL")
	assert.Equal(t, "P2-C1", chunks[1].ChunkID)
	assert.Equal(t, 2, chunks[1].Page)
	assert.Contains(t, chunks[1].Text, "Vitamin D 18 ng/mL")
}

func TestPDFExtractor_BlankPagesDropped(t *testing.T) {
	data := buildPDF("", "Only page with text", "")

	chunks, err := extract.NewPDFExtractor().Extract(context.Background(), data, "")

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 2, chunks[0].Page)
	assert.Equal(t, "P2-C1", chunks[0].ChunkID)
}

func TestPDFExtractor_AllBlank_NoChunks(t *testing.T) {
	chunks, err := extract.NewPDFExtractor().Extract(context.Background(), buildPDF("", ""), "")

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestPDFExtractor_IDPrefix(t *testing.T) {
	chunks, err := extract.NewPDFExtractor().Extract(context.Background(), buildPDF("x-ray clear"), "D2-")

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "D2-P1-C1", chunks[0].ChunkID)
}

func TestPDFExtractor_InvalidBytes(t *testing.T) {
	_, err := extract.NewPDFExtractor().Extract(context.Background(), []byte("this is not a pdf"), "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
	var extErr *extract.ExtractionError
	assert.True(t, errors.As(err, &extErr))
}

func TestPDFExtractor_Empty(t *testing.T) {
	_, err := extract.NewPDFExtractor().Extract(context.Background(), nil, "")
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestPDFExtractor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extract.NewPDFExtractor().Extract(ctx, buildPDF("text"), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "P3-C1", extract.ChunkID("", 3))
	assert.Equal(t, "D1-P3-C1", extract.ChunkID("D1-", 3))
}
