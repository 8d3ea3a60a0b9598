package prompt

import (
	"fmt"
	"strings"

	"medbrief/internal/domain"
)

// Build renders the template and chunks into a completion request. Chunks are
// emitted in the order given, without deduplication.
func Build(chunks []domain.Chunk, tmpl Template) domain.CompletionRequest {
	var sb strings.Builder
	sb.WriteString(tmpl.Instructions)
	if tmpl.OutputSchema != "" {
		sb.WriteString("\n\nOUTPUT FORMAT (JSON ONLY):\n\n")
		sb.WriteString(tmpl.OutputSchema)
	}
	sb.WriteString("\n\nMEDICAL DOCUMENT CHUNKS:\n")

	blocks := make([]string, 0, len(chunks))
	for _, c := range chunks {
		blocks = append(blocks, renderChunk(c))
	}
	sb.WriteString(strings.Join(blocks, "\n"))

	return domain.CompletionRequest{
		SystemInstructions: tmpl.System,
		UserPayload:        sb.String(),
		ResponseFormat:     tmpl.Format,
	}
}

func renderChunk(c domain.Chunk) string {
	return fmt.Sprintf("[Chunk ID: %s]\n[Page: %d]\nText:\n%s\n", c.ChunkID, c.Page, c.Text)
}
