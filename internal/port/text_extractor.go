package port

import (
	"context"

	"medbrief/internal/domain"
)

// TextExtractor turns a binary document into ordered per-page chunks.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, idPrefix string) ([]domain.Chunk, error)
}
