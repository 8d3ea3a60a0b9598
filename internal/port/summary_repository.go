package port

import (
	"context"

	"github.com/google/uuid"

	"medbrief/internal/domain"
)

// SummaryRepository stores summarization results.
type SummaryRepository interface {
	Create(ctx context.Context, record *domain.SummaryRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SummaryRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.SummaryRecord, int, error)
	Ping(ctx context.Context) error
}
