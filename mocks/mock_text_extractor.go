package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"medbrief/internal/domain"
)

// MockTextExtractor is a mock implementation of port.TextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, data []byte, idPrefix string) ([]domain.Chunk, error) {
	args := m.Called(ctx, data, idPrefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Chunk), args.Error(1)
}
