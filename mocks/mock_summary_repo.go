package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"medbrief/internal/domain"
)

// MockSummaryRepo is a mock implementation of port.SummaryRepository.
type MockSummaryRepo struct {
	mock.Mock
}

func (m *MockSummaryRepo) Create(ctx context.Context, record *domain.SummaryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSummaryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SummaryRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SummaryRecord), args.Error(1)
}

func (m *MockSummaryRepo) List(ctx context.Context, offset, limit int) ([]domain.SummaryRecord, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.SummaryRecord), args.Int(1), args.Error(2)
}

func (m *MockSummaryRepo) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
