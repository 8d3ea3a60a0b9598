package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"medbrief/internal/domain"
	"medbrief/internal/service"
)

// MockSummaryService is a mock implementation of service.SummaryService.
type MockSummaryService struct {
	mock.Mock
}

func (m *MockSummaryService) Summarize(ctx context.Context, input service.SummarizeInput) (*service.SummarizeResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SummarizeResult), args.Error(1)
}

func (m *MockSummaryService) Get(ctx context.Context, id uuid.UUID) (*domain.SummaryRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SummaryRecord), args.Error(1)
}

func (m *MockSummaryService) List(ctx context.Context, offset, limit int) ([]domain.SummaryRecord, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.SummaryRecord), args.Int(1), args.Error(2)
}

func (m *MockSummaryService) ExportLabs(ctx context.Context, id uuid.UUID) (*service.LabExport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LabExport), args.Error(1)
}
