package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"medbrief/internal/domain"
	"medbrief/internal/port"
)

// MockCompletionProvider is a mock implementation of port.CompletionProvider.
type MockCompletionProvider struct {
	mock.Mock
}

func (m *MockCompletionProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCompletionProvider) Complete(ctx context.Context, call port.CompletionCall) (string, error) {
	args := m.Called(ctx, call)
	return args.String(0), args.Error(1)
}

// MockCompleter is a mock implementation of port.Completer.
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, req domain.CompletionRequest) domain.CompletionOutcome {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.CompletionOutcome)
}
