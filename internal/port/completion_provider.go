package port

import (
	"context"

	"medbrief/internal/domain"
)

// CompletionCall is one (credential, model) attempt against a provider.
type CompletionCall struct {
	Credential  string
	Model       string
	Request     domain.CompletionRequest
	Temperature float64
	MaxTokens   int
}

// CompletionProvider issues a single outbound text-generation request.
// Implementations must not retry; failover belongs to the caller.
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, call CompletionCall) (string, error)
}

// ModelLister is implemented by providers that can enumerate the models a
// credential has access to.
type ModelLister interface {
	ListModels(ctx context.Context, credential string) ([]string, error)
}

// Completer runs a full failover matrix and always yields an outcome.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) domain.CompletionOutcome
}
