package completion

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"medbrief/internal/domain"
	"medbrief/internal/port"
)

// CredentialPool is an ordered, deduplicated set of provider credentials.
type CredentialPool []string

// ModelPriorityList is an ordered list of model identifiers, preferred first.
type ModelPriorityList []string

// CallerOptions carries the sampling settings applied to every attempt.
type CallerOptions struct {
	Temperature float64
	MaxTokens   int
}

// Caller runs the credential x model attempt matrix against one provider.
type Caller struct {
	provider port.CompletionProvider
	opts     CallerOptions
}

// NewCaller creates a Caller for provider.
func NewCaller(provider port.CompletionProvider, opts CallerOptions) *Caller {
	return &Caller{provider: provider, opts: opts}
}

// Provider returns the provider name.
func (c *Caller) Provider() string {
	return c.provider.Name()
}

// Attempt tries every (credential, model) pair in order, credentials outermost,
// and returns on the first non-empty completion. Attempts are sequential and
// never repeated. On exhaustion the outcome carries the most recent error.
// An empty pool fails without contacting the provider.
func (c *Caller) Attempt(ctx context.Context, req domain.CompletionRequest, credentials CredentialPool, models ModelPriorityList) domain.CompletionOutcome {
	name := c.provider.Name()
	if len(credentials) == 0 {
		zap.L().Warn("completion.Attempt: no credentials configured", zap.String("provider", name))
		return domain.FailureOutcome(domain.MsgNoCredentials, 0)
	}
	if len(models) == 0 {
		zap.L().Warn("completion.Attempt: no models configured", zap.String("provider", name))
		return domain.FailureOutcome("no models configured", 0)
	}

	var lastErr error
	var lastModel string
	attempts := 0
	for _, cred := range credentials {
		for _, model := range models {
			if err := ctx.Err(); err != nil {
				out := domain.FailureOutcome(err.Error(), attempts)
				out.Provider = name
				out.Model = lastModel
				return out
			}

			attempts++
			lastModel = model
			text, err := c.call(ctx, cred, model, req)
			if err == nil {
				zap.L().Info("completion.Attempt: succeeded",
					zap.String("provider", name),
					zap.String("model", model),
					zap.String("key", Fingerprint(cred)),
					zap.Int("attempt", attempts))
				return domain.SuccessOutcome(text, name, model, attempts)
			}

			lastErr = err
			zap.L().Warn("completion.Attempt: attempt failed",
				zap.Int("attempt", attempts),
				zap.Error(&AttemptError{Provider: name, Model: model, Fingerprint: Fingerprint(cred), Err: err}))
		}
	}

	out := domain.FailureOutcome(lastErr.Error(), attempts)
	out.Provider = name
	out.Model = lastModel
	return out
}

func (c *Caller) call(ctx context.Context, credential, model string, req domain.CompletionRequest) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	text, err = c.provider.Complete(ctx, port.CompletionCall{
		Credential:  credential,
		Model:       model,
		Request:     req,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
