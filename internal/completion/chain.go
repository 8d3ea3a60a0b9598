package completion

import (
	"context"

	"go.uber.org/zap"

	"medbrief/internal/domain"
)

// Tier is one provider's slice of the attempt matrix.
type Tier struct {
	Caller      *Caller
	Credentials CredentialPool
	Models      ModelPriorityList
}

// Chain tries provider tiers in order. Provider identity is the outermost
// dimension of the matrix; tiers with no credentials or no models are skipped.
type Chain struct {
	tiers []Tier
}

// NewChain creates a Chain from tiers in priority order.
func NewChain(tiers ...Tier) *Chain {
	return &Chain{tiers: tiers}
}

// Tiers returns the configured tiers.
func (ch *Chain) Tiers() []Tier {
	return ch.tiers
}

// Complete runs every tier until one succeeds. Attempts accumulate across
// tiers and a failure carries the most recent tier's last error.
func (ch *Chain) Complete(ctx context.Context, req domain.CompletionRequest) domain.CompletionOutcome {
	var last domain.CompletionOutcome
	tried := false
	attempts := 0

	for _, t := range ch.tiers {
		if len(t.Credentials) == 0 {
			zap.L().Debug("completion.Chain: skipping provider without credentials",
				zap.String("provider", t.Caller.Provider()))
			continue
		}
		if len(t.Models) == 0 {
			zap.L().Warn("completion.Chain: skipping provider without models",
				zap.String("provider", t.Caller.Provider()))
			continue
		}
		tried = true

		out := t.Caller.Attempt(ctx, req, t.Credentials, t.Models)
		attempts += out.Attempts
		out.Attempts = attempts
		if out.Succeeded() {
			return out
		}
		last = out
		if ctx.Err() != nil {
			break
		}
	}

	if !tried {
		return domain.FailureOutcome(domain.MsgNoCredentials, 0)
	}
	zap.L().Error("completion.Chain: all attempts failed",
		zap.Int("attempts", attempts),
		zap.String("last_error", last.LastError))
	return last
}
