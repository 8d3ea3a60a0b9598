package completion

import (
	"fmt"

	"go.uber.org/zap"

	"medbrief/internal/config"
	"medbrief/internal/port"
)

// ProviderFactory is a function that creates a CompletionProvider from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.CompletionProvider, error)

// registry of provider factories, populated explicitly via RegisterProvider
// (see the providers package).
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates a CompletionProvider from a provider config using the registered factory.
func NewProvider(cfg *config.ProviderConfig) (port.CompletionProvider, error) {
	factory, ok := providers[cfg.Name]
	if !ok {
		return nil, fmt.Errorf("unknown completion provider: %s", cfg.Name)
	}
	return factory(cfg)
}

// BuildChain creates one tier per configured provider, in order, with the
// credential pool read once from the process environment.
func BuildChain(cfg *config.CompletionConfig) (*Chain, error) {
	opts := CallerOptions{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}
	tiers := make([]Tier, 0, len(cfg.Providers))
	for i := range cfg.Providers {
		pc := &cfg.Providers[i]
		p, err := NewProvider(pc)
		if err != nil {
			return nil, err
		}
		creds := CredentialPool(pc.Credentials())
		zap.L().Info("completion.BuildChain: provider configured",
			zap.String("provider", pc.Name),
			zap.Int("credentials", len(creds)),
			zap.Strings("models", pc.Models))
		tiers = append(tiers, Tier{
			Caller:      NewCaller(p, opts),
			Credentials: creds,
			Models:      ModelPriorityList(pc.Models),
		})
	}
	return NewChain(tiers...), nil
}
