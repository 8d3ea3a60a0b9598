package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"medbrief/internal/completion"
	"medbrief/internal/config"
	"medbrief/internal/domain"
	"medbrief/internal/port"
)

const (
	defaultBaseURL = "http://localhost:11434"
	providerName   = "ollama"
)

// Provider implements port.CompletionProvider against an Ollama server,
// local or behind an authenticating proxy.
type Provider struct {
	base   *url.URL
	client *http.Client
}

// NewProvider creates an Ollama provider.
func NewProvider(cfg *config.ProviderConfig) (*Provider, error) {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return NewProviderWithEndpoint(cfg, base)
}

// NewProviderWithEndpoint creates a provider pointing at a custom server URL (for testing).
func NewProviderWithEndpoint(cfg *config.ProviderConfig, rawURL string) (*Provider, error) {
	u, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base_url %q: %w", rawURL, err)
	}
	return &Provider{
		base:   u,
		client: &http.Client{Timeout: cfg.Timeout()},
	}, nil
}

// Factory adapts NewProvider to completion.ProviderFactory.
func Factory(cfg *config.ProviderConfig) (port.CompletionProvider, error) {
	return NewProvider(cfg)
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Complete(ctx context.Context, call port.CompletionCall) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: call.Model,
		Messages: []api.Message{
			{Role: "system", Content: call.Request.SystemInstructions},
			{Role: "user", Content: call.Request.UserPayload},
		},
		Options: map[string]interface{}{
			"temperature": call.Temperature,
		},
		Stream: &stream,
	}
	if call.MaxTokens > 0 {
		req.Options["num_predict"] = call.MaxTokens
	}
	if call.Request.ResponseFormat == domain.FormatJSONObject {
		req.Format = json.RawMessage(`"json"`)
	}

	var sb strings.Builder
	var doneReason string
	err := p.clientFor(call.Credential).Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		if resp.Done {
			doneReason = resp.DoneReason
		}
		return nil
	})
	if err != nil {
		return "", wrapError(err)
	}
	if doneReason == "length" {
		return "", fmt.Errorf("output truncated (done_reason: length): response exceeded output token limit")
	}
	return sb.String(), nil
}

// ListModels returns the models pulled on the server.
func (p *Provider) ListModels(ctx context.Context, credential string) ([]string, error) {
	resp, err := p.clientFor(credential).List(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (p *Provider) clientFor(credential string) *api.Client {
	hc := p.client
	if credential != "" {
		hc = &http.Client{
			Timeout:   p.client.Timeout,
			Transport: bearerTransport{token: credential, next: http.DefaultTransport},
		}
	}
	return api.NewClient(p.base, hc)
}

func wrapError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		baseErr := fmt.Errorf("ollama API error (status %d): %s", statusErr.StatusCode, statusErr.ErrorMessage)
		if statusErr.StatusCode == http.StatusTooManyRequests {
			return completion.NewRateLimitError(providerName, baseErr, 0)
		}
		return baseErr
	}
	return fmt.Errorf("calling ollama API: %w", err)
}

// bearerTransport adds an Authorization header for proxied Ollama servers.
type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (t bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+t.token)
	return t.next.RoundTrip(r)
}
