package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"medbrief/internal/completion"
	"medbrief/internal/config"
	"medbrief/internal/domain"
	"medbrief/internal/port"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	providerName   = "openai"
)

// Provider implements port.CompletionProvider against any OpenAI-compatible
// Chat Completions API (Groq, OpenAI, vLLM, ...).
type Provider struct {
	baseURL string
	client  *http.Client
}

// NewProvider creates an OpenAI-compatible provider from a provider config.
func NewProvider(cfg *config.ProviderConfig) *Provider {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return NewProviderWithEndpoint(cfg, base)
}

// NewProviderWithEndpoint creates a provider pointing at a custom base URL (for testing).
func NewProviderWithEndpoint(cfg *config.ProviderConfig, baseURL string) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

// Factory adapts NewProvider to completion.ProviderFactory.
func Factory(cfg *config.ProviderConfig) (port.CompletionProvider, error) {
	return NewProvider(cfg), nil
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Complete(ctx context.Context, call port.CompletionCall) (string, error) {
	reqBody := map[string]interface{}{
		"model":       call.Model,
		"temperature": call.Temperature,
		"messages": []map[string]interface{}{
			{"role": "system", "content": call.Request.SystemInstructions},
			{"role": "user", "content": call.Request.UserPayload},
		},
	}
	if call.MaxTokens > 0 {
		reqBody["max_tokens"] = call.MaxTokens
	}
	if call.Request.ResponseFormat == domain.FormatJSONObject {
		reqBody["response_format"] = map[string]interface{}{"type": "json_object"}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if call.Credential != "" {
		req.Header.Set("Authorization", "Bearer "+call.Credential)
	}

	respBody, err := p.do(req)
	if err != nil {
		return "", err
	}
	return parseResponse(respBody)
}

// ListModels returns the model IDs visible to the credential.
func (p *Provider) ListModels(ctx context.Context, credential string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	respBody, err := p.do(req)
	if err != nil {
		return nil, err
	}

	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &list); err != nil {
		return nil, fmt.Errorf("unmarshaling model list: %w", err)
	}
	ids := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (p *Provider) do(req *http.Request) ([]byte, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling openai API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := completion.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, completion.NewRateLimitError(providerName, baseErr, retryAfter)
		}
		return nil, baseErr
	}
	return respBody, nil
}

// apiResponse models the Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API: no choices")
	}

	if resp.Choices[0].FinishReason == "length" {
		return "", fmt.Errorf("output truncated (finish_reason: length): response exceeded output token limit")
	}

	return resp.Choices[0].Message.Content, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
