package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"medbrief/internal/completion"
	"medbrief/internal/config"
	"medbrief/internal/domain"
	"medbrief/internal/port"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	providerName   = "gemini"
)

// Provider implements port.CompletionProvider using Google's Gemini API.
type Provider struct {
	baseURL string
	client  *http.Client
}

// NewProvider creates a Gemini provider.
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
	genCfg := map[string]interface{}{
		"temperature": call.Temperature,
	}
	if call.MaxTokens > 0 {
		genCfg["maxOutputTokens"] = call.MaxTokens
	}
	if call.Request.ResponseFormat == domain.FormatJSONObject {
		genCfg["responseMimeType"] = "application/json"
	}

	reqBody := map[string]interface{}{
		"systemInstruction": map[string]interface{}{
			"parts": []map[string]interface{}{{"text": call.Request.SystemInstructions}},
		},
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": []map[string]interface{}{{"text": call.Request.UserPayload}},
			},
		},
		"generationConfig": genCfg,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, url.PathEscape(call.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", call.Credential)

	respBody, err := p.do(req)
	if err != nil {
		return "", err
	}
	return parseResponse(respBody)
}

const listPageSize = 1000

// ListModels returns the models that support generateContent for the credential,
// following nextPageToken until the listing is exhausted.
func (p *Provider) ListModels(ctx context.Context, credential string) ([]string, error) {
	var names []string
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("pageSize", fmt.Sprint(listPageSize))
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models?"+q.Encode(), http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("x-goog-api-key", credential)

		respBody, err := p.do(req)
		if err != nil {
			return nil, err
		}

		var page struct {
			Models []struct {
				Name                       string   `json:"name"`
				SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
			} `json:"models"`
			NextPageToken string `json:"nextPageToken"`
		}
		if err := json.Unmarshal(respBody, &page); err != nil {
			return nil, fmt.Errorf("unmarshaling model list: %w", err)
		}

		for _, m := range page.Models {
			for _, method := range m.SupportedGenerationMethods {
				if method == "generateContent" {
					names = append(names, strings.TrimPrefix(m.Name, "models/"))
					break
				}
			}
		}

		if page.NextPageToken == "" || page.NextPageToken == pageToken {
			return names, nil
		}
		pageToken = page.NextPageToken
	}
}

func (p *Provider) do(req *http.Request) ([]byte, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := completion.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, completion.NewRateLimitError(providerName, baseErr, retryAfter)
		}
		return nil, baseErr
	}
	return respBody, nil
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func parseResponse(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("empty response from API: no candidates")
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == "MAX_TOKENS" {
		return "", fmt.Errorf("output truncated (finishReason: MAX_TOKENS): response exceeded output token limit")
	}
	if len(cand.Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from API: no parts")
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
