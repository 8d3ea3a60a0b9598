package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbrief/internal/completion"
	"medbrief/internal/completion/gemini"
	"medbrief/internal/config"
	"medbrief/internal/domain"
	"medbrief/internal/port"
)

func newTestProvider(serverURL string) *gemini.Provider {
	return gemini.NewProviderWithEndpoint(&config.ProviderConfig{Name: "gemini", TimeoutSecs: 5}, serverURL)
}

func testCall() port.CompletionCall {
	return port.CompletionCall{
		Credential: "AIza-test",
		Model:      "gemini-2.0-flash",
		Request: domain.CompletionRequest{
			SystemInstructions: "be factual",
			UserPayload:        "[Chunk ID: P1-C1]",
			ResponseFormat:     domain.FormatJSONObject,
		},
		MaxTokens: 2048,
	}
}

func geminiResponse(parts ...string) map[string]interface{} {
	ps := make([]map[string]interface{}, 0, len(parts))
	for _, p := range parts {
		ps = append(ps, map[string]interface{}{"text": p})
	}
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content":      map[string]interface{}{"role": "model", "parts": ps},
				"finishReason": "STOP",
			},
		},
	}
}

func TestProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "AIza-test", r.Header.Get("x-goog-api-key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		sys := body["systemInstruction"].(map[string]interface{})
		sysParts := sys["parts"].([]interface{})
		assert.Equal(t, "be factual", sysParts[0].(map[string]interface{})["text"])

		genCfg := body["generationConfig"].(map[string]interface{})
		assert.Equal(t, "application/json", genCfg["responseMimeType"])
		assert.Equal(t, float64(2048), genCfg["maxOutputTokens"])
		assert.Equal(t, float64(0), genCfg["temperature"])

		_ = json.NewEncoder(w).Encode(geminiResponse(`{"summary":`, `"ok"}`))
	}))
	defer server.Close()

	text, err := newTestProvider(server.URL).Complete(context.Background(), testCall())

	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, text)
}

func TestProvider_Complete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Complete(context.Background(), testCall())

	var rl *completion.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, "gemini", rl.Provider)
	assert.Contains(t, err.Error(), "RESOURCE_EXHAUSTED")
}

func TestProvider_Complete_NotFoundModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"model not found"}}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Complete(context.Background(), testCall())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestProvider_Complete_Blocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Complete(context.Background(), testCall())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestProvider_Complete_MaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{"}]},"finishReason":"MAX_TOKENS"}]}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Complete(context.Background(), testCall())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestProvider_Complete_NoParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Complete(context.Background(), testCall())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no parts")
}

func TestProvider_ListModels_FiltersGenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[
			{"name":"models/gemini-2.0-flash","supportedGenerationMethods":["generateContent","countTokens"]},
			{"name":"models/text-embedding-004","supportedGenerationMethods":["embedContent"]}
		]}`))
	}))
	defer server.Close()

	models, err := newTestProvider(server.URL).ListModels(context.Background(), "AIza-test")

	require.NoError(t, err)
	assert.Equal(t, []string{"gemini-2.0-flash"}, models)
}

func TestProvider_ListModels_FollowsPageToken(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "1000", r.URL.Query().Get("pageSize"))
		switch r.URL.Query().Get("pageToken") {
		case "":
			_, _ = w.Write([]byte(`{"models":[
				{"name":"models/gemini-2.0-flash","supportedGenerationMethods":["generateContent"]}
			],"nextPageToken":"page-2"}`))
		case "page-2":
			_, _ = w.Write([]byte(`{"models":[
				{"name":"models/gemini-1.5-pro","supportedGenerationMethods":["generateContent"]}
			]}`))
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("pageToken"))
		}
	}))
	defer server.Close()

	models, err := newTestProvider(server.URL).ListModels(context.Background(), "AIza-test")

	require.NoError(t, err)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-pro"}, models)
	assert.Equal(t, 2, calls)
}

func TestProvider_ListModels_SecondPageError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"models":[],"nextPageToken":"page-2"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).ListModels(context.Background(), "AIza-test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
