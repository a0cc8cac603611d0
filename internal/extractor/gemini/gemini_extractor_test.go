package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerflow/internal/config"
	"ledgerflow/internal/domain"
	"ledgerflow/internal/extractor"
	"ledgerflow/internal/extractor/gemini"
	"ledgerflow/internal/port"
)

func testConfig() *config.ExtractorProviderConfig {
	return &config.ExtractorProviderConfig{
		Provider:     "gemini",
		APIKey:       "test-key",
		DefaultModel: "gemini-2.0-flash",
		TimeoutSecs:  5,
	}
}

func geminiBody(text string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	})
	return string(body)
}

func TestGeminiExtractor_Success(t *testing.T) {
	payload := `{"header":{"invoice_number":"INV-1"},"line_items":[],"raw_text":"text"}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req, "contents")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(geminiBody(payload)))
	}))
	defer server.Close()

	e := gemini.NewExtractorWithEndpoint(testConfig(), server.URL)
	out, err := e.Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("%PDF-1.4"),
		ContentType: "application/pdf",
		Kind:        domain.ImportKindInvoice,
	})

	require.NoError(t, err)
	assert.JSONEq(t, payload, string(out.Data))
	assert.Equal(t, "gemini-2.0-flash", out.ModelUsed)
}

func TestGeminiExtractor_StripsCodeFence(t *testing.T) {
	payload := "```json\n{\"header\":{}}\n```"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(geminiBody(payload)))
	}))
	defer server.Close()

	e := gemini.NewExtractorWithEndpoint(testConfig(), server.URL)
	out, err := e.Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("%PDF-1.4"),
		ContentType: "application/pdf",
		Kind:        domain.ImportKindInvoice,
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"header":{}}`, string(out.Data))
}

func TestGeminiExtractor_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"quota exceeded"}`))
	}))
	defer server.Close()

	e := gemini.NewExtractorWithEndpoint(testConfig(), server.URL)
	out, err := e.Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("%PDF-1.4"),
		ContentType: "application/pdf",
		Kind:        domain.ImportKindInvoice,
	})

	assert.Nil(t, out)
	require.Error(t, err)

	var trErr *extractor.TransientError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, "gemini", trErr.Provider)
	assert.Equal(t, float64(17), trErr.RetryAfter.Seconds())
}

func TestGeminiExtractor_BadRequestIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid argument"}`))
	}))
	defer server.Close()

	e := gemini.NewExtractorWithEndpoint(testConfig(), server.URL)
	_, err := e.Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("%PDF-1.4"),
		ContentType: "application/pdf",
		Kind:        domain.ImportKindInvoice,
	})

	require.Error(t, err)
	assert.False(t, extractor.IsTransient(err))
}

func TestGeminiExtractor_InvalidModelOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(geminiBody("not json at all")))
	}))
	defer server.Close()

	e := gemini.NewExtractorWithEndpoint(testConfig(), server.URL)
	_, err := e.Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("%PDF-1.4"),
		ContentType: "application/pdf",
		Kind:        domain.ImportKindInvoice,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestGeminiExtractor_UnsupportedContentType(t *testing.T) {
	e := gemini.NewExtractorWithEndpoint(testConfig(), "http://localhost:0")
	_, err := e.Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("GIF89a"),
		ContentType: "image/gif",
		Kind:        domain.ImportKindInvoice,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}
