package extractor_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ledgerflow/internal/extractor"
)

func TestTransientError_DefaultsRetryAfter(t *testing.T) {
	err := extractor.NewTransientError("gemini", errors.New("503"), 0)
	assert.Equal(t, 60*time.Second, err.RetryAfter)

	err = extractor.NewTransientError("gemini", errors.New("429"), 30)
	assert.Equal(t, 30*time.Second, err.RetryAfter)
}

func TestTransientError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := extractor.NewTransientError("claude", cause, 10)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "claude")
	assert.Contains(t, err.Error(), "10s")
}

func TestIsTransient(t *testing.T) {
	tr := extractor.NewTransientError("gemini", errors.New("overloaded"), 5)

	assert.True(t, extractor.IsTransient(tr))
	assert.True(t, extractor.IsTransient(fmt.Errorf("parsing batch: %w", tr)))
	assert.False(t, extractor.IsTransient(errors.New("bad payload")))
	assert.False(t, extractor.IsTransient(nil))
}

func TestIsTransientStatus(t *testing.T) {
	assert.True(t, extractor.IsTransientStatus(http.StatusTooManyRequests))
	assert.True(t, extractor.IsTransientStatus(http.StatusInternalServerError))
	assert.True(t, extractor.IsTransientStatus(http.StatusBadGateway))
	assert.True(t, extractor.IsTransientStatus(http.StatusServiceUnavailable))
	assert.True(t, extractor.IsTransientStatus(http.StatusGatewayTimeout))

	assert.False(t, extractor.IsTransientStatus(http.StatusOK))
	assert.False(t, extractor.IsTransientStatus(http.StatusBadRequest))
	assert.False(t, extractor.IsTransientStatus(http.StatusUnauthorized))
	assert.False(t, extractor.IsTransientStatus(http.StatusNotFound))
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 0, extractor.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, extractor.ParseRetryAfterHeader("soon"))
	assert.Equal(t, 0, extractor.ParseRetryAfterHeader("Wed, 21 Oct 2026 07:28:00 GMT"))
	assert.Equal(t, 42, extractor.ParseRetryAfterHeader("42"))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractor.StripCodeFence(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, extractor.StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractor.StripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractor.StripCodeFence("  {\"a\":1}  "))
}
