package extractor

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// TransientError indicates the extraction provider was overloaded or
// unavailable (HTTP 429/5xx). Callers treat it as retryable; every other
// provider error is fatal for the attempt.
type TransientError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s temporarily unavailable (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError creates a TransientError. If retryAfterSecs is 0,
// defaults to 60s.
func NewTransientError(provider string, err error, retryAfterSecs int) *TransientError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &TransientError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// IsTransient reports whether any error in the chain is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsTransientStatus reports whether an HTTP status from a provider indicates
// transient unavailability rather than a permanent failure.
func IsTransientStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}
