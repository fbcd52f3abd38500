package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ConfigError is a missing credential or a capability mismatch. It needs
// operator action and is never retried.
type ConfigError struct {
	Provider string
	Msg      string
}

func (e *ConfigError) Error() string { return e.Msg }

// BackendError is a failed call to a provider. StatusCode is zero for
// transport failures.
type BackendError struct {
	Provider   string
	StatusCode int
	Body       string
	RetryAfter time.Duration
	Err        error
}

func (e *BackendError) Error() string {
	name := displayName(e.Provider)
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed (%d): %s", name, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s request failed: %v", name, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Temporary reports whether re-issuing the same request may succeed.
func (e *BackendError) Temporary() bool {
	if errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded) {
		return false
	}
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// EmptyReplyError means the call succeeded but no text could be extracted.
type EmptyReplyError struct {
	Provider string
}

func (e *EmptyReplyError) Error() string {
	return "Model response did not include text output."
}

func newBackendError(provider string, status int, body string, header http.Header, err error) *BackendError {
	return &BackendError{
		Provider:   provider,
		StatusCode: status,
		Body:       strings.TrimSpace(body),
		RetryAfter: parseRetryAfter(header),
		Err:        err,
	}
}

func parseRetryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func displayName(provider string) string {
	switch provider {
	case "openai":
		return "OpenAI"
	case "openrouter":
		return "OpenRouter"
	case "anthropic":
		return "Anthropic"
	case "gemini":
		return "Gemini"
	case "":
		return "LLM"
	}
	return provider
}
