// Package llm holds the provider-neutral request, response and error types
// shared by LLM providers and their callers.
package llm

import (
	"fmt"
	"time"
)

// Request is a single-shot text generation request.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Timeout      time.Duration
	MaxTokens    int
}

// Usage reports token counts for one provider call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the text produced by a provider call.
type Response struct {
	Text     string
	Model    string
	Provider string
	Usage    *Usage
}

// Error is returned by providers. StatusCode is zero for transport failures.
type Error struct {
	StatusCode int
	Transient  bool
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm error %d: %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("llm error: %s: %v", e.Message, e.Err)
	}
	return "llm error: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatusCode exposes the upstream status for retry classification.
func (e *Error) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// IsTransientStatus reports whether an upstream status is worth retrying.
func IsTransientStatus(code int) bool {
	switch code {
	case 408, 409, 429:
		return true
	}
	return code >= 500 && code <= 599
}
