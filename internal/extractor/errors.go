package extractor

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/JaxJericho/josh-2.0-sub000/internal/llm"
)

// Code classifies an extraction failure.
type Code string

const (
	CodeProviderTransient    Code = "provider_transient"
	CodeProviderNonTransient Code = "provider_non_transient"
	CodeTimeout              Code = "timeout"
	CodeInvalidJSON          Code = "invalid_json"
	CodeSchemaInvalid        Code = "schema_invalid"
	CodeGuardrailViolation   Code = "guardrail_violation"
	CodeStepMismatch         Code = "step_mismatch"
	CodeRateLimited          Code = "rate_limited"
	CodeDisabled             Code = "disabled"
)

// Error is the typed failure returned by Extract. Callers fall back to the
// deterministic path on any Error.
type Error struct {
	Code          Code
	Transient     bool
	CorrelationID string
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction %s [%s]: %v", e.Code, e.CorrelationID, e.Err)
	}
	return fmt.Sprintf("extraction %s [%s]", e.Code, e.CorrelationID)
}

func (e *Error) Unwrap() error { return e.Err }

// FallbackReason maps an extraction error onto the reason recorded when the
// deterministic path is used instead.
func FallbackReason(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return string(e.Code)
	}
	return string(CodeProviderNonTransient)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// classify maps a provider failure onto a code and transience. attemptCtx is
// the per-attempt context carrying the timeout.
func classify(attemptCtx context.Context, err error) (Code, bool) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return CodeTimeout, true
	}
	var le *llm.Error
	if errors.As(err, &le) {
		if le.Transient || llm.IsTransientStatus(le.StatusCode) {
			return CodeProviderTransient, true
		}
		return CodeProviderNonTransient, false
	}
	var sc httpStatusCoder
	if errors.As(err, &sc) && sc.HTTPStatusCode() != 0 {
		if llm.IsTransientStatus(sc.HTTPStatusCode()) {
			return CodeProviderTransient, true
		}
		return CodeProviderNonTransient, false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return CodeTimeout, true
		}
		return CodeProviderTransient, true
	}
	return CodeProviderNonTransient, false
}
