package restep

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	CodeInvalidArgument   ErrorCode = "invalid_argument"
	CodeUnauthenticated   ErrorCode = "unauthenticated"
	CodePermissionDenied  ErrorCode = "permission_denied"
	CodeNotFound          ErrorCode = "not_found"
	CodeMethodNotAllowed  ErrorCode = "method_not_allowed"
	CodeConflict          ErrorCode = "conflict"
	CodeGone              ErrorCode = "gone"
	CodeResourceExhausted ErrorCode = "resource_exhausted"
	CodeCanceled          ErrorCode = "canceled"
	CodeInternal          ErrorCode = "internal"
	CodeNotImplemented    ErrorCode = "not_implemented"
	CodeUnavailable       ErrorCode = "unavailable"
	CodeDeadlineExceeded  ErrorCode = "deadline_exceeded"
	CodeTransport         ErrorCode = "transport"
	CodeUnknown           ErrorCode = "unknown"
)

// Error is a classified failure, produced by StatusErrors for non-2xx
// responses.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new classified error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new classified error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail returns a new Error with the key-value pair added to details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// ValidationError reports an argument that failed its declared validator.
// It is returned before any request is assembled or dispatched.
type ValidationError struct {
	Endpoint    string
	Argument    string
	Value       any
	Description string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Endpoint != "" {
		b.WriteString(e.Endpoint)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "argument %q: value %#v failed validation", e.Argument, e.Value)
	if e.Description != "" {
		b.WriteString(": ")
		b.WriteString(e.Description)
	}
	return b.String()
}

// ArityError reports a call with the wrong number of argument values.
type ArityError struct {
	Endpoint string
	Want     int
	Got      int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: expected %d argument(s), got %d", e.Endpoint, e.Want, e.Got)
}

// CompileError reports an endpoint definition that cannot be compiled.
type CompileError struct {
	Endpoint string
	Message  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("restep: endpoint %q: %s", e.Endpoint, e.Message)
}

func compileErrorf(endpoint, format string, args ...any) *CompileError {
	return &CompileError{Endpoint: endpoint, Message: fmt.Sprintf(format, args...)}
}

// StepError wraps an error returned by a pipeline step.
type StepError struct {
	Endpoint string
	Step     Step
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s step: %v", e.Endpoint, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// TransportError wraps a transport failure. It only appears once
// NormalizeResponse has run; otherwise transport errors are returned as-is.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CodeOf classifies err. It returns "" for a nil error.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified.Code
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return CodeInvalidArgument
	}

	var arityErr *ArityError
	if errors.As(err, &arityErr) {
		return CodeInvalidArgument
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CodeDeadlineExceeded
	}

	if errors.Is(err, context.Canceled) {
		return CodeCanceled
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return CodeTransport
	}

	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return CodeInternal
	}

	return CodeUnknown
}

// CodeForStatus maps an HTTP status code to an ErrorCode.
// Statuses below 400 map to "".
func CodeForStatus(status int) ErrorCode {
	switch {
	case status < 400:
		return ""
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return CodeInvalidArgument
	case status == http.StatusUnauthorized:
		return CodeUnauthenticated
	case status == http.StatusForbidden:
		return CodePermissionDenied
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusMethodNotAllowed:
		return CodeMethodNotAllowed
	case status == http.StatusConflict:
		return CodeConflict
	case status == http.StatusGone:
		return CodeGone
	case status == http.StatusTooManyRequests:
		return CodeResourceExhausted
	case status == 499:
		return CodeCanceled
	case status == http.StatusNotImplemented:
		return CodeNotImplemented
	case status == http.StatusServiceUnavailable, status == http.StatusBadGateway:
		return CodeUnavailable
	case status == http.StatusGatewayTimeout:
		return CodeDeadlineExceeded
	case status >= 500:
		return CodeInternal
	default:
		return CodeUnknown
	}
}
