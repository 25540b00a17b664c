package source

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a failed acquisition attempt. Every failure leaving
// the pipeline carries exactly one kind; none of them is retried internally.
type ErrorKind string

const (
	// ErrorKindCancelled - the operation was cancelled before or during the
	// network exchange.
	ErrorKindCancelled ErrorKind = "cancelled"
	// ErrorKindUnreachableNetwork - the transport could not reach the
	// endpoint at all.
	ErrorKindUnreachableNetwork ErrorKind = "unreachable_network"
	// ErrorKindRequestFailed - the endpoint was reached but returned a
	// non-success status or a structurally invalid payload.
	ErrorKindRequestFailed ErrorKind = "request_failed"
)

// Error is the typed failure produced by the acquisition pipeline. It always
// carries the originating source kind; StatusCode and CorrelationID are set
// when the service supplied them.
type Error struct {
	Kind          ErrorKind
	Source        Kind
	StatusCode    int
	Message       string
	CorrelationID string
	cause         error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Source, e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.CorrelationID != "" {
		msg += fmt.Sprintf(" (correlation id %s)", e.CorrelationID)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap exposes the originating cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

func newCancelledError(src Kind, cause error) *Error {
	return &Error{Kind: ErrorKindCancelled, Source: src, Message: "authentication cancelled", cause: cause}
}

func newUnreachableError(src Kind, cause error) *Error {
	return &Error{Kind: ErrorKindUnreachableNetwork, Source: src, Message: "managed identity endpoint unreachable", cause: cause}
}

func newRequestFailedError(src Kind, statusCode int, message string) *Error {
	return &Error{Kind: ErrorKindRequestFailed, Source: src, StatusCode: statusCode, Message: message}
}

func kindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsCancelled reports whether err is a cancellation failure.
func IsCancelled(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == ErrorKindCancelled
}

// IsUnreachableNetwork reports whether err is a connectivity failure.
func IsUnreachableNetwork(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == ErrorKindUnreachableNetwork
}

// IsRequestFailed reports whether err is an endpoint-level failure.
func IsRequestFailed(err error) bool {
	kind, ok := kindOf(err)
	return ok && kind == ErrorKindRequestFailed
}
