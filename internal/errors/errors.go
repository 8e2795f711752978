// Package errors defines the structured error types shared by the SLIM
// codec, execution context, and session responder.
//
// Architecture: NetworkError and WireFormatError carry an Operation
// (what failed) and an optional Err (underlying cause); NetworkError
// adds Details (actionable context). ValidationError carries a Field,
// Value and Message, and ProtocolError a SLIM Cause, Detail and
// optional Err. NetworkError, WireFormatError and ProtocolError
// implement Unwrap so errors.Is/errors.As compose normally;
// ValidationError wraps nothing and has no Unwrap.
package errors

import (
	"fmt"
)

// NetworkError represents a failure on the TCP path a FitNesse test
// runner talks to: listening on the configured port, accepting a
// connection, or reading/writing one of its length-prefixed frames.
// Unlike WireFormatError, the bytes themselves were never at fault —
// the underlying socket operation failed before any SLIM grammar could
// even be applied.
type NetworkError struct {
	// Operation describes what network operation failed (e.g. "accept", "read frame header").
	Operation string

	// Err is the underlying error from the network stack.
	Err error

	// Details provides additional context for troubleshooting (e.g. the listen address).
	Details string
}

func (e *NetworkError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("network error during %s: %v (%s)", e.Operation, e.Err, e.Details)
	}
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid input to a public, pre-connection
// API: a malformed listen address, an out-of-range port, a fixture
// import path that fails a sanity check, a Kind nobody registered a
// Converter for. It never describes anything that arrived over the
// wire — that's WireFormatError's job.
type ValidationError struct {
	// Field identifies which input failed validation (e.g. "port", "converter kind").
	Field string

	// Value is the invalid value, if safe to include.
	Value interface{}

	// Message describes why validation failed.
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// WireFormatError represents a violation of the SLIM list grammar
// itself: '[' N ':' item* ']' with every N a fixed six-digit,
// zero-padded decimal header. A six-digit header isn't all digits, a
// header isn't followed by the ':' separator it must be, a declared
// payload length runs past the bytes actually available, a list is
// missing its closing ']' — these are framing errors, not ordinary Go
// errors, because the only way to recover a session after one is to
// close the connection: once a header can't be trusted, there is no
// way to know where the next list even starts. Header, when non-empty,
// is the raw six-digit field that failed to parse, so the actual
// corrupt bytes show up in the error instead of just an offset.
type WireFormatError struct {
	// Operation names the framing step that failed (e.g. "read header", "read list", "read item").
	Operation string

	// Offset is the byte offset in the frame where the error occurred, or -1 if unknown.
	Offset int

	// Header is the raw six-digit header field that failed to parse, when the
	// failure is in a header rather than elsewhere in the frame.
	Header string

	// Message describes why the wire format is invalid.
	Message string

	// Err is the underlying error, if any.
	Err error
}

func (e *WireFormatError) Error() string {
	location := fmt.Sprintf("during %s", e.Operation)
	if e.Offset >= 0 {
		location = fmt.Sprintf("%s at offset %d", location, e.Offset)
	}
	if e.Header != "" {
		location = fmt.Sprintf("%s (header %q)", location, e.Header)
	}
	if e.Err != nil {
		return fmt.Sprintf("wire format error %s: %s (underlying: %v)", location, e.Message, e.Err)
	}
	return fmt.Sprintf("wire format error %s: %s", location, e.Message)
}

func (e *WireFormatError) Unwrap() error {
	return e.Err
}

// ProtocolError represents a recoverable, per-instruction SLIM failure:
// NO_CLASS, NO_INSTANCE, NO_METHOD_IN_CLASS, COULD_NOT_INVOKE_CONSTRUCTOR,
// INVALID_STATEMENT. Cause is the well-known prefix; Detail is the
// human-readable remainder that ends up inside the `<<...>>` of the
// __EXCEPTION__ result.
type ProtocolError struct {
	// Cause is the well-known SLIM cause prefix (NO_CLASS, NO_INSTANCE, ...).
	Cause string

	// Detail is the rest of the message reported back to the test runner.
	Detail string

	// Abort is true when this failure should stop the remainder of the
	// current instruction batch (the ABORT_SLIM_TEST case).
	Abort bool

	// Err is the underlying error, if the failure originated in fixture code.
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s", e.Cause, e.Detail)
	}
	return e.Cause
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
