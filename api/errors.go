// File: api/errors.go
// Package api defines the public contracts of the twitterstream library.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error taxonomy shared by the framing core, the stream client and the
// connection builder. Every terminal stream failure is reported as a
// structured *Error carrying one of the codes below.

package api

import (
	"errors"
	"fmt"
)

// Sentinel conditions that end a stream without being failures.
var (
	// ErrEndOfStream is returned by Stream.Next after the final message of
	// a cleanly terminated stream.
	ErrEndOfStream = fmt.Errorf("end of stream")

	// ErrStreamClosed is returned by Stream.Next once a caller-initiated
	// close has drained all buffered messages.
	ErrStreamClosed = fmt.Errorf("stream is closed")
)

// ErrorCode represents specific failure conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota

	// ErrCodeMalformedLength: a length-prefix header line was not a
	// valid bounded non-negative decimal integer.
	ErrCodeMalformedLength

	// ErrCodeMessageTooLarge: the accumulation buffer exceeded the
	// configured maximum without a delimiter being found.
	ErrCodeMessageTooLarge

	// ErrCodeTruncatedStream: the byte source ended while a non-empty
	// incomplete message remained buffered.
	ErrCodeTruncatedStream

	// ErrCodeKeepAliveTimeout: the server went silent for longer than the
	// configured idle threshold.
	ErrCodeKeepAliveTimeout

	// ErrCodeTransport: opaque passthrough failure from the byte source.
	ErrCodeTransport

	// ErrCodeHTTPStatus: the streaming endpoint answered with a non-200
	// status during connection setup.
	ErrCodeHTTPStatus
)

// String returns the canonical name of the code.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeMalformedLength:
		return "malformed length"
	case ErrCodeMessageTooLarge:
		return "message too large"
	case ErrCodeTruncatedStream:
		return "truncated stream"
	case ErrCodeKeepAliveTimeout:
		return "keep-alive timeout"
	case ErrCodeTransport:
		return "transport error"
	case ErrCodeHTTPStatus:
		return "http status error"
	default:
		return "unknown"
	}
}

// Error represents a structured error with code, cause and context.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithCause attaches the originating error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// IsCode reports whether err is (or wraps) a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
