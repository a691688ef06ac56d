// File: api/message.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Message is one complete delimited unit of the stream: the bytes of a
// single JSON document, exclusive of the delimiter. Messages are copied
// out of the accumulation buffer when the delimiter is found; ownership
// transfers to the caller and the bytes are never mutated afterwards.
// Interpretation of the payload is the caller's concern.
type Message []byte

// Bytes returns the raw payload.
func (m Message) Bytes() []byte { return m }

// String renders the payload as text, for logging and debugging.
func (m Message) String() string { return string(m) }

// Result wraps any payload or error, for channel-shaped delivery.
type Result[T any] struct {
	Value T
	Err   error
}
