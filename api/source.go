// File: api/source.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Defines the byte source abstraction consumed by the stream client.
// A source delivers the already-authenticated, already-decompressed
// response body; the core never inspects transport details.

package api

import (
	"context"
	"io"
)

// ByteSource produces the raw chunks of a single streaming connection.
//
// Next returns one chunk per call, blocking until the transport has data.
// It returns io.EOF once the stream has ended cleanly, or the transport's
// own error otherwise; such errors are surfaced to the consumer verbatim.
// At most one Next call is in flight at a time for a given source.
//
// Close releases the underlying connection. It must be safe to call
// concurrently with a blocked Next and must cause it to return.
type ByteSource interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// EndOfSource reports whether a source error means clean termination.
func EndOfSource(err error) bool {
	return err == io.EOF
}
