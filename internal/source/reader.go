// File: internal/source/reader.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Adapts an io.ReadCloser (typically an HTTP response body, already
// decompressed) to the api.ByteSource contract with pooled read
// buffers. Transport errors pass through verbatim; the stream core
// wraps them into its taxonomy.

package source

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/momentics/twitterstream/api"
	"github.com/momentics/twitterstream/pool"
)

// DefaultReadBufferSize is the per-read chunk size.
const DefaultReadBufferSize = 8 * 1024

// Reader is an api.ByteSource over an io.ReadCloser.
type Reader struct {
	rc     io.ReadCloser
	bufs   *pool.BytePool
	sticky error // deferred error from a read that also returned data
	closed atomic.Bool
}

var _ api.ByteSource = (*Reader)(nil)

// NewReader wraps rc. bufSize <= 0 selects DefaultReadBufferSize.
func NewReader(rc io.ReadCloser, bufSize int) *Reader {
	if bufSize <= 0 {
		bufSize = DefaultReadBufferSize
	}
	return &Reader{
		rc:   rc,
		bufs: pool.NewBytePool(bufSize),
	}
}

// Next reads one chunk. The read itself is not interruptible by ctx;
// cancellation is effected by Close, which unblocks the pending Read
// the way net/http response bodies guarantee.
func (r *Reader) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.sticky != nil {
			return nil, r.sticky
		}
		if r.closed.Load() {
			return nil, io.EOF
		}
		buf := r.bufs.GetBuffer()
		n, err := r.rc.Read(buf)
		if n > 0 {
			out := make([]byte, n)
			copy(out, buf[:n])
			r.bufs.PutBuffer(buf)
			if err != nil {
				// Readers may pair final data with io.EOF; deliver
				// the data now and the condition on the next call.
				r.sticky = err
			}
			return out, nil
		}
		r.bufs.PutBuffer(buf)
		if err != nil {
			return nil, err
		}
		// Zero-byte read without error: try again.
	}
}

// Close releases the underlying reader; idempotent.
func (r *Reader) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.rc.Close()
}
