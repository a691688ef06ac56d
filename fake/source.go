// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the byte source
// contract: scripted chunks, injectable errors, and natural suspension
// when the script runs dry.

package fake

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/momentics/twitterstream/api"
)

// ByteSource is a fake implementation of api.ByteSource for testing.
// Steps are consumed in order; when none are queued, Next suspends
// exactly like a silent connection would.
type ByteSource struct {
	steps      chan api.Result[[]byte]
	closed     atomic.Bool
	closeErr   error
	closeCount atomic.Int64
	mu         sync.Mutex
}

// NewByteSource creates a fake source with room for 64 scripted steps.
func NewByteSource() *ByteSource {
	return &ByteSource{
		steps: make(chan api.Result[[]byte], 64),
	}
}

// Push queues one chunk for delivery. The bytes are copied.
func (s *ByteSource) Push(data []byte) {
	c := make([]byte, len(data))
	copy(c, data)
	s.steps <- api.Result[[]byte]{Value: c}
}

// PushString queues a chunk given as text.
func (s *ByteSource) PushString(data string) {
	s.steps <- api.Result[[]byte]{Value: []byte(data)}
}

// PushError queues a transport failure.
func (s *ByteSource) PushError(err error) {
	s.steps <- api.Result[[]byte]{Err: err}
}

// End queues a clean end-of-stream.
func (s *ByteSource) End() {
	s.steps <- api.Result[[]byte]{Err: io.EOF}
}

// Next implements api.ByteSource.Next.
func (s *ByteSource) Next(ctx context.Context) ([]byte, error) {
	select {
	case step := <-s.steps:
		return step.Value, step.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close implements api.ByteSource.Close; idempotent count is recorded.
func (s *ByteSource) Close() error {
	s.closed.Store(true)
	s.closeCount.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeErr
}

// SetCloseError configures the error returned by Close.
func (s *ByteSource) SetCloseError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeErr = err
}

// Closed reports whether Close has been called.
func (s *ByteSource) Closed() bool { return s.closed.Load() }

// CloseCalls returns how many times Close was invoked.
func (s *ByteSource) CloseCalls() int64 { return s.closeCount.Load() }
