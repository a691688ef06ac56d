// File: stream/stream.go
// Package stream implements the pull-based streaming-API client core.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Stream owns exactly one byte source, one framer and one keep-alive
// monitor. A single reader pump requests chunks from the source and
// hands them to the consumer over an unbuffered channel; all framing
// and liveness state is mutated only on the goroutine driving Next, so
// the core needs no locks. Messages are delivered in exact receipt
// order. Errors are terminal: the sequence yields the error once as its
// final element and every later Next repeats it.

package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/juju/loggo/v2"

	"github.com/momentics/twitterstream/api"
	"github.com/momentics/twitterstream/core/framing"
)

var logger = loggo.GetLogger("twitterstream.stream")

// chunk is one hand-off from the reader pump to the consumer.
type chunk struct {
	data []byte
	err  error
}

// Stream is a lazy, single-pass, non-restartable sequence of messages.
// Next must be driven from one goroutine at a time; Close and State are
// safe from any goroutine.
type Stream struct {
	cfg    Config
	src    api.ByteSource
	framer *framing.Framer
	ka     *keepAlive

	chunks   chan chunk
	stop     chan struct{}
	stopOnce sync.Once
	pumpDone chan struct{} // closed when the pump exits; Close waits on it

	state   atomic.Int32
	pending *queue.Queue // framed messages awaiting pull
	result  error        // terminal condition, consumer goroutine only
}

// New starts a stream over the given byte source. The source must be
// exclusively owned by the stream from this point on; it is closed on
// every exit path, including failure and early Close.
func New(src api.ByteSource, cfg Config) *Stream {
	cfg = cfg.withDefaults()
	s := &Stream{
		cfg:      cfg,
		src:      src,
		framer:   framing.NewFramer(cfg.Framing, cfg.MaxMessageSize),
		ka:       newKeepAlive(cfg.Clock, cfg.IdleTimeout),
		chunks:   make(chan chunk), // unbuffered: one chunk in flight, ever
		stop:     make(chan struct{}),
		pumpDone: make(chan struct{}),
		pending:  queue.New(),
	}
	s.state.Store(int32(StateConnecting))
	go s.pump()
	return s
}

// State returns the current lifecycle state.
func (s *Stream) State() State {
	return State(s.state.Load())
}

// Next blocks until the next complete message is available and returns
// it. It returns api.ErrEndOfStream after a clean server-side end,
// api.ErrStreamClosed after a caller-initiated close has drained, and a
// structured *api.Error for every failure in the taxonomy. Once a
// terminal condition has been returned it is returned again on every
// subsequent call.
func (s *Stream) Next() (api.Message, error) {
	for {
		if s.pending.Length() > 0 {
			return s.pending.Remove().(api.Message), nil
		}

		switch s.State() {
		case StateFailed, StateClosed:
			return nil, s.result
		case StateDraining:
			// No further bytes are requested; buffer is exhausted.
			s.result = api.ErrStreamClosed
			s.setState(StateClosed)
			return nil, s.result
		}

		select {
		case c := <-s.chunks:
			if s.State() == StateDraining {
				// Close raced with an in-flight read; drop the chunk.
				continue
			}
			s.ka.touch()
			if c.err != nil {
				s.endOfSource(c.err)
				continue
			}
			if s.State() == StateConnecting {
				s.setState(StateStreaming)
			}
			s.ingest(c.data)
			continue

		case <-s.ka.expire():
			// Only this goroutine resets the timer, so expiry is real.
			s.fail(api.NewError(api.ErrCodeKeepAliveTimeout, "connection timed out").
				WithContext("idle", s.ka.idle().String()).
				WithContext("threshold", s.ka.threshold.String()))
			continue

		case <-s.stop:
			// Close raced with our wait; loop to observe Draining.
			continue
		}
	}
}

// Close requests cancellation. Already-framed messages are still
// yielded by Next; no further bytes are requested from the source.
// It does not return until the reader pump has terminated, so on
// return the source is released and no goroutine of this stream still
// touches it. Safe to call from any goroutine, idempotent.
func (s *Stream) Close() error {
	// Transition first so a consumer woken by the stop channel already
	// observes Draining.
	for {
		st := s.State()
		if st.Terminal() || st == StateDraining {
			break
		}
		if s.state.CompareAndSwap(int32(st), int32(StateDraining)) {
			logger.Debugf("stream draining (was %s)", st)
			break
		}
	}
	s.shutdown()
	<-s.pumpDone
	return nil
}

// KeepAlives reports how many blank keep-alive lines were discarded.
// Call from the consuming goroutine.
func (s *Stream) KeepAlives() uint64 { return s.framer.KeepAlives() }

// ingest pushes one chunk through the framer and queues its messages.
func (s *Stream) ingest(data []byte) {
	msgs, err := s.framer.Push(data)
	for _, m := range msgs {
		s.pending.Add(m)
	}
	if mr := s.cfg.Metrics; mr != nil {
		mr.Inc("bytes_received", int64(len(data)))
		mr.Inc("messages_emitted", int64(len(msgs)))
		mr.Set("keepalives_observed", s.framer.KeepAlives())
		mr.Set("bytes_buffered", int64(s.framer.Buffered()))
	}
	if err != nil {
		// Messages framed before the failure stay queued and are
		// delivered ahead of the error.
		s.fail(err)
	}
}

// endOfSource handles a terminal result from the byte source.
func (s *Stream) endOfSource(err error) {
	if !api.EndOfSource(err) {
		s.fail(api.NewError(api.ErrCodeTransport, "byte source failed").WithCause(err))
		return
	}
	if ferr := s.framer.Finish(); ferr != nil {
		s.fail(ferr)
		return
	}
	logger.Debugf("stream ended cleanly after %d messages", s.framer.Messages())
	s.result = api.ErrEndOfStream
	s.setState(StateClosed)
	s.shutdown()
}

// fail records the terminal error and releases the source.
func (s *Stream) fail(err error) {
	logger.Debugf("stream failed: %v", err)
	s.result = err
	s.setState(StateFailed)
	if mr := s.cfg.Metrics; mr != nil {
		mr.Inc("stream_failures", 1)
	}
	s.shutdown()
}

// setState runs on the consumer goroutine only, which keeps the timer
// release free of races with touch and expire.
func (s *Stream) setState(st State) {
	s.state.Store(int32(st))
	if st.Terminal() {
		s.ka.stop()
	}
	if mr := s.cfg.Metrics; mr != nil {
		mr.Set("state", st.String())
	}
}

// shutdown stops the pump and closes the source exactly once.
func (s *Stream) shutdown() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if err := s.src.Close(); err != nil {
			logger.Tracef("closing byte source: %v", err)
		}
	})
}

// pump is the single reader: one outstanding request against the
// source at any time, results handed off synchronously.
func (s *Stream) pump() {
	defer close(s.pumpDone)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stop
		cancel()
	}()

	for {
		data, err := s.src.Next(ctx)
		select {
		case s.chunks <- chunk{data: data, err: err}:
			if err != nil {
				return
			}
		case <-s.stop:
			return
		}
	}
}
