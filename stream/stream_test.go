package stream_test

import (
	"errors"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"github.com/momentics/twitterstream/api"
	"github.com/momentics/twitterstream/control"
	"github.com/momentics/twitterstream/core/framing"
	"github.com/momentics/twitterstream/fake"
	"github.com/momentics/twitterstream/stream"
)

// newTestStream builds a stream over a fake source with idle detection
// disabled, which most lifecycle tests want.
func newTestStream(src *fake.ByteSource, mutate func(*stream.Config)) *stream.Stream {
	cfg := stream.DefaultConfig()
	cfg.IdleTimeout = 0
	if mutate != nil {
		mutate(&cfg)
	}
	return stream.New(src, cfg)
}

func mustNext(t *testing.T, st *stream.Stream) api.Message {
	t.Helper()
	msg, err := st.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	return msg
}

func TestMessagesInOrder(t *testing.T) {
	src := fake.NewByteSource()
	src.PushString("{\"a\":1}\r\n{\"b\"")
	src.PushString(":2}\r\n")
	src.PushString("{\"c\":3}\r\n")
	src.End()

	st := newTestStream(src, nil)
	defer st.Close()

	for _, want := range []string{`{"a":1}`, `{"b":2}`, `{"c":3}`} {
		if got := mustNext(t, st); got.String() != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
	if _, err := st.Next(); !errors.Is(err, api.ErrEndOfStream) {
		t.Fatalf("expected end of stream, got %v", err)
	}
	if st.State() != stream.StateClosed {
		t.Errorf("state = %s", st.State())
	}
	if !src.Closed() {
		t.Error("source must be released after a clean end")
	}
}

func TestTerminalConditionRepeats(t *testing.T) {
	src := fake.NewByteSource()
	src.PushString("only\r\n")
	src.End()

	st := newTestStream(src, nil)
	mustNext(t, st)
	for i := 0; i < 3; i++ {
		if _, err := st.Next(); !errors.Is(err, api.ErrEndOfStream) {
			t.Fatalf("call %d: expected end of stream, got %v", i, err)
		}
	}
}

func TestConnectingToStreaming(t *testing.T) {
	src := fake.NewByteSource()
	st := newTestStream(src, nil)
	defer st.Close()

	if st.State() != stream.StateConnecting {
		t.Fatalf("initial state = %s", st.State())
	}
	src.PushString("first\r\n")
	mustNext(t, st)
	if st.State() != stream.StateStreaming {
		t.Errorf("state after first chunk = %s", st.State())
	}
}

func TestKeepAlivesCounted(t *testing.T) {
	src := fake.NewByteSource()
	src.PushString("\r\n")
	src.PushString("\r\n")
	src.PushString("\r\n")
	src.PushString("payload\r\n")

	st := newTestStream(src, nil)
	defer st.Close()

	if got := mustNext(t, st); got.String() != "payload" {
		t.Fatalf("got %q", got)
	}
	if st.KeepAlives() != 3 {
		t.Errorf("keep-alives = %d", st.KeepAlives())
	}
}

func TestIdleTimeout(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	src := fake.NewByteSource()
	st := newTestStream(src, func(cfg *stream.Config) {
		cfg.IdleTimeout = 90 * time.Second
		cfg.Clock = clk
	})

	type result struct {
		err error
	}
	done := make(chan result, 1)
	go func() {
		_, err := st.Next()
		done <- result{err}
	}()

	// The consumer registers exactly one expiry timer; 91 simulated
	// seconds of silence must end the wait with a timeout, not block.
	if err := clk.WaitAdvance(91*time.Second, 5*time.Second, 1); err != nil {
		t.Fatal(err)
	}
	select {
	case r := <-done:
		if !api.IsCode(r.err, api.ErrCodeKeepAliveTimeout) {
			t.Fatalf("expected keep-alive timeout, got %v", r.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Next did not return after simulated silence")
	}
	if st.State() != stream.StateFailed {
		t.Errorf("state = %s", st.State())
	}
	if !src.Closed() {
		t.Error("source must be released on timeout")
	}
}

func TestIdleTimerReusedAcrossChunks(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	src := fake.NewByteSource()
	st := newTestStream(src, func(cfg *stream.Config) {
		cfg.IdleTimeout = 90 * time.Second
		cfg.Clock = clk
	})
	defer st.Close()

	for i := 0; i < 3; i++ {
		src.PushString("tick\r\n")
		mustNext(t, st)
	}
	// Still exactly one registered timer after several chunks: arrivals
	// rearm the expiry timer instead of abandoning it.
	if err := clk.WaitAdvance(91*time.Second, 5*time.Second, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Next(); !api.IsCode(err, api.ErrCodeKeepAliveTimeout) {
		t.Fatalf("expected keep-alive timeout, got %v", err)
	}
}

func TestTransportErrorPassthrough(t *testing.T) {
	boom := errors.New("connection reset")
	src := fake.NewByteSource()
	src.PushString("ok\r\n")
	src.PushError(boom)

	st := newTestStream(src, nil)
	mustNext(t, st)

	_, err := st.Next()
	if !api.IsCode(err, api.ErrCodeTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("transport cause must be surfaced verbatim, got %v", err)
	}
	if st.State() != stream.StateFailed {
		t.Errorf("state = %s", st.State())
	}
}

func TestTruncatedStream(t *testing.T) {
	src := fake.NewByteSource()
	src.PushString("whole\r\npartial")
	src.End()

	st := newTestStream(src, nil)
	mustNext(t, st)

	if _, err := st.Next(); !api.IsCode(err, api.ErrCodeTruncatedStream) {
		t.Fatalf("expected truncated stream, got %v", err)
	}
}

func TestMessageTooLargeSurfaced(t *testing.T) {
	src := fake.NewByteSource()
	src.PushString("fine\r\n" + string(make([]byte, 64)))

	st := newTestStream(src, func(cfg *stream.Config) {
		cfg.MaxMessageSize = 16
	})
	defer st.Close()

	// The message framed before the guard tripped still arrives first.
	if got := mustNext(t, st); got.String() != "fine" {
		t.Fatalf("got %q", got)
	}
	if _, err := st.Next(); !api.IsCode(err, api.ErrCodeMessageTooLarge) {
		t.Fatalf("expected message too large, got %v", err)
	}
}

func TestCloseDrainsBufferedMessages(t *testing.T) {
	src := fake.NewByteSource()
	src.PushString("a\r\nb\r\nc-partial")

	st := newTestStream(src, nil)
	if got := mustNext(t, st); got.String() != "a" {
		t.Fatalf("got %q", got)
	}

	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
	if st.State() != stream.StateDraining {
		t.Fatalf("state after close = %s", st.State())
	}

	// "b" was already complete before cancellation and must arrive.
	if got := mustNext(t, st); got.String() != "b" {
		t.Fatalf("got %q", got)
	}
	if _, err := st.Next(); !errors.Is(err, api.ErrStreamClosed) {
		t.Fatalf("expected stream closed, got %v", err)
	}
	if st.State() != stream.StateClosed {
		t.Errorf("state = %s", st.State())
	}
	if !src.Closed() {
		t.Error("source must be released on close")
	}
}

func TestCloseWaitsForPumpExit(t *testing.T) {
	src := fake.NewByteSource()
	st := newTestStream(src, nil)

	// Close returns only after the pump goroutine has terminated, even
	// when it was suspended mid-read; the source is closed exactly once
	// and nothing of the stream touches it afterwards.
	done := make(chan struct{})
	go func() {
		st.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return while the source was suspended")
	}
	if got := src.CloseCalls(); got != 1 {
		t.Errorf("close calls = %d", got)
	}
}

func TestCloseIdempotent(t *testing.T) {
	src := fake.NewByteSource()
	st := newTestStream(src, nil)
	for i := 0; i < 3; i++ {
		if err := st.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := st.Next(); !errors.Is(err, api.ErrStreamClosed) {
		t.Fatalf("expected stream closed, got %v", err)
	}
}

func TestLengthPrefixedStream(t *testing.T) {
	src := fake.NewByteSource()
	src.PushString("5\r\nhello\r\n")
	src.End()

	st := newTestStream(src, func(cfg *stream.Config) {
		cfg.Framing = framing.LengthPrefixed
	})
	if got := mustNext(t, st); got.String() != "hello" {
		t.Fatalf("got %q", got)
	}
	if _, err := st.Next(); !errors.Is(err, api.ErrEndOfStream) {
		t.Fatalf("expected end of stream, got %v", err)
	}
}

func TestMetricsWiring(t *testing.T) {
	metrics := control.NewMetrics()
	src := fake.NewByteSource()
	src.PushString("\r\nmsg1\r\nmsg2\r\n")
	src.End()

	st := newTestStream(src, func(cfg *stream.Config) {
		cfg.Metrics = metrics
	})
	mustNext(t, st)
	mustNext(t, st)
	if _, err := st.Next(); !errors.Is(err, api.ErrEndOfStream) {
		t.Fatalf("expected end of stream, got %v", err)
	}

	if got := metrics.Counter("messages_emitted"); got != 2 {
		t.Errorf("messages_emitted = %d", got)
	}
	snap := metrics.GetSnapshot()
	if snap["keepalives_observed"] != uint64(1) {
		t.Errorf("keepalives_observed = %v", snap["keepalives_observed"])
	}
	if snap["state"] != "closed" {
		t.Errorf("state gauge = %v", snap["state"])
	}
}
