// File: stream/keepalive.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Liveness tracking for a single stream. The server sends blank lines
// while idle; any received byte, keep-alive or payload, proves the
// connection is alive. Silence past the configured threshold means the
// connection is dead even though the socket still looks open.

package stream

import (
	"time"

	"github.com/juju/clock"
)

// keepAlive records the arrival time of the most recent byte and
// answers how long the consumer may wait before declaring the
// connection dead. Only the goroutine driving Stream.Next mutates it.
type keepAlive struct {
	clk       clock.Clock
	threshold time.Duration
	last      time.Time
	timer     clock.Timer // single expiry timer, reused across resets
	resets    uint64
}

func newKeepAlive(clk clock.Clock, threshold time.Duration) *keepAlive {
	return &keepAlive{
		clk:       clk,
		threshold: threshold,
		last:      clk.Now(),
	}
}

// enabled reports whether idle detection is active at all.
func (k *keepAlive) enabled() bool { return k.threshold > 0 }

// touch resets the idle window. Called on every chunk arrival,
// including chunks that only carry keep-alive lines. An expiry that
// fired before the reset is drained so it cannot be mistaken for real
// silence on the next wait.
func (k *keepAlive) touch() {
	k.last = k.clk.Now()
	k.resets++
	if k.timer == nil {
		return
	}
	if !k.timer.Stop() {
		select {
		case <-k.timer.Chan():
		default:
		}
	}
	k.timer.Reset(k.threshold)
}

// remaining returns how much of the idle window is left.
func (k *keepAlive) remaining() time.Duration {
	return k.threshold - k.clk.Now().Sub(k.last)
}

// expire returns the channel that fires once the idle window has fully
// elapsed, or nil when idle detection is disabled. The underlying timer
// is created on first use and reused for the life of the stream; touch
// rearms it instead of abandoning it.
func (k *keepAlive) expire() <-chan time.Time {
	if !k.enabled() {
		return nil
	}
	if k.timer == nil {
		d := k.remaining()
		if d < 0 {
			d = 0
		}
		k.timer = k.clk.NewTimer(d)
	}
	return k.timer.Chan()
}

// stop releases the expiry timer once the stream is done with it.
func (k *keepAlive) stop() {
	if k.timer != nil {
		k.timer.Stop()
	}
}

// idle returns how long the connection has been silent.
func (k *keepAlive) idle() time.Duration {
	return k.clk.Now().Sub(k.last)
}
