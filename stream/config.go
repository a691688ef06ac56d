// File: stream/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"time"

	"github.com/juju/clock"

	"github.com/momentics/twitterstream/control"
	"github.com/momentics/twitterstream/core/framing"
)

// Config holds all configurable parameters for one stream. Immutable
// once the stream is constructed.
type Config struct {
	Framing        framing.Mode     // boundary rule negotiated with the server
	IdleTimeout    time.Duration    // treat silence beyond this as connection death (0 = disabled)
	MaxMessageSize int              // buffer growth guard for line framing
	Clock          clock.Clock      // time source; nil selects the wall clock
	Metrics        *control.Metrics // optional per-stream counters
}

// DefaultConfig returns default configuration values.
//
// The 90 second idle window matches the cadence of the server's blank
// keep-alive lines with margin; 1 MiB comfortably exceeds any real
// message on this API. Both are deliberate defaults, overridable.
func DefaultConfig() Config {
	return Config{
		Framing:        framing.LineDelimited,
		IdleTimeout:    90 * time.Second,
		MaxMessageSize: framing.DefaultMaxMessageSize,
	}
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = clock.WallClock
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = framing.DefaultMaxMessageSize
	}
	return c
}
