// File: stream/state.go
// Author: momentics <momentics@gmail.com>
//
// Stream lifecycle states.

package stream

// State enumerates the lifecycle of a Stream.
type State int32

const (
	// StateConnecting: no bytes received yet.
	StateConnecting State = iota

	// StateStreaming: at least one chunk received, messages flowing.
	StateStreaming

	// StateDraining: caller requested close; buffered complete messages
	// are still delivered, no further bytes are requested.
	StateDraining

	// StateClosed: terminal, all buffered messages delivered.
	StateClosed

	// StateFailed: terminal, the stream ended with an error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can occur.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateFailed
}
