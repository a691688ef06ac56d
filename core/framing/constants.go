// File: core/framing/constants.go
// Author: momentics <momentics@gmail.com>
//
// Wire format constants for streaming-API message framing.

package framing

// Mode selects the boundary rule negotiated with the server.
type Mode int

const (
	// LineDelimited frames each message as one CRLF-terminated line.
	// A zero-length line is a keep-alive and is never emitted.
	LineDelimited Mode = iota

	// LengthPrefixed frames each message with an ASCII decimal byte
	// count on its own line, followed by exactly that many payload
	// bytes. Delimiter bytes embedded in the payload are not special.
	LengthPrefixed
)

func (m Mode) String() string {
	switch m {
	case LineDelimited:
		return "line-delimited"
	case LengthPrefixed:
		return "length-prefixed"
	default:
		return "unknown"
	}
}

const (
	// DefaultMaxMessageSize bounds how far the accumulation buffer may
	// grow without a boundary being found. Protects against a hostile
	// or misbehaving server sending an endless line.
	DefaultMaxMessageSize = 1 << 20 // 1 MiB

	// maxLengthDigits caps the length-prefix header. Eight decimal
	// digits admit payloads up to ~100 MB before the configured size
	// limit applies, and reject absurd headers outright.
	maxLengthDigits = 8
)

// delimiter separates header lines and line-delimited messages.
var delimiter = []byte{'\r', '\n'}

// DelimiterLen is the width of the CRLF boundary.
const DelimiterLen = 2
