// File: core/framing/framer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stateful message framer. Owns the accumulation buffer, invokes the
// delimiter scanner as chunks arrive and emits complete messages in
// receipt order. The emitted messages, re-joined with delimiters,
// reconstruct the exact byte stream pushed in, minus discarded
// keep-alive lines and undelivered trailing partial data.

package framing

import (
	"github.com/momentics/twitterstream/api"
)

// Framer turns arbitrarily chunked bytes into complete messages.
// Not safe for concurrent use; one framer serves exactly one stream.
type Framer struct {
	mode Mode
	max  int

	buf     []byte
	scanned int // resume offset for the delimiter scan
	need    int // LengthPrefixed: body bytes awaited, -1 = awaiting header

	keepAlives uint64
	messages   uint64
}

// NewFramer constructs a framer for the given mode. maxMessageSize
// bounds buffer growth; values <= 0 select DefaultMaxMessageSize.
func NewFramer(mode Mode, maxMessageSize int) *Framer {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	return &Framer{
		mode: mode,
		max:  maxMessageSize,
		need: -1,
	}
}

// Mode returns the framing mode this framer was built with.
func (f *Framer) Mode() Mode { return f.mode }

// Buffered returns the number of accumulated bytes not yet emitted.
func (f *Framer) Buffered() int { return len(f.buf) }

// KeepAlives returns how many blank keep-alive lines were discarded.
func (f *Framer) KeepAlives() uint64 { return f.keepAlives }

// Messages returns how many complete messages were emitted so far.
func (f *Framer) Messages() uint64 { return f.messages }

// Push appends a chunk to the accumulation buffer and emits every
// complete message it now contains, in order. A returned error is
// terminal for the framer; messages emitted alongside it were framed
// before the failure and are still valid.
func (f *Framer) Push(chunk []byte) ([]api.Message, error) {
	f.buf = append(f.buf, chunk...)
	if f.mode == LengthPrefixed {
		return f.drainLengthPrefixed()
	}
	return f.drainLines()
}

// Finish signals end-of-stream. Non-empty trailing data that does not
// form a complete message is a truncation.
func (f *Framer) Finish() error {
	if len(f.buf) == 0 && f.need < 0 {
		return nil
	}
	return api.NewError(api.ErrCodeTruncatedStream, "stream ended mid-message").
		WithContext("buffered", len(f.buf))
}

func (f *Framer) drainLines() ([]api.Message, error) {
	var out []api.Message
	for {
		i := IndexDelimiter(f.buf, f.scanned)
		if i < 0 {
			f.scanned = ResumeOffset(len(f.buf))
			if f.partialLen() > f.max {
				return out, api.NewError(api.ErrCodeMessageTooLarge, "message exceeds maximum buffered size").
					WithContext("buffered", len(f.buf)).
					WithContext("max", f.max)
			}
			return out, nil
		}
		if i == 0 {
			// Blank line: keep-alive, consumed but never emitted.
			f.keepAlives++
			f.consume(DelimiterLen)
			continue
		}
		if i > f.max {
			return out, api.NewError(api.ErrCodeMessageTooLarge, "message exceeds maximum buffered size").
				WithContext("length", i).
				WithContext("max", f.max)
		}
		out = append(out, f.take(i, DelimiterLen))
	}
}

func (f *Framer) drainLengthPrefixed() ([]api.Message, error) {
	var out []api.Message
	for {
		if f.need < 0 {
			i := IndexDelimiter(f.buf, f.scanned)
			if i < 0 {
				f.scanned = ResumeOffset(len(f.buf))
				// A header cannot outgrow its digit cap, though its
				// closing CR may still be awaiting the LF.
				if f.partialLen() > maxLengthDigits {
					return out, api.NewError(api.ErrCodeMalformedLength, "unterminated length header").
						WithContext("buffered", len(f.buf))
				}
				return out, nil
			}
			if i == 0 {
				f.keepAlives++
				f.consume(DelimiterLen)
				continue
			}
			n, err := ParseLengthHeader(f.buf[:i], f.max)
			if err != nil {
				return out, err
			}
			f.consume(i + DelimiterLen)
			if n == 0 {
				// Zero-length body carries no payload; treat like a
				// keep-alive rather than emitting an empty message.
				f.keepAlives++
				continue
			}
			f.need = n
		}
		if len(f.buf) < f.need {
			return out, nil
		}
		n := f.need
		f.need = -1
		out = append(out, f.take(n, 0))
	}
}

// partialLen returns the length of the unterminated leading line, not
// counting a trailing CR that may be the first half of a delimiter
// still in flight. Guards compare against this so that the placement
// of chunk boundaries never changes whether they fire.
func (f *Framer) partialLen() int {
	n := len(f.buf)
	if n > 0 && f.buf[n-1] == '\r' {
		n--
	}
	return n
}

// take copies the first n buffered bytes out as a message and consumes
// them plus trailing delimiter bytes.
func (f *Framer) take(n, delim int) api.Message {
	msg := make([]byte, n)
	copy(msg, f.buf[:n])
	f.consume(n + delim)
	f.messages++
	return api.Message(msg)
}

// consume drops the first n bytes and rewinds the scan offset; the
// retained suffix has not been searched yet.
func (f *Framer) consume(n int) {
	f.buf = f.buf[:copy(f.buf, f.buf[n:])]
	f.scanned = 0
}
