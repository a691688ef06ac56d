// File: core/framing/scanner.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pure delimiter scanning. The Framer calls these on its accumulation
// buffer; they hold no state of their own. Resumability is expressed
// through the `from` offset so that repeated scans of a growing buffer
// stay linear in the total number of bytes received.

package framing

import (
	"bytes"

	"github.com/momentics/twitterstream/api"
)

// IndexDelimiter returns the offset of the first CRLF at or after from,
// or -1 when the buffer holds no complete delimiter yet. Callers resume
// with from = len(buf)-1 after a miss so a CR waiting for its LF on the
// next chunk is re-examined exactly once.
func IndexDelimiter(buf []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(buf) {
		return -1
	}
	i := bytes.Index(buf[from:], delimiter)
	if i < 0 {
		return -1
	}
	return from + i
}

// ResumeOffset returns the scan offset to carry into the next call after
// IndexDelimiter reported a miss on a buffer of length n.
func ResumeOffset(n int) int {
	if n == 0 {
		return 0
	}
	return n - 1
}

// ParseLengthHeader interprets one header line of the length-prefixed
// format. The line must be a plain non-negative ASCII decimal integer of
// bounded width whose value does not exceed max.
func ParseLengthHeader(line []byte, max int) (int, error) {
	if len(line) == 0 || len(line) > maxLengthDigits {
		return 0, api.NewError(api.ErrCodeMalformedLength, "invalid length header").
			WithContext("header", string(line))
	}
	n := 0
	for _, c := range line {
		if c < '0' || c > '9' {
			return 0, api.NewError(api.ErrCodeMalformedLength, "invalid length header").
				WithContext("header", string(line))
		}
		n = n*10 + int(c-'0')
	}
	if n > max {
		return 0, api.NewError(api.ErrCodeMalformedLength, "length header exceeds maximum").
			WithContext("length", n).
			WithContext("max", max)
	}
	return n, nil
}
