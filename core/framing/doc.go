// Package framing
// Author: momentics <momentics@gmail.com>
//
// Implements the message boundary logic for the streaming API wire
// format: CRLF line-delimited JSON with blank-line keep-alives, and the
// "delimited=length" variant where each message is preceded by an ASCII
// decimal byte count on its own line.
//
// Includes:
//   - Resumable delimiter scanning (amortized O(n) over total bytes)
//   - Stateful Framer accumulating chunks and emitting complete messages
//   - Message size enforcement to prevent resource exhaustion
//   - Truncation detection at end-of-stream
package framing
