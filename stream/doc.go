// Package stream
// Author: momentics <momentics@gmail.com>
//
// The stream client: composes a byte source, the framing core and the
// keep-alive monitor into a pull-based, single-pass sequence of
// messages. One reader pump per stream hands chunks to the consumer
// over an unbuffered channel, so at most one chunk is ever in flight
// and the consumer's pace governs all buffering.
package stream
