// Package client
// Author: momentics <momentics@gmail.com>
//
// Connection builder for the Twitter Streaming API endpoints. The
// builder signs the request (OAuth1, delegated to dghubble/oauth1),
// negotiates gzip content encoding, selects the framing variant, and
// hands the decompressed response body to the stream core as a byte
// source. Reconnection policy lives here too, layered around the
// stream's terminal states, never inside them.
package client
