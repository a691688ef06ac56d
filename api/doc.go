// Package api
// Author: momentics <momentics@gmail.com>
//
// Public contracts of the twitterstream library: the Message byte span,
// the ByteSource collaborator interface and the structured error
// taxonomy. The packages core/framing, stream and client build on these
// types; application code imports api to consume stream results.
package api
