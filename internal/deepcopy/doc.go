// Package deepcopy offloads structural deep copies of conversation
// payloads to a dedicated worker goroutine.
//
// The caller is never blocked by copy cost on its own goroutine beyond
// awaiting the round trip, and a copy failure cannot corrupt caller
// state: all data crosses the channel by value in request/response
// messages, correlated by a monotonically increasing request id.
//
// A per-request copy failure is reported back with the same id as a
// typed error. A worker panic is a channel-level failure: every pending
// request is rejected and the channel fails closed until Recreate is
// called. The Inline copier provides the synchronous degraded mode for
// when the offload channel is unavailable.
package deepcopy
