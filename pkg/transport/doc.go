// Package transport turns a duplex byte stream into a sequence of whole
// messages.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│   Application messages         │
//	├────────────────────────────────┤
//	│   Pipeline (zstd/lz4, AEAD)    │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│   Any io.ReadWriter            │
//	└────────────────────────────────┘
//
// A Transport never starts goroutines. Progress is made by the callers of
// Send, TrySend and Receive.
//
// # Write Path
//
// Send prepares the complete frame first, then places it in a bounded FIFO
// queue. Whichever sender currently holds the writer role drains the queue
// in order, so frames from concurrent senders never interleave. When the
// queue is full Send waits for room; TrySend reports ErrBackpressure
// instead. A send cancelled before its frame started writing is dropped
// whole. One that already started always completes, so the peer never sees
// half a frame.
//
// # Read Path
//
// Receive reads into an internal buffer until a complete frame is available
// and returns the oldest one. Surplus bytes stay buffered for the next call,
// including when the call is cancelled. A peer declaring a frame larger than
// the configured maximum is a protocol violation; the transport fails with
// wire.ErrFrameTooLarge before buffering it. The same maximum bounds the
// decompressed size of a received payload.
//
// Timeouts belong to the caller. A read deadline on the stream surfaces
// from Receive as a non-fatal error. Cancelling Receive through its context
// interrupts the read with a deadline of its own and leaves the stream
// without one.
//
// # Failures
//
// Malformed framing, oversized frames, truncated frames and stream I/O
// errors are connection-fatal: the transport moves to StateFailed, closes the
// stream, and every later call returns the recorded error. A message that
// fails decompression or authentication only fails that Receive call.
package transport
