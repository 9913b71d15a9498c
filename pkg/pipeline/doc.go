// Package pipeline composes the compression and encryption stages around the
// wire codec.
//
// Send order:
//
//	compress (if worth it) -> encrypt (if a cipher is set) -> set flags -> frame
//
// Receive order:
//
//	frame -> decrypt (if Encrypted) -> decompress (if Compressed) -> message
//
// The Compressed and Encrypted flags are owned by the pipeline. Seal clears
// whatever the caller put there and sets exactly the transforms it applied;
// Open leaves the received flags in place so callers can see how a message
// travelled.
//
// A Pipeline holds no mutable state after New and performs no I/O, so one
// instance can serve both directions of any number of connections.
package pipeline
