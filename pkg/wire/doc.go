// Package wire defines the Remus binary frame format and message model.
//
// Every message travels as one length-prefixed frame. All integers are
// big-endian:
//
//	┌──────────────┬──────┬───────┬────────────┬────────────────┬─────────┐
//	│ total_length │ kind │ flags │ request_id │ payload_length │ payload │
//	│      4B      │  1B  │  1B   │     4B     │       4B       │    N    │
//	└──────────────┴──────┴───────┴────────────┴────────────────┴─────────┘
//
// total_length counts everything after itself, so it is always
// 10 + payload_length. A decoder checks total_length against the configured
// maximum frame size before it trusts or allocates anything.
//
// # Payload Ownership
//
// Payload is an immutable byte buffer. Slicing or copying a Payload shares
// the underlying storage; nothing in this module writes to a buffer once it
// is wrapped. Decode returns payloads that alias the input buffer, which
// must therefore stay untouched for as long as the message is in use.
//
// # Typed Payloads
//
// Request and response helpers encode application values with CBOR
// (RFC 8949), using the same deterministic encoder settings as the rest of
// the module.
package wire
