package wire

import "bytes"

// Payload is an immutable byte buffer shared by reference.
//
// Copies of a Payload value, and slices taken with Slice, share the same
// backing array. The garbage collector keeps that array alive for as long
// as any Payload refers to it. Every transform in this module produces a
// new buffer rather than writing into an existing one.
type Payload struct {
	b []byte
}

// NewPayload copies b into a new Payload.
func NewPayload(b []byte) Payload {
	if len(b) == 0 {
		return Payload{}
	}
	c := make([]byte, len(b))
	copy(c, b)
	return Payload{b: c}
}

// WrapPayload takes ownership of b without copying.
// The caller must not modify b afterwards.
func WrapPayload(b []byte) Payload {
	return Payload{b: b}
}

// StringPayload returns a Payload holding the bytes of s.
func StringPayload(s string) Payload {
	return Payload{b: []byte(s)}
}

// Bytes returns the payload contents. The returned slice must be treated as
// read-only; use Clone for a private copy.
func (p Payload) Bytes() []byte {
	return p.b
}

// Len returns the payload length in bytes.
func (p Payload) Len() int {
	return len(p.b)
}

// IsEmpty returns true if the payload holds no bytes.
func (p Payload) IsEmpty() bool {
	return len(p.b) == 0
}

// Slice returns the sub-payload [i:j] sharing the same storage.
// It panics on out-of-range bounds, like slicing.
func (p Payload) Slice(i, j int) Payload {
	return Payload{b: p.b[i:j:j]}
}

// Clone returns a private copy of the payload bytes.
func (p Payload) Clone() []byte {
	if p.b == nil {
		return nil
	}
	c := make([]byte, len(p.b))
	copy(c, p.b)
	return c
}

// Equal returns true if both payloads hold the same bytes.
func (p Payload) Equal(other Payload) bool {
	return bytes.Equal(p.b, other.b)
}

// String returns the payload as a string.
func (p Payload) String() string {
	return string(p.b)
}
