// Package aead implements the optional encryption stage.
//
// A Cipher seals a payload under a 256-bit symmetric key and produces a
// self-describing block:
//
//	[12B nonce][ciphertext][16B tag]
//
// Every Seal draws a fresh 96-bit nonce from a cryptographically secure
// source, so the same key can be used from any number of goroutines and
// across restarts without coordinating a counter. Open rejects any block whose
// tag does not verify with ErrAuthenticationFailed and never returns partial
// plaintext.
//
// Two variants are available, selected by name at construction time:
//   - aes-256-gcm
//   - chacha20-poly1305
//
// Associated data is optional. It is not stored in the block, so both sides
// must supply identical bytes.
package aead
