// Package compress implements the optional compression stage.
//
// A Codec is the pluggable algorithm (zstd or lz4). MaybeCompress decides
// whether compressing a payload is worth it, and Decompress reverses it.
//
// # Block Format
//
// A compressed payload carries its decompressed length so the receiver can
// bound and size its allocation before decoding:
//
//	[4B original_length, big-endian][codec block]
//
// Both peers must agree on the codec out of band; the block itself does not
// name it.
package compress
