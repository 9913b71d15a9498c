package compress

import (
	"fmt"
	"strings"
)

// Codec names accepted by ByName.
const (
	NameNone = "none"
	NameZstd = "zstd"
	NameLZ4  = "lz4"
)

// Codec compresses and decompresses raw blocks.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Name returns the configuration name of the codec.
	Name() string

	// Compress appends the compressed form of src to dst.
	Compress(dst, src []byte) ([]byte, error)

	// Decompress decodes src into dst[:size]. dst must have capacity for
	// size bytes. Input that decodes to anything other than exactly size
	// bytes is an error.
	Decompress(dst, src []byte, size int) ([]byte, error)
}

// ByName returns the codec registered under name.
// "none" and the empty string return a nil Codec, which disables compression.
func ByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameNone:
		return nil, nil
	case NameZstd:
		return Zstd(), nil
	case NameLZ4:
		return LZ4(), nil
	default:
		return nil, fmt.Errorf("unknown compression codec %q", name)
	}
}
