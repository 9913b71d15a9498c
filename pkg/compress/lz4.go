package compress

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

type lz4Codec struct{}

// LZ4 returns the lz4 block codec.
func LZ4() Codec {
	return lz4Codec{}
}

func (lz4Codec) Name() string { return NameLZ4 }

func (lz4Codec) Compress(dst, src []byte) ([]byte, error) {
	start := len(dst)
	bound := lz4.CompressBlockBound(len(src))
	if cap(dst)-start < bound {
		grown := make([]byte, start, start+bound)
		copy(grown, dst)
		dst = grown
	}
	n, err := lz4.CompressBlock(src, dst[start:start+bound], nil)
	if err != nil {
		return nil, err
	}
	if n == 0 && len(src) > 0 {
		return nil, ErrIncompressible
	}
	return dst[:start+n], nil
}

func (lz4Codec) Decompress(dst, src []byte, size int) ([]byte, error) {
	out := dst[:size]
	n, err := lz4.UncompressBlock(src, out)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, fmt.Errorf("lz4: decoded %d bytes, want %d", n, size)
	}
	return out, nil
}
