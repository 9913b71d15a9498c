package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdMaxWindow caps the decoder window a peer can ask for.
const zstdMaxWindow = 32 << 20

type zstdCodec struct {
	enc *zstd.Encoder
	dec sync.Pool
}

// zstdDefault is the shared codec behind Zstd.
var zstdDefault *zstdCodec

func init() {
	var err error
	zstdDefault, err = newZstd(zstd.SpeedDefault)
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd encoder: %v", err))
	}
}

// Zstd returns the shared zstd codec (level 3, the zstd default).
func Zstd() Codec {
	return zstdDefault
}

// NewZstd returns a zstd codec with its own encoder at the given level.
func NewZstd(level zstd.EncoderLevel) (Codec, error) {
	return newZstd(level)
}

func newZstd(level zstd.EncoderLevel) (*zstdCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, err
	}
	return &zstdCodec{enc: enc}, nil
}

func (z *zstdCodec) Name() string { return NameZstd }

func (z *zstdCodec) Compress(dst, src []byte) ([]byte, error) {
	return z.enc.EncodeAll(src, dst), nil
}

// Decompress streams through a pooled decoder so that output never grows
// past size, whatever the frame header claims.
func (z *zstdCodec) Decompress(dst, src []byte, size int) ([]byte, error) {
	dec, err := z.decoder()
	if err != nil {
		return nil, err
	}
	defer z.dec.Put(dec)

	if err := dec.Reset(bytes.NewReader(src)); err != nil {
		return nil, err
	}
	out := dst[:size]
	if _, err := io.ReadFull(dec, out); err != nil {
		return nil, err
	}
	var extra [1]byte
	if n, err := dec.Read(extra[:]); n != 0 || !errors.Is(err, io.EOF) {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, errors.New("zstd: data longer than declared length")
	}
	return out, nil
}

func (z *zstdCodec) decoder() (*zstd.Decoder, error) {
	if d, ok := z.dec.Get().(*zstd.Decoder); ok {
		return d, nil
	}
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxWindow(zstdMaxWindow),
	)
}
