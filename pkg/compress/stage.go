package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// LengthPrefixSize is the size of the original_length prefix.
	LengthPrefixSize = 4

	// DefaultThreshold is the smallest payload worth trying to compress.
	DefaultThreshold = 1024

	// DefaultMargin is the default required saving in bytes beyond
	// "strictly smaller".
	DefaultMargin = 0
)

// Compression errors.
var (
	// ErrCorrupt indicates a compressed block that cannot be decoded.
	// Only the message is lost; the connection may continue.
	ErrCorrupt = errors.New("corrupt compressed block")

	// ErrTooLarge indicates a block declaring a decompressed length above
	// the allowed maximum.
	ErrTooLarge = errors.New("decompressed size too large")

	// ErrIncompressible is returned by a Codec that gave up on its input.
	// MaybeCompress treats it as "send uncompressed".
	ErrIncompressible = errors.New("incompressible input")
)

// Options controls when MaybeCompress keeps a compressed candidate.
type Options struct {
	// Threshold is the minimum input length to attempt compression.
	// Zero or negative means DefaultThreshold.
	Threshold int

	// Margin is how many bytes the candidate must save beyond being
	// strictly smaller than the input.
	Margin int
}

// DefaultOptions returns the default compression heuristic.
func DefaultOptions() Options {
	return Options{
		Threshold: DefaultThreshold,
		Margin:    DefaultMargin,
	}
}

func (o Options) threshold() int {
	if o.Threshold <= 0 {
		return DefaultThreshold
	}
	return o.Threshold
}

// MaybeCompress compresses data when that pays off.
//
// It returns the block ([original_length][compressed]) and applied=true when
// data is at least the threshold and the block beats the original by more
// than the margin. Otherwise it returns data itself, untouched, with
// applied=false. A nil codec never compresses.
func MaybeCompress(c Codec, data []byte, opts Options) ([]byte, bool, error) {
	if c == nil || len(data) < opts.threshold() || uint64(len(data)) > math.MaxUint32 {
		return data, false, nil
	}

	out := make([]byte, LengthPrefixSize, LengthPrefixSize+len(data)/2)
	binary.BigEndian.PutUint32(out, uint32(len(data)))

	out, err := c.Compress(out, data)
	if errors.Is(err, ErrIncompressible) {
		return data, false, nil
	}
	if err != nil {
		return data, false, fmt.Errorf("%s compress: %w", c.Name(), err)
	}

	margin := opts.Margin
	if margin < 0 {
		margin = 0
	}
	if len(out)+margin >= len(data) {
		return data, false, nil
	}
	return out, true, nil
}

// Decompress reverses MaybeCompress.
//
// original_length is checked against maxSize before anything is allocated,
// then exactly that many bytes are allocated and filled. Any decoding
// failure, including a codec panic on hostile input, is reported as
// ErrCorrupt.
func Decompress(c Codec, data []byte, maxSize uint32) (out []byte, err error) {
	if c == nil {
		return nil, fmt.Errorf("%w: no codec configured", ErrCorrupt)
	}
	if len(data) < LengthPrefixSize {
		return nil, fmt.Errorf("%w: %d bytes, missing length prefix", ErrCorrupt, len(data))
	}
	size := binary.BigEndian.Uint32(data[:LengthPrefixSize])
	if size > maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, size, maxSize)
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %s decoder panic: %v", ErrCorrupt, c.Name(), r)
		}
	}()

	out, err = c.Decompress(make([]byte, 0, size), data[LengthPrefixSize:], int(size))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, c.Name(), err)
	}
	return out, nil
}
