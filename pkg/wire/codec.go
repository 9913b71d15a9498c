package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the total_length field.
	LengthPrefixSize = 4

	// HeaderSize is the fixed header size including the length prefix:
	// total_length(4) + kind(1) + flags(1) + request_id(4) + payload_length(4).
	HeaderSize = 14

	// headerBodySize is the part of the header counted by total_length.
	headerBodySize = HeaderSize - LengthPrefixSize

	// DefaultMaxFrameSize is the default upper bound on total_length (16 MiB).
	DefaultMaxFrameSize uint32 = 16 << 20

	// maxPayloadLen keeps total_length inside its 32-bit field.
	maxPayloadLen = math.MaxUint32 - headerBodySize
)

// Limits constrains decode and encode memory use.
type Limits struct {
	// MaxFrameSize bounds total_length. Zero means DefaultMaxFrameSize.
	MaxFrameSize uint32
}

// DefaultLimits returns the default codec limits.
func DefaultLimits() Limits {
	return Limits{MaxFrameSize: DefaultMaxFrameSize}
}

// Max returns the effective maximum total_length.
func (l Limits) Max() uint32 {
	if l.MaxFrameSize == 0 {
		return DefaultMaxFrameSize
	}
	return l.MaxFrameSize
}

// FrameSize returns the full encoded size of a frame with the given payload
// length, including the length prefix.
func FrameSize(payloadLen int) int {
	return HeaderSize + payloadLen
}

// Encode serializes m into a new frame.
func Encode(m Message, limits Limits) ([]byte, error) {
	return AppendFrame(make([]byte, 0, FrameSize(m.Payload.Len())), m, limits)
}

// AppendFrame appends the frame for m to dst and returns the extended slice.
// On error dst is returned unchanged.
func AppendFrame(dst []byte, m Message, limits Limits) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return dst, err
	}
	payloadLen := uint64(m.Payload.Len())
	total := headerBodySize + payloadLen
	if total > uint64(limits.Max()) {
		return dst, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, total, limits.Max())
	}

	var hdr [HeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(total))
	hdr[4] = byte(m.Kind)
	hdr[5] = byte(m.Flags)
	binary.BigEndian.PutUint32(hdr[6:10], m.RequestID)
	binary.BigEndian.PutUint32(hdr[10:14], uint32(payloadLen))

	dst = append(dst, hdr[:]...)
	return append(dst, m.Payload.Bytes()...), nil
}

// PeekFrameLength inspects the length prefix at the start of buf.
//
// It returns the full size of the first frame (prefix included) and whether
// buf already holds all of it. n is zero while fewer than LengthPrefixSize
// bytes are available. A declared length above the limit is reported as
// ErrFrameTooLarge, and one too small to hold a header as ErrMalformed,
// before any payload byte is looked at.
func PeekFrameLength(buf []byte, limits Limits) (n int, complete bool, err error) {
	if len(buf) < LengthPrefixSize {
		return 0, false, nil
	}
	total := binary.BigEndian.Uint32(buf[:LengthPrefixSize])
	if total > limits.Max() {
		return 0, false, fmt.Errorf("%w: declared %d > %d", ErrFrameTooLarge, total, limits.Max())
	}
	if total < headerBodySize {
		return 0, false, fmt.Errorf("%w: total_length %d shorter than header", ErrMalformed, total)
	}
	n = LengthPrefixSize + int(total)
	return n, len(buf) >= n, nil
}

// Decode parses the first frame in buf.
//
// It returns the message and the number of bytes consumed. The payload
// aliases buf; use DecodeCopy when buf will be reused. A buffer shorter than
// the declared frame fails with an error matching both ErrMalformed and
// ErrShortBuffer.
func Decode(buf []byte, limits Limits) (Message, int, error) {
	n, complete, err := PeekFrameLength(buf, limits)
	if err != nil {
		return Message{}, 0, err
	}
	if n == 0 {
		return Message{}, 0, fmt.Errorf("%w: %w: %d bytes, need %d for length prefix",
			ErrMalformed, ErrShortBuffer, len(buf), LengthPrefixSize)
	}
	if !complete {
		return Message{}, 0, fmt.Errorf("%w: %w: have %d of %d bytes",
			ErrMalformed, ErrShortBuffer, len(buf), n)
	}

	kind := Kind(buf[4])
	if !kind.IsValid() {
		return Message{}, 0, fmt.Errorf("%w: unknown kind %d", ErrMalformed, kind)
	}
	payloadLen := binary.BigEndian.Uint32(buf[10:14])
	if int(payloadLen) != n-HeaderSize {
		return Message{}, 0, fmt.Errorf("%w: payload_length %d disagrees with total_length %d",
			ErrMalformed, payloadLen, n-LengthPrefixSize)
	}

	m := Message{
		Kind:      kind,
		Flags:     Flags(buf[5]),
		RequestID: binary.BigEndian.Uint32(buf[6:10]),
		Payload:   WrapPayload(buf[HeaderSize:n:n]),
	}
	return m, n, nil
}

// DecodeCopy is like Decode but copies the payload out of buf.
func DecodeCopy(buf []byte, limits Limits) (Message, int, error) {
	m, n, err := Decode(buf, limits)
	if err != nil {
		return Message{}, 0, err
	}
	m.Payload = NewPayload(m.Payload.Bytes())
	return m, n, nil
}
