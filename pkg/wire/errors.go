package wire

import "errors"

// Codec errors.
var (
	// ErrMalformed indicates a header that is internally inconsistent or
	// names an unknown kind. The byte stream cannot be trusted afterwards.
	ErrMalformed = errors.New("malformed frame")

	// ErrFrameTooLarge indicates a frame longer than the configured maximum.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrShortBuffer indicates the buffer does not yet hold a complete frame.
	// It is not a protocol error; read more bytes and retry.
	ErrShortBuffer = errors.New("short buffer")

	// ErrPayloadEncoding indicates a typed payload could not be encoded or decoded.
	ErrPayloadEncoding = errors.New("payload encoding")
)
