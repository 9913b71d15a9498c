package transport

import (
	"errors"

	"github.com/remus-protocol/remus-go/pkg/aead"
	"github.com/remus-protocol/remus-go/pkg/compress"
	"github.com/remus-protocol/remus-go/pkg/pipeline"
	"github.com/remus-protocol/remus-go/pkg/wire"
)

// Transport errors.
var (
	// ErrTruncatedFrame indicates the stream ended in the middle of a frame.
	ErrTruncatedFrame = errors.New("truncated frame")

	// ErrBackpressure indicates the send queue is full. Retry later or use
	// Send to wait for room.
	ErrBackpressure = errors.New("send queue full")

	// ErrIO wraps a failure of the underlying stream.
	ErrIO = errors.New("stream i/o error")

	// ErrClosed is returned by calls on a transport closed with Close.
	ErrClosed = errors.New("transport closed")
)

// IsConnectionFatal reports whether err leaves the transport unusable.
// Message-level failures (corrupt compressed block, failed authentication,
// an outgoing message too large to frame) are not fatal.
func IsConnectionFatal(err error) bool {
	if err == nil || errors.Is(err, pipeline.ErrMessage) {
		return false
	}
	return errors.Is(err, wire.ErrMalformed) ||
		errors.Is(err, wire.ErrFrameTooLarge) ||
		errors.Is(err, ErrTruncatedFrame) ||
		errors.Is(err, ErrIO)
}

// errorClass names err for capture events.
func errorClass(err error) string {
	switch {
	case errors.Is(err, aead.ErrAuthenticationFailed):
		return "auth_failed"
	case errors.Is(err, compress.ErrCorrupt), errors.Is(err, compress.ErrTooLarge):
		return "compression"
	case errors.Is(err, wire.ErrFrameTooLarge):
		return "frame_too_large"
	case errors.Is(err, wire.ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrTruncatedFrame):
		return "truncated"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "other"
	}
}
