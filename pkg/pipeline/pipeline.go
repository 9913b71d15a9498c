package pipeline

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/remus-protocol/remus-go/pkg/aead"
	"github.com/remus-protocol/remus-go/pkg/compress"
	"github.com/remus-protocol/remus-go/pkg/version"
	"github.com/remus-protocol/remus-go/pkg/wire"
)

// Options selects the stages of a Pipeline.
type Options struct {
	// Compressor enables compression when non-nil.
	Compressor compress.Codec

	// Cipher enables encryption when non-nil.
	Cipher aead.Cipher

	// Compression tunes when a compressed candidate is kept.
	Compression compress.Options

	// Limits bounds frame size in both directions and the declared size of
	// a compressed block.
	Limits wire.Limits

	// BindHeader authenticates kind, flags and request ID together with the
	// payload. Both peers must agree on it.
	BindHeader bool
}

// Pipeline turns messages into frames and back.
type Pipeline struct {
	opts Options
}

// New returns a Pipeline for opts.
func New(opts Options) (*Pipeline, error) {
	if opts.Compression.Margin < 0 {
		return nil, fmt.Errorf("compression margin must not be negative: %d", opts.Compression.Margin)
	}
	if opts.Limits.MaxFrameSize != 0 && opts.Limits.MaxFrameSize < wire.HeaderSize-wire.LengthPrefixSize {
		return nil, fmt.Errorf("max frame size %d cannot hold a header", opts.Limits.MaxFrameSize)
	}
	return &Pipeline{opts: opts}, nil
}

// Plain returns a Pipeline with no stages and default limits.
func Plain() *Pipeline {
	return &Pipeline{opts: Options{Compression: compress.DefaultOptions(), Limits: wire.DefaultLimits()}}
}

// Limits returns the frame limits the pipeline enforces.
func (p *Pipeline) Limits() wire.Limits {
	return p.opts.Limits
}

// Capabilities reports the optional features this pipeline applies.
func (p *Pipeline) Capabilities() version.Capabilities {
	var caps version.Capabilities
	if c := p.opts.Compressor; c != nil {
		caps |= version.CapCompression
		switch c.Name() {
		case compress.NameZstd:
			caps |= version.CapCompressionZstd
		case compress.NameLZ4:
			caps |= version.CapCompressionLZ4
		}
	}
	if p.opts.Cipher != nil {
		caps |= version.CapEncryption
	}
	return caps
}

// Seal applies the send-side stages to m's payload.
//
// Any Compressed or Encrypted bits set by the caller are discarded; the
// returned message carries exactly the transforms applied. Failures are
// reported as *MessageError.
func (p *Pipeline) Seal(m wire.Message) (wire.Message, error) {
	if err := m.Validate(); err != nil {
		return wire.Message{}, messageError(m, err)
	}
	flags := m.Flags.Without(wire.FlagCompressed | wire.FlagEncrypted)
	data := m.Payload.Bytes()

	data, applied, err := compress.MaybeCompress(p.opts.Compressor, data, p.opts.Compression)
	if err != nil {
		return wire.Message{}, messageError(m, err)
	}
	if applied {
		flags = flags.With(wire.FlagCompressed)
	}

	if p.opts.Cipher != nil {
		flags = flags.With(wire.FlagEncrypted)
		data, err = p.opts.Cipher.Seal(data, p.associatedData(m.Kind, flags, m.RequestID))
		if err != nil {
			return wire.Message{}, messageError(m, err)
		}
	}

	out := m.WithFlags(flags)
	if applied || p.opts.Cipher != nil {
		out = out.WithPayload(wire.WrapPayload(data))
	}
	return out, nil
}

// Open reverses Seal. The returned message keeps the received flags.
//
// A message flagged Encrypted fails as a whole when it does not
// authenticate; no plaintext is returned. With a cipher configured, a
// message without the Encrypted flag is rejected the same way. Failures
// are reported as *MessageError.
func (p *Pipeline) Open(m wire.Message) (wire.Message, error) {
	return p.OpenWithLimit(m, p.opts.Limits.Max())
}

// OpenWithLimit is Open with maxSize, instead of the pipeline's own limit,
// bounding the declared size of a compressed payload.
func (p *Pipeline) OpenWithLimit(m wire.Message, maxSize uint32) (wire.Message, error) {
	data := m.Payload.Bytes()
	transformed := false

	if m.Flags.Has(wire.FlagEncrypted) {
		if p.opts.Cipher == nil {
			return wire.Message{}, messageError(m,
				fmt.Errorf("%w: no cipher configured", aead.ErrAuthenticationFailed))
		}
		plain, err := p.opts.Cipher.Open(data, p.associatedData(m.Kind, m.Flags, m.RequestID))
		if err != nil {
			return wire.Message{}, messageError(m, err)
		}
		data, transformed = plain, true
	} else if p.opts.Cipher != nil {
		// Seal encrypts everything once a cipher is set, so a clear
		// message here had its Encrypted bit stripped in transit.
		return wire.Message{}, messageError(m,
			fmt.Errorf("%w: unencrypted message", aead.ErrAuthenticationFailed))
	}

	if m.Flags.Has(wire.FlagCompressed) {
		if p.opts.Compressor == nil {
			return wire.Message{}, messageError(m,
				fmt.Errorf("%w: no compressor configured", compress.ErrCorrupt))
		}
		plain, err := compress.Decompress(p.opts.Compressor, data, maxSize)
		if err != nil {
			return wire.Message{}, messageError(m, err)
		}
		data, transformed = plain, true
	}

	if !transformed {
		return m, nil
	}
	return m.WithPayload(wire.WrapPayload(data)), nil
}

// Encode seals m and serializes it into a new frame.
func (p *Pipeline) Encode(m wire.Message) ([]byte, error) {
	return p.AppendFrame(nil, m)
}

// AppendFrame seals m and appends its frame to dst.
// On error dst is returned unchanged.
func (p *Pipeline) AppendFrame(dst []byte, m wire.Message) ([]byte, error) {
	sealed, err := p.Seal(m)
	if err != nil {
		return dst, err
	}
	if dst == nil {
		dst = make([]byte, 0, wire.FrameSize(sealed.Payload.Len()))
	}
	out, err := wire.AppendFrame(dst, sealed, p.opts.Limits)
	if err != nil {
		return dst, messageError(m, err)
	}
	return out, nil
}

// Decode parses the first frame in buf and opens it.
//
// Framing errors (wire.ErrMalformed, wire.ErrFrameTooLarge) are returned
// unwrapped because the stream can no longer be trusted. Errors from the
// stages are *MessageError, and n is still the size of the frame so the
// caller can skip it. An untransformed payload aliases buf.
func (p *Pipeline) Decode(buf []byte) (m wire.Message, n int, err error) {
	m, n, err = wire.Decode(buf, p.opts.Limits)
	if err != nil {
		return wire.Message{}, 0, err
	}
	opened, err := p.Open(m)
	if err != nil {
		return wire.Message{}, n, err
	}
	return opened, n, nil
}

// associatedData returns the header binding for a payload, or nil.
func (p *Pipeline) associatedData(kind wire.Kind, flags wire.Flags, requestID uint32) []byte {
	if !p.opts.BindHeader {
		return nil
	}
	ad := make([]byte, 6)
	ad[0] = byte(kind)
	ad[1] = byte(flags)
	binary.BigEndian.PutUint32(ad[2:], requestID)
	return ad
}

// IsMessageError reports whether err only affects a single message.
func IsMessageError(err error) bool {
	return errors.Is(err, ErrMessage)
}
