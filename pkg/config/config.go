package config

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/remus-protocol/remus-go/pkg/aead"
	"github.com/remus-protocol/remus-go/pkg/compress"
	"github.com/remus-protocol/remus-go/pkg/pipeline"
	"github.com/remus-protocol/remus-go/pkg/transport"
	"github.com/remus-protocol/remus-go/pkg/version"
	"github.com/remus-protocol/remus-go/pkg/wire"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the settings shared by both peers of a connection.
type Config struct {
	// MaxFrameSize bounds total_length in both directions.
	MaxFrameSize uint32 `yaml:"max_frame_size" toml:"max_frame_size" env:"REMUS_MAX_FRAME_SIZE, overwrite"`

	// CompressionThreshold is the smallest payload worth compressing.
	CompressionThreshold int `yaml:"compression_threshold" toml:"compression_threshold" env:"REMUS_COMPRESSION_THRESHOLD, overwrite"`

	// CompressionMargin is how many bytes compression must save beyond a
	// strict reduction.
	CompressionMargin int `yaml:"compression_margin" toml:"compression_margin" env:"REMUS_COMPRESSION_MARGIN, overwrite"`

	SendQueueCapacity int `yaml:"send_queue_capacity" toml:"send_queue_capacity" env:"REMUS_SEND_QUEUE_CAPACITY, overwrite"`

	// Compression names the codec: none, zstd or lz4.
	Compression string `yaml:"compression" toml:"compression" env:"REMUS_COMPRESSION, overwrite"`

	// Cipher names the AEAD: none, aes-256-gcm or chacha20-poly1305.
	Cipher string `yaml:"cipher" toml:"cipher" env:"REMUS_CIPHER, overwrite"`

	// BindHeader authenticates the message header with the payload.
	BindHeader bool `yaml:"bind_header" toml:"bind_header" env:"REMUS_BIND_HEADER, overwrite"`

	// ProtocolVersion selects the protocol profile the settings must fit.
	ProtocolVersion string `yaml:"protocol_version" toml:"protocol_version" env:"REMUS_PROTOCOL_VERSION, overwrite"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		MaxFrameSize:         wire.DefaultMaxFrameSize,
		CompressionThreshold: compress.DefaultThreshold,
		CompressionMargin:    compress.DefaultMargin,
		SendQueueCapacity:    transport.DefaultSendQueueCapacity,
		Compression:          compress.NameZstd,
		Cipher:               aead.NameNone,
		ProtocolVersion:      version.Current,
	}
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var err error
	invalid := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	if c.MaxFrameSize < wire.HeaderSize-wire.LengthPrefixSize {
		invalid("max_frame_size %d cannot hold a frame header", c.MaxFrameSize)
	}
	if c.CompressionThreshold < 0 {
		invalid("compression_threshold must not be negative: %d", c.CompressionThreshold)
	}
	if c.CompressionMargin < 0 {
		invalid("compression_margin must not be negative: %d", c.CompressionMargin)
	}
	if c.SendQueueCapacity <= 0 {
		invalid("send_queue_capacity must be positive: %d", c.SendQueueCapacity)
	}
	if _, cerr := compress.ByName(c.Compression); cerr != nil {
		invalid("%v", cerr)
	}
	if !knownCipher(c.Cipher) {
		invalid("unknown cipher %q", c.Cipher)
	}

	if _, verr := version.Parse(c.ProtocolVersion); verr != nil {
		invalid("protocol_version: %v", verr)
		return err
	}
	profile, perr := version.LoadProfile(c.ProtocolVersion)
	if perr != nil {
		invalid("protocol_version: %v", perr)
		return err
	}
	for _, e := range profile.Check(c.Compression, c.Cipher, c.MaxFrameSize) {
		invalid("%v", e)
	}
	return err
}

func knownCipher(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", aead.NameNone, aead.NameAESGCM, aead.NameChaCha20Poly1305:
		return true
	default:
		return false
	}
}

// Build validates c and assembles the pipeline and transport configuration.
// key is required when a cipher is configured and ignored otherwise.
func (c Config) Build(key []byte) (*pipeline.Pipeline, transport.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, transport.Config{}, err
	}

	codec, err := compress.ByName(c.Compression)
	if err != nil {
		return nil, transport.Config{}, err
	}
	cipher, err := aead.New(c.Cipher, key)
	if err != nil {
		return nil, transport.Config{}, fmt.Errorf("cipher %s: %w", c.Cipher, err)
	}

	limits := wire.Limits{MaxFrameSize: c.MaxFrameSize}
	pipe, err := pipeline.New(pipeline.Options{
		Compressor: codec,
		Cipher:     cipher,
		Compression: compress.Options{
			Threshold: c.CompressionThreshold,
			Margin:    c.CompressionMargin,
		},
		Limits:     limits,
		BindHeader: c.BindHeader,
	})
	if err != nil {
		return nil, transport.Config{}, err
	}

	tc := transport.DefaultConfig()
	tc.MaxFrameSize = c.MaxFrameSize
	tc.SendQueueCapacity = c.SendQueueCapacity
	return pipe, tc, nil
}
