package transport

import (
	"log/slog"

	"github.com/remus-protocol/remus-go/pkg/log"
)

// DefaultSendQueueCapacity is the default number of frames that may wait
// for the writer.
const DefaultSendQueueCapacity = 64

// Config configures a Transport.
type Config struct {
	// MaxFrameSize bounds total_length in both directions and the
	// decompressed size of a received payload. Zero, or a value too small
	// to hold a frame header, uses the pipeline's limit (16 MiB by
	// default).
	MaxFrameSize uint32

	// SendQueueCapacity is the number of prepared frames that may wait for
	// the writer (default: 64).
	SendQueueCapacity int

	// Logger receives protocol capture events. Nil disables capture.
	Logger log.Logger

	// Slog receives operational logs. Nil discards them.
	Slog *slog.Logger
}

// DefaultConfig returns the default transport configuration.
func DefaultConfig() Config {
	return Config{
		SendQueueCapacity: DefaultSendQueueCapacity,
	}
}

func (c Config) normalized() Config {
	if c.SendQueueCapacity <= 0 {
		c.SendQueueCapacity = DefaultSendQueueCapacity
	}
	if c.Logger == nil {
		c.Logger = log.NoopLogger{}
	}
	if c.Slog == nil {
		c.Slog = slog.New(slog.DiscardHandler)
	}
	return c
}
