// Package log provides structured protocol capture for remus connections.
//
// This package defines the Logger interface and Event types for observing
// what a transport does: frames on the wire, messages after the pipeline,
// state transitions and failures. It is separate from operational logging
// (slog) - protocol capture is a complete machine-readable event trace for
// debugging and analysis. A Logger never influences protocol behavior.
//
// # Basic Usage
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For services already on zap
//	cfg.Logger = log.NewZapAdapter(zapLogger)
//
//	// For production: write to a binary capture file
//	cfg.Logger, _ = log.NewFileLogger("/var/log/remus/peer.rcap")
//
//	// Several at once
//	cfg.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at two layers:
//   - Transport: Raw frame bytes (FrameEvent) and connection state
//     (StateChangeEvent)
//   - Pipeline: Messages after sealing or opening (MessageEvent)
//
// Errors at either layer have a dedicated event type (ErrorEventData).
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with the .rcap
// extension. The remus-log CLI tool provides viewing, filtering, and export.
package log
