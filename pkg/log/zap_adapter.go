package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter writes protocol events to a zap.Logger.
type ZapAdapter struct {
	logger *zap.Logger
	level  zapcore.Level
}

// NewZapAdapter creates a ZapAdapter that writes at Debug level.
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{logger: logger, level: zapcore.DebugLevel}
}

// WithLevel returns a copy of the adapter that logs at level.
func (a *ZapAdapter) WithLevel(level zapcore.Level) *ZapAdapter {
	return &ZapAdapter{logger: a.logger, level: level}
}

// Log writes the event to the zap logger.
func (a *ZapAdapter) Log(event Event) {
	ce := a.logger.Check(a.level, "protocol")
	if ce == nil {
		return
	}

	fields := []zap.Field{
		zap.String("conn_id", event.ConnectionID),
		zap.Stringer("direction", event.Direction),
		zap.Stringer("layer", event.Layer),
		zap.Stringer("category", event.Category),
	}
	if event.RemoteAddr != "" {
		fields = append(fields, zap.String("remote_addr", event.RemoteAddr))
	}

	switch {
	case event.Frame != nil:
		fields = append(fields,
			zap.Int("frame_size", event.Frame.Size),
			zap.Bool("truncated", event.Frame.Truncated),
		)
	case event.Message != nil:
		fields = append(fields,
			zap.Stringer("kind", event.Message.Kind),
			zap.Stringer("flags", event.Message.Flags),
			zap.Uint32("request_id", event.Message.RequestID),
			zap.Int("payload_size", event.Message.PayloadSize),
			zap.Int("wire_size", event.Message.WireSize),
		)
	case event.StateChange != nil:
		fields = append(fields,
			zap.String("old_state", event.StateChange.OldState),
			zap.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			fields = append(fields, zap.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		fields = append(fields,
			zap.Stringer("error_layer", event.Error.Layer),
			zap.String("error_msg", event.Error.Message),
			zap.String("error_context", event.Error.Context),
		)
		if event.Error.Class != "" {
			fields = append(fields, zap.String("error_class", event.Error.Class))
		}
		if event.Error.Fatal {
			fields = append(fields, zap.Bool("fatal", true))
		}
		if event.Error.RequestID != nil {
			fields = append(fields, zap.Uint32("request_id", *event.Error.RequestID))
		}
	}

	ce.Write(fields...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*ZapAdapter)(nil)
