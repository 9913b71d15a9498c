package log

import (
	"time"

	"github.com/remus-protocol/remus-go/pkg/wire"
)

// MaxFrameDataSize bounds the frame bytes copied into a FrameEvent.
const MaxFrameDataSize = 4096

// Event is one captured protocol observation. Exactly one of Frame,
// Message, StateChange and Error is set.
type Event struct {
	Timestamp    time.Time `cbor:"1,keyasint"`
	ConnectionID string    `cbor:"2,keyasint"` // transport UUID
	Direction    Direction `cbor:"3,keyasint"`
	Layer        Layer     `cbor:"4,keyasint"`
	Category     Category  `cbor:"5,keyasint"`

	// Stream addresses, recorded when the stream exposes them.
	LocalAddr  string `cbor:"6,keyasint,omitempty"`
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Direction is relative to the local transport.
type Direction uint8

const (
	DirectionIn  Direction = 0 // received from the peer
	DirectionOut Direction = 1 // sent to the peer
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer names the part of the stack that produced an event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes, connection state).
	LayerTransport Layer = 0
	// LayerPipeline is the compression/encryption layer (messages).
	LayerPipeline Layer = 1
)

func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerPipeline:
		return "PIPELINE"
	default:
		return "UNKNOWN"
	}
}

// Category groups events for filtering.
type Category uint8

const (
	CategoryMessage Category = 0 // data, request, response and error kinds
	CategoryControl Category = 1 // control and heartbeat kinds
	CategoryState   Category = 2
	CategoryError   Category = 3
)

func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// CategoryOf returns the category for a message kind.
func CategoryOf(k wire.Kind) Category {
	switch k {
	case wire.KindControl, wire.KindHeartbeat:
		return CategoryControl
	default:
		return CategoryMessage
	}
}

// FrameEvent records the bytes of one frame as written or read.
type FrameEvent struct {
	// Size counts the whole frame, length prefix included.
	Size      int    `cbor:"1,keyasint"`
	Data      []byte `cbor:"2,keyasint,omitempty"`
	Truncated bool   `cbor:"3,keyasint,omitempty"` // Data holds only the first MaxFrameDataSize bytes
}

// NewFrameEvent captures frame, keeping at most MaxFrameDataSize bytes.
// The returned event owns its data.
func NewFrameEvent(frame []byte) *FrameEvent {
	data := frame
	truncated := false
	if len(data) > MaxFrameDataSize {
		data = data[:MaxFrameDataSize]
		truncated = true
	}
	return &FrameEvent{
		Size:      len(frame),
		Data:      append([]byte(nil), data...),
		Truncated: truncated,
	}
}

// MessageEvent captures a message as the pipeline saw it.
type MessageEvent struct {
	Kind      wire.Kind  `cbor:"1,keyasint"`
	Flags     wire.Flags `cbor:"2,keyasint"` // as carried on the wire
	RequestID uint32     `cbor:"3,keyasint"`

	// PayloadSize is the application payload; WireSize is the same payload
	// after compression and encryption.
	PayloadSize int `cbor:"4,keyasint"`
	WireSize    int `cbor:"5,keyasint"`
}

// StateChangeEvent records a transport lifecycle transition. OldState is
// empty for the initial OPEN.
type StateChangeEvent struct {
	OldState string `cbor:"1,keyasint,omitempty"`
	NewState string `cbor:"2,keyasint"`
	Reason   string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData describes a failed send or receive.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`

	// Class is a stable name for the error kind, e.g. "auth_failed".
	Class string `cbor:"3,keyasint,omitempty"`

	// Context is the operation that failed: "send" or "receive".
	Context string `cbor:"4,keyasint,omitempty"`

	// Fatal is set when the error closed the transport.
	Fatal     bool    `cbor:"5,keyasint,omitempty"`
	RequestID *uint32 `cbor:"6,keyasint,omitempty"`
}
