package wire

import "fmt"

// Message is the unit of communication.
//
// Messages are values: once built they are not modified, and helpers such as
// WithFlags return a changed copy. Flags must be final before a message is
// handed to the pipeline, because encoding reads them.
type Message struct {
	Kind      Kind
	Flags     Flags
	RequestID uint32
	Payload   Payload
}

// NewMessage creates a message with the given kind, flags, request ID and
// payload bytes. The payload is wrapped without copying.
func NewMessage(kind Kind, flags Flags, requestID uint32, payload []byte) Message {
	return Message{
		Kind:      kind,
		Flags:     flags,
		RequestID: requestID,
		Payload:   WrapPayload(payload),
	}
}

// WithFlags returns a copy of m with its flags replaced.
func (m Message) WithFlags(flags Flags) Message {
	m.Flags = flags
	return m
}

// WithPayload returns a copy of m carrying p.
func (m Message) WithPayload(p Payload) Message {
	m.Payload = p
	return m
}

// Validate checks the message can be encoded.
func (m Message) Validate() error {
	if !m.Kind.IsValid() {
		return fmt.Errorf("%w: invalid kind %d", ErrMalformed, m.Kind)
	}
	if uint64(m.Payload.Len()) > maxPayloadLen {
		return fmt.Errorf("%w: payload length %d exceeds 32-bit field", ErrFrameTooLarge, m.Payload.Len())
	}
	return nil
}

// Equal returns true if both messages carry the same metadata and bytes.
func (m Message) Equal(other Message) bool {
	return m.Kind == other.Kind &&
		m.Flags == other.Flags &&
		m.RequestID == other.RequestID &&
		m.Payload.Equal(other.Payload)
}

// String returns a short description for logs.
func (m Message) String() string {
	return fmt.Sprintf("%s id=%d flags=%s len=%d", m.Kind, m.RequestID, m.Flags, m.Payload.Len())
}
