package wire

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Typed payloads come from the peer, so decoding rejects ambiguous maps
// and bounds nesting. Unknown fields are ignored to allow newer peers to add
// keys.
const maxPayloadNesting = 16

var (
	encMode = mustEncMode(cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnixMicro,
	})
	decMode = mustDecMode(cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IndefLength:     cbor.IndefLengthForbidden,
		MaxNestedLevels: maxPayloadNesting,
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	m, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: cbor encode options: %v", err))
	}
	return m
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	m, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: cbor decode options: %v", err))
	}
	return m
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// ErrorPayload is the CBOR body of a KindError message.
//
// CBOR encoding:
//
//	{
//	  1: code,     // uint16
//	  2: message   // text
//	}
type ErrorPayload struct {
	Code    uint16 `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint,omitempty"`
}

// randSource supplies request IDs. Replaced in tests.
var randSource io.Reader = rand.Reader

// NewRequestID returns a random non-zero request ID.
func NewRequestID() (uint32, error) {
	var b [4]byte
	for {
		if _, err := io.ReadFull(randSource, b[:]); err != nil {
			return 0, fmt.Errorf("request id: %w", err)
		}
		if id := binary.BigEndian.Uint32(b[:]); id != 0 {
			return id, nil
		}
	}
}

// NewRequest encodes v as the payload of a new idempotent request with a
// random request ID.
func NewRequest(v any) (Message, error) {
	id, err := NewRequestID()
	if err != nil {
		return Message{}, err
	}
	data, err := Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrPayloadEncoding, err)
	}
	return NewMessage(KindRequest, FlagIdempotent, id, data), nil
}

// NewResponse encodes v as the payload of a response to requestID.
func NewResponse(requestID uint32, v any) (Message, error) {
	data, err := Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrPayloadEncoding, err)
	}
	return NewMessage(KindResponse, FlagNone, requestID, data), nil
}

// NewErrorResponse builds a KindError message answering requestID.
func NewErrorResponse(requestID uint32, code uint16, msg string) (Message, error) {
	data, err := Marshal(ErrorPayload{Code: code, Message: msg})
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrPayloadEncoding, err)
	}
	return NewMessage(KindError, FlagNone, requestID, data), nil
}

// DecodePayload decodes the CBOR payload of m into v.
func (m Message) DecodePayload(v any) error {
	if err := Unmarshal(m.Payload.Bytes(), v); err != nil {
		return fmt.Errorf("%w: %w", ErrPayloadEncoding, err)
	}
	return nil
}

// DecodeError decodes the payload of a KindError message.
func (m Message) DecodeError() (ErrorPayload, error) {
	if m.Kind != KindError {
		return ErrorPayload{}, fmt.Errorf("%w: not an error message: %s", ErrPayloadEncoding, m.Kind)
	}
	var ep ErrorPayload
	if err := m.DecodePayload(&ep); err != nil {
		return ErrorPayload{}, err
	}
	return ep, nil
}
