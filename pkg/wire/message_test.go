package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindData, "DATA"},
		{KindControl, "CONTROL"},
		{KindHeartbeat, "HEARTBEAT"},
		{KindError, "ERROR"},
		{KindRequest, "REQUEST"},
		{KindResponse, "RESPONSE"},
		{Kind(6), "UNKNOWN"},
		{KindReservedMin, "RESERVED"},
		{Kind(0xFF), "RESERVED"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
		assert.Equal(t, tt.kind <= KindResponse, tt.kind.IsValid(), "IsValid(%d)", tt.kind)
	}
}

func TestFlags(t *testing.T) {
	f := FlagNone.With(FlagCompressed).With(FlagUrgent)
	assert.True(t, f.Has(FlagCompressed))
	assert.True(t, f.Has(FlagCompressed|FlagUrgent))
	assert.False(t, f.Has(FlagEncrypted))
	assert.Equal(t, FlagCompressed, f.Transforms())
	assert.Equal(t, FlagUrgent, f.Without(FlagCompressed))
	assert.Equal(t, "COMPRESSED|URGENT", f.String())
	assert.Equal(t, "NONE", FlagNone.String())
}

func TestPayloadSharing(t *testing.T) {
	src := []byte("hello world")
	owned := NewPayload(src)
	wrapped := WrapPayload(src)

	src[0] = 'j'
	assert.Equal(t, "hello world", owned.String(), "NewPayload must copy")
	assert.Equal(t, "jello world", wrapped.String(), "WrapPayload must not copy")

	sub := owned.Slice(6, 11)
	assert.Equal(t, "world", sub.String())
	assert.Equal(t, 5, sub.Len())
	assert.Same(t, &owned.Bytes()[6], &sub.Bytes()[0], "Slice must share storage")

	clone := owned.Clone()
	clone[0] = 'y'
	assert.Equal(t, "hello world", owned.String(), "Clone must not alias")

	assert.True(t, Payload{}.IsEmpty())
	assert.True(t, NewPayload(nil).Equal(WrapPayload([]byte{})))
	assert.Nil(t, Payload{}.Clone())
}

func TestPayloadSliceCannotGrowIntoParent(t *testing.T) {
	p := NewPayload([]byte("abcdef"))
	sub := p.Slice(0, 3)
	grown := append(sub.Bytes(), 'X')
	_ = grown
	assert.Equal(t, "abcdef", p.String())
}

func TestMessageHelpers(t *testing.T) {
	m := NewMessage(KindRequest, FlagNone, 3, []byte("x"))
	m2 := m.WithFlags(FlagHighPriority)
	assert.Equal(t, FlagNone, m.Flags, "WithFlags must not modify the receiver")
	assert.Equal(t, FlagHighPriority, m2.Flags)

	m3 := m.WithPayload(StringPayload("y"))
	assert.Equal(t, "x", m.Payload.String())
	assert.Equal(t, "y", m3.Payload.String())

	assert.Equal(t, "REQUEST id=3 flags=NONE len=1", m.String())
	require.NoError(t, m.Validate())
	assert.ErrorIs(t, Message{Kind: Kind(9)}.Validate(), ErrMalformed)
}

type greeting struct {
	Name  string `cbor:"1,keyasint"`
	Count int    `cbor:"2,keyasint"`
}

func TestNewRequestResponse(t *testing.T) {
	req, err := NewRequest(greeting{Name: "remus", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, KindRequest, req.Kind)
	assert.True(t, req.Flags.Has(FlagIdempotent))
	assert.NotZero(t, req.RequestID)

	var got greeting
	require.NoError(t, req.DecodePayload(&got))
	assert.Equal(t, greeting{Name: "remus", Count: 2}, got)

	resp, err := NewResponse(req.RequestID, map[string]int{"ok": 1})
	require.NoError(t, err)
	assert.Equal(t, KindResponse, resp.Kind)
	assert.Equal(t, req.RequestID, resp.RequestID)
}

func TestNewRequestIDSkipsZero(t *testing.T) {
	orig := randSource
	t.Cleanup(func() { randSource = orig })

	randSource = bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0, 7})
	id, err := NewRequestID()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), id)

	randSource = bytes.NewReader(nil)
	_, err = NewRequestID()
	assert.Error(t, err)
}

func TestErrorResponse(t *testing.T) {
	msg, err := NewErrorResponse(11, 404, "no such thing")
	require.NoError(t, err)

	ep, err := msg.DecodeError()
	require.NoError(t, err)
	assert.Equal(t, ErrorPayload{Code: 404, Message: "no such thing"}, ep)

	_, err = NewMessage(KindData, FlagNone, 1, nil).DecodeError()
	assert.ErrorIs(t, err, ErrPayloadEncoding)
}

func TestDecodePayloadGarbage(t *testing.T) {
	msg := NewMessage(KindResponse, FlagNone, 1, []byte{0xFF, 0xFF})
	var v map[string]any
	err := msg.DecodePayload(&v)
	assert.True(t, errors.Is(err, ErrPayloadEncoding))
}

func TestDecodePayloadRejectsAmbiguousInput(t *testing.T) {
	deep := bytes.Repeat([]byte{0x81}, 20)
	deep = append(deep, 0x00)

	tests := []struct {
		name string
		data []byte
	}{
		{"duplicate key", []byte{0xa2, 0x01, 0x01, 0x01, 0x02}},
		{"deep nesting", deep},
		{"indefinite length", []byte{0x9f, 0x01, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v any
			err := NewMessage(KindResponse, FlagNone, 1, tt.data).DecodePayload(&v)
			assert.ErrorIs(t, err, ErrPayloadEncoding)
		})
	}
}
