package pipeline

import (
	"errors"
	"fmt"

	"github.com/remus-protocol/remus-go/pkg/wire"
)

// ErrMessage marks a failure that affects a single message. The frame
// boundaries around it were intact, so a connection can keep going.
var ErrMessage = errors.New("message rejected")

// MessageError reports which message a stage failed on.
type MessageError struct {
	RequestID uint32
	Kind      wire.Kind
	Err       error
}

func (e *MessageError) Error() string {
	return fmt.Sprintf("%s id=%d: %v", e.Kind, e.RequestID, e.Err)
}

// Unwrap exposes both ErrMessage and the stage error to errors.Is.
func (e *MessageError) Unwrap() []error {
	return []error{ErrMessage, e.Err}
}

func messageError(m wire.Message, err error) error {
	return &MessageError{RequestID: m.RequestID, Kind: m.Kind, Err: err}
}
