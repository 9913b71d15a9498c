package log

import (
	"errors"
	"io"
	"iter"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/remus-protocol/remus-go/pkg/wire"
)

// Filter selects events. A zero field places no constraint; set fields
// must all match.
type Filter struct {
	ConnectionID string
	Direction    *Direction
	Layer        *Layer
	Category     *Category

	// [TimeStart, TimeEnd)
	TimeStart *time.Time
	TimeEnd   *time.Time

	// Kind only matches message events.
	Kind *wire.Kind

	// RequestID matches message events and errors tied to a message.
	RequestID *uint32
}

// Matches reports whether event satisfies every set criterion.
func (f *Filter) Matches(event Event) bool {
	switch {
	case f.ConnectionID != "" && f.ConnectionID != event.ConnectionID,
		!match(f.Direction, event.Direction),
		!match(f.Layer, event.Layer),
		!match(f.Category, event.Category):
		return false
	case f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart),
		f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd):
		return false
	case f.Kind != nil && (event.Message == nil || event.Message.Kind != *f.Kind):
		return false
	case f.RequestID != nil:
		id, ok := requestIDOf(event)
		return ok && id == *f.RequestID
	}
	return true
}

func match[T comparable](want *T, got T) bool {
	return want == nil || *want == got
}

func requestIDOf(event Event) (uint32, bool) {
	switch {
	case event.Message != nil:
		return event.Message.RequestID, true
	case event.Error != nil && event.Error.RequestID != nil:
		return *event.Error.RequestID, true
	}
	return 0, false
}

// Reader streams events out of a capture without loading it whole.
type Reader struct {
	src    io.Closer
	dec    *cbor.Decoder
	filter Filter
}

// NewReader opens the capture file at path.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens the capture file at path and yields only events
// matching filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewStreamReader(f, filter)
	r.src = f
	return r, nil
}

// NewStreamReader reads events from r, which stays owned by the caller.
func NewStreamReader(r io.Reader, filter Filter) *Reader {
	return &Reader{dec: NewDecoder(r), filter: filter}
}

// Next returns the next matching event, or io.EOF at the end of the
// capture. A partially written trailing event is reported as an error.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		err := r.dec.Decode(&event)
		if errors.Is(err, io.EOF) {
			return Event{}, io.EOF
		}
		if err != nil {
			return Event{}, err
		}
		if r.filter.Matches(event) {
			return event, nil
		}
	}
}

// All iterates the remaining events. Iteration stops after the first
// error, which is yielded with a zero Event.
func (r *Reader) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			event, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(event, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the file opened by NewReader or NewFilteredReader.
func (r *Reader) Close() error {
	if r.src == nil {
		return nil
	}
	return r.src.Close()
}
