package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/remus-protocol/remus-go/pkg/aead"
	"github.com/remus-protocol/remus-go/pkg/log"
	"github.com/remus-protocol/remus-go/pkg/pipeline"
	"github.com/remus-protocol/remus-go/pkg/wire"
)

// maxEmptyReads bounds consecutive (0, nil) reads before the stream is
// considered broken.
const maxEmptyReads = 100

// minFrameSize is the smallest total_length able to hold a header.
const minFrameSize = wire.HeaderSize - wire.LengthPrefixSize

// Transport sends and receives whole messages over a Stream.
//
// All methods are safe for concurrent use. Sends are serialized in FIFO
// order; Receive calls are serialized with each other.
type Transport struct {
	id     string
	stream Stream
	pipe   *pipeline.Pipeline
	limits wire.Limits

	logger  log.Logger
	capture bool
	slog    *slog.Logger

	localAddr  string
	remoteAddr string

	state  atomic.Int32
	mu     sync.Mutex
	err    error
	closed chan struct{}

	// queue holds prepared frames waiting for the writer. writer is a
	// one-slot token held by the sender currently draining queue.
	queue  chan *sendEntry
	writer chan struct{}

	// reader is a one-slot token guarding rbuf and eof.
	reader chan struct{}
	rbuf   []byte
	eof    bool

	stats counters
}

// New returns an open Transport running pipe over stream.
// A nil pipe sends messages untransformed.
func New(stream Stream, pipe *pipeline.Pipeline, cfg Config) *Transport {
	if pipe == nil {
		pipe = pipeline.Plain()
	}
	capture := cfg.Logger != nil
	cfg = cfg.normalized()

	limits := pipe.Limits()
	invalidMax := cfg.MaxFrameSize != 0 && cfg.MaxFrameSize < minFrameSize
	if cfg.MaxFrameSize != 0 && !invalidMax {
		limits = wire.Limits{MaxFrameSize: cfg.MaxFrameSize}
	}

	t := &Transport{
		id:      uuid.NewString(),
		stream:  stream,
		pipe:    pipe,
		limits:  limits,
		logger:  cfg.Logger,
		capture: capture,
		closed:  make(chan struct{}),
		queue:   make(chan *sendEntry, cfg.SendQueueCapacity),
		writer:  make(chan struct{}, 1),
		reader:  make(chan struct{}, 1),
	}
	if a, ok := stream.(addresser); ok {
		if addr := a.LocalAddr(); addr != nil {
			t.localAddr = addr.String()
		}
		if addr := a.RemoteAddr(); addr != nil {
			t.remoteAddr = addr.String()
		}
	}
	t.slog = cfg.Slog.With("conn_id", t.id)
	t.state.Store(int32(StateOpen))
	if invalidMax {
		t.slog.Warn("max frame size cannot hold a frame header, using pipeline limit",
			"configured", cfg.MaxFrameSize, "using", limits.Max())
	}

	t.slog.Debug("transport opened", "remote", t.remoteAddr, "max_frame_size", limits.Max())
	t.logState(StateOpen, "", "")
	return t
}

// ConnectionID returns the identifier used in logs and capture events.
func (t *Transport) ConnectionID() string {
	return t.id
}

// State returns the lifecycle state.
func (t *Transport) State() State {
	return State(t.state.Load())
}

// Err returns the error that closed the transport, or nil while it is open.
func (t *Transport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Stats returns a snapshot of the transport counters.
func (t *Transport) Stats() Stats {
	return t.stats.snapshot()
}

// Send seals m and writes its frame, waiting for queue room if needed.
//
// If ctx is cancelled before the frame starts writing, nothing is written
// and ctx.Err() is returned. Once writing has started Send waits for it to
// finish. A *pipeline.MessageError means only m was rejected.
func (t *Transport) Send(ctx context.Context, m wire.Message) error {
	if err := t.usable(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e, sealed, err := t.prepare(m)
	if err != nil {
		return err
	}
	if err := t.enqueue(ctx, e); err != nil {
		return err
	}
	if err := t.await(ctx, e); err != nil {
		return err
	}
	t.sent(m, sealed, e.frame)
	return nil
}

// TrySend is like Send but returns ErrBackpressure instead of waiting when
// the send queue is full. Once queued it waits for its frame to be written.
func (t *Transport) TrySend(m wire.Message) error {
	if err := t.usable(); err != nil {
		return err
	}
	e, sealed, err := t.prepare(m)
	if err != nil {
		return err
	}
	select {
	case t.queue <- e:
	default:
		t.stats.backpressure.Add(1)
		return ErrBackpressure
	}
	if err := t.await(context.Background(), e); err != nil {
		return err
	}
	t.sent(m, sealed, e.frame)
	return nil
}

// Receive returns the next message from the stream.
//
// It returns io.EOF when the peer closed the stream between frames. A
// *pipeline.MessageError means one frame was consumed but rejected; the
// transport stays usable. If ctx is cancelled, ctx.Err() is returned and
// bytes already read stay buffered. Cancellation interrupts a blocked read
// only when the stream supports SetReadDeadline.
//
// A read deadline set on the stream by the caller is honored: Receive
// returns the deadline error and the transport stays usable. Interrupting
// a read for a cancelled ctx clears the stream's read deadline, so callers
// that cancel Receive should express read timeouts through ctx.
func (t *Transport) Receive(ctx context.Context) (wire.Message, error) {
	select {
	case t.reader <- struct{}{}:
	case <-ctx.Done():
		return wire.Message{}, ctx.Err()
	}
	defer func() { <-t.reader }()

	emptyReads := 0
	for {
		if err := t.usable(); err != nil {
			return wire.Message{}, err
		}

		n, complete, err := wire.PeekFrameLength(t.rbuf, t.limits)
		if err != nil {
			return wire.Message{}, t.fail(err, "receive")
		}
		if complete {
			return t.deliver(n)
		}

		if t.eof {
			if len(t.rbuf) == 0 {
				return wire.Message{}, io.EOF
			}
			return wire.Message{}, t.fail(
				fmt.Errorf("%w: %d bytes buffered at end of stream", ErrTruncatedFrame, len(t.rbuf)), "receive")
		}
		if err := ctx.Err(); err != nil {
			return wire.Message{}, err
		}

		read, err := t.fill(ctx, n)
		if read == 0 && err == nil {
			emptyReads++
			if emptyReads >= maxEmptyReads {
				return wire.Message{}, t.fail(fmt.Errorf("%w: %w", ErrIO, io.ErrNoProgress), "receive")
			}
			continue
		}
		emptyReads = 0

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			t.eof = true
		case ctx.Err() != nil && errors.Is(err, ctx.Err()):
			return wire.Message{}, err
		case errors.Is(err, os.ErrDeadlineExceeded):
			return wire.Message{}, err
		default:
			if t.State() != StateOpen {
				return wire.Message{}, t.Err()
			}
			return wire.Message{}, t.fail(fmt.Errorf("%w: read: %w", ErrIO, err), "receive")
		}
	}
}

// deliver decodes and opens the n-byte frame at the start of rbuf, then
// consumes it.
func (t *Transport) deliver(n int) (wire.Message, error) {
	frame := t.rbuf[:n]
	m, _, err := wire.Decode(frame, t.limits)
	if err != nil {
		return wire.Message{}, t.fail(err, "receive")
	}
	if t.capture {
		t.log(log.DirectionIn, log.LayerTransport, log.CategoryOf(m.Kind), func(e *log.Event) {
			e.Frame = log.NewFrameEvent(frame)
		})
	}
	wireSize := m.Payload.Len()

	opened, err := t.pipe.OpenWithLimit(m, t.limits.Max())
	if err == nil && opened.Flags.Transforms() == 0 {
		opened = opened.WithPayload(wire.NewPayload(opened.Payload.Bytes()))
	}
	t.consume(n)
	t.stats.bytesReceived.Add(uint64(n))

	if err != nil {
		t.messageFailed(log.DirectionIn, err)
		return wire.Message{}, err
	}

	t.stats.messagesReceived.Add(1)
	if t.capture {
		t.log(log.DirectionIn, log.LayerPipeline, log.CategoryOf(opened.Kind), func(e *log.Event) {
			e.Message = &log.MessageEvent{
				Kind:        opened.Kind,
				Flags:       opened.Flags,
				RequestID:   opened.RequestID,
				PayloadSize: opened.Payload.Len(),
				WireSize:    wireSize,
			}
		})
	}
	return opened, nil
}

// Close closes the transport and the stream if it implements io.Closer.
// Pending and later calls return ErrClosed. Closing again returns nil.
func (t *Transport) Close() error {
	return t.shutdown(StateClosed, ErrClosed, "close")
}

func (t *Transport) usable() error {
	if t.State() == StateOpen {
		return nil
	}
	return t.Err()
}

// fail records a connection-fatal error and returns the recorded error.
func (t *Transport) fail(cause error, op string) error {
	_ = t.shutdown(StateFailed, cause, op)
	return t.Err()
}

func (t *Transport) shutdown(state State, cause error, op string) error {
	t.mu.Lock()
	if t.err != nil {
		t.mu.Unlock()
		return nil
	}
	old := t.State()
	t.state.Store(int32(state))
	close(t.closed)

	var closeErr error
	if c, ok := t.stream.(io.Closer); ok {
		closeErr = c.Close()
	}
	t.err = cause
	if state == StateFailed && closeErr != nil {
		t.err = multierr.Append(cause, fmt.Errorf("close stream: %w", closeErr))
	}
	recorded := t.err
	t.mu.Unlock()

	if state == StateFailed {
		t.slog.Error("transport failed", "op", op, "error", recorded)
		t.log(log.DirectionIn, log.LayerTransport, log.CategoryError, func(e *log.Event) {
			e.Error = &log.ErrorEventData{
				Layer:   log.LayerTransport,
				Message: recorded.Error(),
				Class:   errorClass(cause),
				Context: op,
				Fatal:   true,
			}
		})
	} else {
		t.slog.Debug("transport closed")
	}
	t.logState(state, old.String(), cause.Error())

	if state == StateFailed {
		return nil
	}
	return closeErr
}

// messageFailed records a message-level pipeline failure.
func (t *Transport) messageFailed(dir log.Direction, err error) {
	t.stats.messageErrors.Add(1)
	if errors.Is(err, aead.ErrAuthenticationFailed) {
		t.stats.authFailures.Add(1)
		if dir == log.DirectionIn {
			t.slog.Warn("message failed authentication, possible tampering", "error", err)
		}
	}

	data := &log.ErrorEventData{
		Layer:   log.LayerPipeline,
		Message: err.Error(),
		Class:   errorClass(err),
		Context: "send",
	}
	if dir == log.DirectionIn {
		data.Context = "receive"
	}
	var me *pipeline.MessageError
	if errors.As(err, &me) {
		id := me.RequestID
		data.RequestID = &id
	}
	t.log(dir, log.LayerPipeline, log.CategoryError, func(e *log.Event) {
		e.Error = data
	})
}

func (t *Transport) log(dir log.Direction, layer log.Layer, cat log.Category, fill func(*log.Event)) {
	if !t.capture {
		return
	}
	e := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: t.id,
		Direction:    dir,
		Layer:        layer,
		Category:     cat,
		LocalAddr:    t.localAddr,
		RemoteAddr:   t.remoteAddr,
	}
	fill(&e)
	t.logger.Log(e)
}

func (t *Transport) logState(state State, old, reason string) {
	t.log(log.DirectionOut, log.LayerTransport, log.CategoryState, func(e *log.Event) {
		e.StateChange = &log.StateChangeEvent{
			OldState: old,
			NewState: state.String(),
			Reason:   reason,
		}
	})
}
