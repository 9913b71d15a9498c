package transport

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/remus-protocol/remus-go/pkg/log"
	"github.com/remus-protocol/remus-go/pkg/pipeline"
	"github.com/remus-protocol/remus-go/pkg/wire"
)

const (
	// readChunk is the minimum free space offered to each stream read.
	readChunk = 4096

	// retainBufferSize is the largest idle read buffer kept between frames.
	retainBufferSize = 64 << 10
)

// Send entry states.
const (
	entryQueued int32 = iota
	entryWriting
	entryCancelled
)

// sendEntry is a prepared frame waiting in the send queue.
type sendEntry struct {
	frame []byte
	state atomic.Int32
	done  chan error
}

// prepare seals m and encodes its complete frame.
func (t *Transport) prepare(m wire.Message) (*sendEntry, wire.Message, error) {
	sealed, err := t.pipe.Seal(m)
	if err != nil {
		t.messageFailed(log.DirectionOut, err)
		return nil, wire.Message{}, err
	}
	frame, err := wire.AppendFrame(make([]byte, 0, wire.FrameSize(sealed.Payload.Len())), sealed, t.limits)
	if err != nil {
		err = &pipeline.MessageError{RequestID: m.RequestID, Kind: m.Kind, Err: err}
		t.messageFailed(log.DirectionOut, err)
		return nil, wire.Message{}, err
	}
	return &sendEntry{frame: frame, done: make(chan error, 1)}, sealed, nil
}

// enqueue places e in the send queue, waiting for room. While waiting it
// takes over the writer role if nobody holds it, so entries abandoned by
// cancelled senders cannot keep the queue full.
func (t *Transport) enqueue(ctx context.Context, e *sendEntry) error {
	for {
		select {
		case t.queue <- e:
			return nil
		case t.writer <- struct{}{}:
			t.drain(nil)
			<-t.writer
		case <-ctx.Done():
			return ctx.Err()
		case <-t.closed:
			return t.Err()
		}
	}
}

// await waits until e has been written, draining the queue itself when the
// writer role is free.
func (t *Transport) await(ctx context.Context, e *sendEntry) error {
	for {
		select {
		case err := <-e.done:
			return err
		case t.writer <- struct{}{}:
			t.drain(e)
			<-t.writer
		case <-ctx.Done():
			if e.state.CompareAndSwap(entryQueued, entryCancelled) {
				return ctx.Err()
			}
			return <-e.done
		case <-t.closed:
			if e.state.CompareAndSwap(entryQueued, entryCancelled) {
				return t.Err()
			}
			return <-e.done
		}
	}
}

// drain writes queued frames in order until own has been written or the
// queue is empty. The caller holds the writer token.
func (t *Transport) drain(own *sendEntry) {
	for {
		var e *sendEntry
		select {
		case e = <-t.queue:
		default:
			return
		}
		if !e.state.CompareAndSwap(entryQueued, entryWriting) {
			continue
		}
		e.done <- t.write(e.frame)
		if e == own {
			return
		}
	}
}

func (t *Transport) write(frame []byte) error {
	if err := t.usable(); err != nil {
		return err
	}
	if err := writeFull(t.stream, frame); err != nil {
		if t.State() != StateOpen {
			return t.Err()
		}
		return t.fail(fmt.Errorf("%w: write: %w", ErrIO, err), "send")
	}
	return nil
}

// sent records a frame the peer now has.
func (t *Transport) sent(m, sealed wire.Message, frame []byte) {
	t.stats.messagesSent.Add(1)
	t.stats.bytesSent.Add(uint64(len(frame)))
	if !t.capture {
		return
	}
	cat := log.CategoryOf(m.Kind)
	t.log(log.DirectionOut, log.LayerTransport, cat, func(e *log.Event) {
		e.Frame = log.NewFrameEvent(frame)
	})
	t.log(log.DirectionOut, log.LayerPipeline, cat, func(e *log.Event) {
		e.Message = &log.MessageEvent{
			Kind:        sealed.Kind,
			Flags:       sealed.Flags,
			RequestID:   sealed.RequestID,
			PayloadSize: m.Payload.Len(),
			WireSize:    sealed.Payload.Len(),
		}
	})
}

// writeFull writes all of p, retrying short writes.
func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// fill reads once from the stream into the free space of rbuf. need is the
// size of the pending frame, or zero when its length is not known yet.
func (t *Transport) fill(ctx context.Context, need int) (int, error) {
	t.grow(need)
	free := t.rbuf[len(t.rbuf):cap(t.rbuf)]
	n, err := t.readSome(ctx, free)
	t.rbuf = t.rbuf[:len(t.rbuf)+n]
	return n, err
}

// grow makes room for at least one readChunk, or the rest of a frame of
// size need if that is larger.
func (t *Transport) grow(need int) {
	target := len(t.rbuf) + readChunk
	if need > target {
		target = need
	}
	if target <= cap(t.rbuf) {
		return
	}
	size := 2 * cap(t.rbuf)
	if limit := int(t.limits.Max()) + wire.LengthPrefixSize + readChunk; size > limit {
		size = limit
	}
	if size < target {
		size = target
	}
	buf := make([]byte, len(t.rbuf), size)
	copy(buf, t.rbuf)
	t.rbuf = buf
}

// consume drops the first n buffered bytes.
func (t *Transport) consume(n int) {
	rest := copy(t.rbuf, t.rbuf[n:])
	t.rbuf = t.rbuf[:rest]
	if rest == 0 && cap(t.rbuf) > retainBufferSize {
		t.rbuf = nil
	}
}

// readSome reads from the stream, interrupting the read when ctx is
// cancelled if the stream supports read deadlines. The deadline is only
// touched once ctx fires; it is then reset to none, since the stream does
// not report the previous value.
func (t *Transport) readSome(ctx context.Context, p []byte) (int, error) {
	rd, ok := t.stream.(readDeadliner)
	if !ok || ctx.Done() == nil {
		return t.stream.Read(p)
	}

	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = rd.SetReadDeadline(time.Now())
		close(fired)
	})
	n, err := t.stream.Read(p)
	if stop() {
		return n, err
	}
	<-fired
	_ = rd.SetReadDeadline(time.Time{})
	if err != nil {
		return n, ctx.Err()
	}
	return n, nil
}
