package transport

import (
	"bytes"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/remus-protocol/remus-go/pkg/aead"
	"github.com/remus-protocol/remus-go/pkg/compress"
	"github.com/remus-protocol/remus-go/pkg/log"
	"github.com/remus-protocol/remus-go/pkg/pipeline"
	"github.com/remus-protocol/remus-go/pkg/wire"
)

var (
	keyA = bytes.Repeat([]byte{0xa1}, aead.KeySize)
	keyB = bytes.Repeat([]byte{0xb2}, aead.KeySize)
)

// memStream reads from r and collects writes.
type memStream struct {
	mu     sync.Mutex
	r      io.Reader
	out    bytes.Buffer
	closed bool
}

func newMemStream(input []byte) *memStream {
	return &memStream{r: bytes.NewReader(input)}
}

func (s *memStream) Read(p []byte) (int, error) {
	if s.r == nil {
		return 0, io.EOF
	}
	return s.r.Read(p)
}

func (s *memStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	return s.out.Write(p)
}

func (s *memStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *memStream) written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.out.Bytes()...)
}

// gatedStream blocks every Write until the gate is opened.
type gatedStream struct {
	memStream
	gate    chan struct{}
	writing atomic.Int32
}

func newGatedStream() *gatedStream {
	return &gatedStream{gate: make(chan struct{})}
}

func (s *gatedStream) Write(p []byte) (int, error) {
	s.writing.Add(1)
	<-s.gate
	return s.memStream.Write(p)
}

func (s *gatedStream) open() { close(s.gate) }

// chunkReader returns at most size bytes per Read.
type chunkReader struct {
	r    io.Reader
	size int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(p) > c.size {
		p = p[:c.size]
	}
	return c.r.Read(p)
}

func (c *chunkReader) Write(p []byte) (int, error) { return len(p), nil }

// failingWriter fails every write.
type failingWriter struct {
	memStream
	err error
}

func (s *failingWriter) Write([]byte) (int, error) { return 0, s.err }

// recordingLogger keeps every event.
type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingLogger) all() []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]log.Event(nil), r.events...)
}

func newTestPipeline(t *testing.T, key []byte) *pipeline.Pipeline {
	t.Helper()
	opts := pipeline.Options{
		Compressor:  compress.Zstd(),
		Compression: compress.DefaultOptions(),
		Limits:      wire.DefaultLimits(),
		BindHeader:  true,
	}
	if key != nil {
		c, err := aead.NewAESGCM(key)
		require.NoError(t, err)
		opts.Cipher = c
	}
	p, err := pipeline.New(opts)
	require.NoError(t, err)
	return p
}

func frames(t *testing.T, p *pipeline.Pipeline, msgs ...wire.Message) []byte {
	t.Helper()
	var out []byte
	for _, m := range msgs {
		var err error
		out, err = p.AppendFrame(out, m)
		require.NoError(t, err)
	}
	return out
}

// decodeIDs parses plain frames and returns their request IDs.
func decodeIDs(t *testing.T, buf []byte) []uint32 {
	t.Helper()
	var ids []uint32
	for len(buf) > 0 {
		m, n, err := wire.Decode(buf, wire.DefaultLimits())
		require.NoError(t, err)
		ids = append(ids, m.RequestID)
		buf = buf[n:]
	}
	return ids
}

func dataMessage(id uint32, payload string) wire.Message {
	return wire.NewMessage(wire.KindData, 0, id, []byte(payload))
}
