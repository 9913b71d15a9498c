package transport

import (
	"io"
	"net"
	"time"
)

// Stream is the duplex byte stream a Transport runs over. Reads and writes
// may be partial. net.Conn, net.Pipe ends and in-memory buffers all qualify.
//
// Optional capabilities are discovered by type assertion:
//   - io.Closer: called when the transport closes or fails.
//   - SetReadDeadline: lets a cancelled context interrupt a blocked Receive.
//   - LocalAddr/RemoteAddr: recorded in capture events.
type Stream interface {
	io.Reader
	io.Writer
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type addresser interface {
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}
