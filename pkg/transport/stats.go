package transport

import "sync/atomic"

// Stats is a snapshot of transport counters.
type Stats struct {
	MessagesSent     uint64
	MessagesReceived uint64

	// BytesSent and BytesReceived count whole frames, length prefix included.
	BytesSent     uint64
	BytesReceived uint64

	// MessageErrors counts messages rejected by the pipeline in either
	// direction. AuthFailures is the subset that failed authentication.
	MessageErrors uint64
	AuthFailures  uint64

	// Backpressure counts TrySend calls rejected with ErrBackpressure.
	Backpressure uint64
}

type counters struct {
	messagesSent     atomic.Uint64
	messagesReceived atomic.Uint64
	bytesSent        atomic.Uint64
	bytesReceived    atomic.Uint64
	messageErrors    atomic.Uint64
	authFailures     atomic.Uint64
	backpressure     atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		MessagesSent:     c.messagesSent.Load(),
		MessagesReceived: c.messagesReceived.Load(),
		BytesSent:        c.bytesSent.Load(),
		BytesReceived:    c.bytesReceived.Load(),
		MessageErrors:    c.messageErrors.Load(),
		AuthFailures:     c.authFailures.Load(),
		Backpressure:     c.backpressure.Load(),
	}
}
