package commands

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/remus-protocol/remus-go/pkg/log"
	"github.com/remus-protocol/remus-go/pkg/wire"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	MessagesByKind    map[wire.Kind]int
	Connections       map[string]*ConnectionStats

	// Payload and wire sizes summed over message events, for the
	// compression ratio.
	PayloadBytes int
	WireBytes    int

	Errors       int
	AuthFailures int
	FatalErrors  int

	TimeRange struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats aggregates the events of one transport.
type ConnectionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	RemoteAddr string
	BytesIn    int
	BytesOut   int
	FinalState string
}

// Collect reads every event of path into a Stats.
func Collect(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		MessagesByKind:    make(map[wire.Kind]int),
		Connections:       make(map[string]*ConnectionStats),
	}

	for event, err := range reader.All() {
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	conn, ok := s.Connections[event.ConnectionID]
	if !ok {
		conn = &ConnectionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Connections[event.ConnectionID] = conn
	}
	conn.Events++
	if event.Timestamp.After(conn.LastSeen) {
		conn.LastSeen = event.Timestamp
	}
	if conn.RemoteAddr == "" {
		conn.RemoteAddr = event.RemoteAddr
	}

	switch {
	case event.Frame != nil:
		if event.Direction == log.DirectionIn {
			conn.BytesIn += event.Frame.Size
		} else {
			conn.BytesOut += event.Frame.Size
		}
	case event.Message != nil:
		s.MessagesByKind[event.Message.Kind]++
		s.PayloadBytes += event.Message.PayloadSize
		s.WireBytes += event.Message.WireSize
	case event.StateChange != nil:
		conn.FinalState = event.StateChange.NewState
	case event.Error != nil:
		s.Errors++
		if event.Error.Class == "auth_failed" {
			s.AuthFailures++
		}
		if event.Error.Fatal {
			s.FatalErrors++
		}
	}
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := Collect(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "=== Remus Capture Statistics ===")
	fmt.Fprintf(tw, "events\t%d\n", stats.TotalEvents)
	if stats.TotalEvents > 0 {
		span := stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second)
		fmt.Fprintf(tw, "span\t%s .. %s (%s)\n",
			stats.TimeRange.Start.Format(time.RFC3339), stats.TimeRange.End.Format(time.RFC3339), span)
	}

	section(tw, "layer", []log.Layer{log.LayerTransport, log.LayerPipeline}, stats.EventsByLayer)
	section(tw, "category",
		[]log.Category{log.CategoryMessage, log.CategoryControl, log.CategoryState, log.CategoryError},
		stats.EventsByCategory)
	section(tw, "direction", []log.Direction{log.DirectionIn, log.DirectionOut}, stats.EventsByDirection)

	var kinds []wire.Kind
	for k := wire.KindData; k.IsValid(); k++ {
		kinds = append(kinds, k)
	}
	section(tw, "kind", kinds, stats.MessagesByKind)
	if stats.PayloadBytes > 0 {
		fmt.Fprintf(tw, "  payload/wire\t%d/%d bytes (%.1f%%)\n",
			stats.PayloadBytes, stats.WireBytes, 100*float64(stats.WireBytes)/float64(stats.PayloadBytes))
	}

	ids := make([]string, 0, len(stats.Connections))
	for id := range stats.Connections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return stats.Connections[ids[i]].FirstSeen.Before(stats.Connections[ids[j]].FirstSeen)
	})

	fmt.Fprintf(tw, "\nconnections\t%d\n", len(ids))
	for _, id := range ids {
		cs := stats.Connections[id]
		fmt.Fprintf(tw, "  %s\t%d events\t%s\tin %d B\tout %d B\t%s\t%s\n",
			shortenConnID(id), cs.Events, cs.LastSeen.Sub(cs.FirstSeen).Round(time.Millisecond),
			cs.BytesIn, cs.BytesOut, orDash(cs.FinalState), orDash(cs.RemoteAddr))
	}

	if stats.Errors > 0 {
		fmt.Fprintf(tw, "\nerrors\t%d (auth failures %d, fatal %d)\n",
			stats.Errors, stats.AuthFailures, stats.FatalErrors)
	}
}

// section prints the non-zero counts of keys in order under a heading.
func section[K comparable](w io.Writer, heading string, keys []K, counts map[K]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\nby %s\n", heading)
	for _, k := range keys {
		if n := counts[k]; n > 0 {
			fmt.Fprintf(w, "  %v\t%d\n", k, n)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
