package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/remus-protocol/remus-go/pkg/log"
	"github.com/remus-protocol/remus-go/pkg/wire"
)

func TestFormatFrameEvent(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		RemoteAddr:   "127.0.0.1:9000",
		Frame:        &log.FrameEvent{Size: 128, Data: []byte{0xa1, 0x01, 0x02, 0x03}, Truncated: true},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.123456Z",
		"[conn:abc12345]",
		"OUT TRANSPORT Frame",
		"Size: 128 bytes",
		"Data: a1010203 (truncated)",
		"Peer: 127.0.0.1:9000",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("missing %q in:\n%s", want, output)
		}
	}
}

func TestFormatMessageEvent(t *testing.T) {
	event := log.Event{
		ConnectionID: "conn",
		Direction:    log.DirectionIn,
		Layer:        log.LayerPipeline,
		Category:     log.CategoryMessage,
		Message: &log.MessageEvent{
			Kind: wire.KindResponse, Flags: wire.FlagEncrypted | wire.FlagCompressed,
			RequestID: 99, PayloadSize: 4000, WireSize: 512,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"[conn:conn]",
		"IN  PIPELINE RESPONSE",
		"RequestID: 99",
		"Flags: ENCRYPTED|COMPRESSED",
		"Payload: 4000 bytes (wire 512 bytes)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("missing %q in:\n%s", want, output)
		}
	}
}

func TestFormatControlMessageUsesCtrl(t *testing.T) {
	event := log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerPipeline,
		Category:  log.CategoryControl,
		Message:   &log.MessageEvent{Kind: wire.KindHeartbeat},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	if !strings.Contains(buf.String(), "OUT CTRL HEARTBEAT") {
		t.Errorf("got:\n%s", buf.String())
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	event := log.Event{
		Category:    log.CategoryState,
		StateChange: &log.StateChangeEvent{OldState: "OPEN", NewState: "FAILED", Reason: "truncated frame"},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "OPEN -> FAILED") {
		t.Errorf("missing transition in:\n%s", output)
	}
	if !strings.Contains(output, "Reason: truncated frame") {
		t.Errorf("missing reason in:\n%s", output)
	}
}

func TestFormatErrorEvent(t *testing.T) {
	id := uint32(5)
	event := log.Event{
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Layer: log.LayerTransport, Message: "stream i/o error", Class: "io",
			Context: "send", Fatal: true, RequestID: &id,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{"Error", "Class: io", "RequestID: 5", "Context: send", "Fatal: connection closed"} {
		if !strings.Contains(output, want) {
			t.Errorf("missing %q in:\n%s", want, output)
		}
	}
}

func TestRunViewFilters(t *testing.T) {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, filterEvents(base))

	tests := []struct {
		name string
		opts FilterOptions
		want int
	}{
		{"all", FilterOptions{}, 4},
		{"direction", FilterOptions{Direction: "out"}, 2},
		{"layer", FilterOptions{Layer: "pipeline"}, 3},
		{"category", FilterOptions{Category: "control"}, 1},
		{"connection", FilterOptions{ConnID: "conn-2"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RunView(path, tt.opts, &buf); err != nil {
				t.Fatalf("RunView failed: %v", err)
			}
			if got := strings.Count(buf.String(), "[conn:"); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestRunViewInvalidFilter(t *testing.T) {
	path := createTestLogFile(t, nil)
	var buf bytes.Buffer
	if err := RunView(path, FilterOptions{Layer: "service"}, &buf); err == nil {
		t.Error("expected error for invalid layer")
	}
}

func TestShortenConnID(t *testing.T) {
	if got := shortenConnID("0123456789"); got != "01234567" {
		t.Errorf("got %q", got)
	}
	if got := shortenConnID("abc"); got != "abc" {
		t.Errorf("got %q", got)
	}
}
