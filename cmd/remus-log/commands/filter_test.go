package commands

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/remus-protocol/remus-go/pkg/log"
	"github.com/remus-protocol/remus-go/pkg/wire"
)

func filterEvents(base time.Time) []log.Event {
	return []log.Event{
		{Timestamp: base, ConnectionID: "conn-1", Direction: log.DirectionOut, Layer: log.LayerTransport,
			Category: log.CategoryMessage, Frame: &log.FrameEvent{Size: 30}},
		{Timestamp: base.Add(time.Minute), ConnectionID: "conn-1", Direction: log.DirectionOut, Layer: log.LayerPipeline,
			Category: log.CategoryMessage, Message: &log.MessageEvent{Kind: wire.KindRequest, RequestID: 7}},
		{Timestamp: base.Add(2 * time.Minute), ConnectionID: "conn-2", Direction: log.DirectionIn, Layer: log.LayerPipeline,
			Category: log.CategoryMessage, Message: &log.MessageEvent{Kind: wire.KindResponse, RequestID: 7}},
		{Timestamp: base.Add(3 * time.Minute), ConnectionID: "conn-2", Direction: log.DirectionIn, Layer: log.LayerPipeline,
			Category: log.CategoryControl, Message: &log.MessageEvent{Kind: wire.KindHeartbeat}},
	}
}

func countEvents(t *testing.T, path string) int {
	t.Helper()
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	n := 0
	for {
		_, err := reader.Next()
		if err == io.EOF {
			return n
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		n++
	}
}

func TestRunFilter(t *testing.T) {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, filterEvents(base))

	tests := []struct {
		name string
		opts FilterOptions
		want int
	}{
		{"no filter", FilterOptions{}, 4},
		{"connection", FilterOptions{ConnID: "conn-1"}, 2},
		{"time range", FilterOptions{TimeStart: "2026-01-28T10:01:00Z", TimeEnd: "2026-01-28T10:03:00Z"}, 2},
		{"layer", FilterOptions{Layer: "transport"}, 1},
		{"direction", FilterOptions{Direction: "IN"}, 2},
		{"category", FilterOptions{Category: "control"}, 1},
		{"kind", FilterOptions{Kind: "response"}, 1},
		{"request id", FilterOptions{RequestID: "7"}, 2},
		{"request id hex", FilterOptions{RequestID: "0x7"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "filtered"+log.FileExt)
			var report bytes.Buffer
			if err := RunFilter(path, out, tt.opts, &report); err != nil {
				t.Fatalf("RunFilter failed: %v", err)
			}
			if got := countEvents(t, out); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
			if !strings.Contains(report.String(), "Filtered ") {
				t.Errorf("report = %q", report.String())
			}
		})
	}
}

func TestFilterOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts FilterOptions
	}{
		{"time start", FilterOptions{TimeStart: "yesterday"}},
		{"time end", FilterOptions{TimeEnd: "2026-13-01"}},
		{"layer", FilterOptions{Layer: "wire"}},
		{"direction", FilterOptions{Direction: "up"}},
		{"category", FilterOptions{Category: "snapshot"}},
		{"kind", FilterOptions{Kind: "notify"}},
		{"request id", FilterOptions{RequestID: "-1"}},
		{"request id overflow", FilterOptions{RequestID: "4294967296"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.opts.Filter(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseKindFlag(t *testing.T) {
	for _, k := range []wire.Kind{wire.KindData, wire.KindControl, wire.KindHeartbeat,
		wire.KindError, wire.KindRequest, wire.KindResponse} {
		got, err := ParseKindFlag(strings.ToLower(k.String()))
		if err != nil {
			t.Errorf("ParseKindFlag(%s): %v", k, err)
		}
		if got != k {
			t.Errorf("ParseKindFlag(%s) = %v", k, got)
		}
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("Pipeline"); err != nil || l != log.LayerPipeline {
		t.Errorf("ParseLayerFlag = %v, %v", l, err)
	}
	if d, err := ParseDirectionFlag("out"); err != nil || d != log.DirectionOut {
		t.Errorf("ParseDirectionFlag = %v, %v", d, err)
	}
	if c, err := ParseCategoryFlag("STATE"); err != nil || c != log.CategoryState {
		t.Errorf("ParseCategoryFlag = %v, %v", c, err)
	}
}
