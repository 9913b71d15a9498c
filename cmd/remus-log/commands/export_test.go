package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/remus-protocol/remus-go/pkg/log"
	"github.com/remus-protocol/remus-go/pkg/wire"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+log.FileExt)

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func exportEvents(ts time.Time) []log.Event {
	id := uint32(42)
	return []log.Event{
		{
			Timestamp: ts, ConnectionID: "abc12345", Direction: log.DirectionOut,
			Layer: log.LayerPipeline, Category: log.CategoryMessage,
			Message: &log.MessageEvent{Kind: wire.KindRequest, Flags: wire.FlagCompressed, RequestID: 42, PayloadSize: 2048, WireSize: 300},
		},
		{
			Timestamp: ts.Add(time.Second), ConnectionID: "abc12345", Direction: log.DirectionIn,
			Layer: log.LayerPipeline, Category: log.CategoryError,
			Error: &log.ErrorEventData{Layer: log.LayerPipeline, Message: "authentication failed", Class: "auth_failed", RequestID: &id},
		},
	}
}

func TestExportToJSONL(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	path := createTestLogFile(t, exportEvents(ts))
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var first log.Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 1 is not JSON: %v", err)
	}
	if first.Message == nil || first.Message.RequestID != 42 || first.Message.Kind != wire.KindRequest {
		t.Errorf("first event = %+v", first.Message)
	}
	if !first.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", first.Timestamp, ts)
	}
}

func TestExportToCSV(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	path := createTestLogFile(t, exportEvents(ts))
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][9] != "error_class" {
		t.Errorf("header = %v", rows[0])
	}

	want := []string{"2026-01-28T10:15:32.000000Z", "abc12345", "OUT", "PIPELINE", "MESSAGE",
		"REQUEST", "42", "COMPRESSED", "2048", ""}
	for i := range want {
		if rows[1][i] != want[i] {
			t.Errorf("row 1 column %d = %q, want %q", i, rows[1][i], want[i])
		}
	}
	if rows[2][5] != "Error" || rows[2][6] != "42" || rows[2][9] != "auth_failed" {
		t.Errorf("row 2 = %v", rows[2])
	}
}

func TestExportWritesToStdout(t *testing.T) {
	path := createTestLogFile(t, exportEvents(time.Now()))

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	runErr := RunExport(path, "jsonl", "")
	w.Close()
	os.Stdout = stdout

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatal(err)
	}
	if runErr != nil {
		t.Fatalf("RunExport failed: %v", runErr)
	}
	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Errorf("got %d lines on stdout, want 2", got)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, nil)
	err := RunExport(path, "xml", "")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

func TestExportMissingFile(t *testing.T) {
	if err := RunExport(filepath.Join(t.TempDir(), "missing"+log.FileExt), "jsonl", ""); err == nil {
		t.Error("expected error for missing capture file")
	}
}
