package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/remus-protocol/remus-go/pkg/log"
)

// RunExport converts the capture file at path to jsonl or csv. An empty
// output writes to stdout.
func RunExport(path, format, output string) error {
	if format != "jsonl" && format != "csv" {
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "csv" {
		return exportCSV(reader, w)
	}
	return exportJSONL(reader, w)
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for event, err := range reader.All() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"timestamp", "connection_id", "direction", "layer", "category",
		"type", "request_id", "flags", "size", "error_class"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		var requestID, flags, size, class string
		switch {
		case event.Frame != nil:
			size = strconv.Itoa(event.Frame.Size)
		case event.Message != nil:
			requestID = strconv.FormatUint(uint64(event.Message.RequestID), 10)
			flags = event.Message.Flags.String()
			size = strconv.Itoa(event.Message.PayloadSize)
		case event.Error != nil:
			class = event.Error.Class
			if event.Error.RequestID != nil {
				requestID = strconv.FormatUint(uint64(*event.Error.RequestID), 10)
			}
		}

		row := []string{
			event.Timestamp.UTC().Format(timeLayout),
			event.ConnectionID,
			event.Direction.String(),
			event.Layer.String(),
			event.Category.String(),
			eventLabel(event),
			requestID,
			flags,
			size,
			class,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
