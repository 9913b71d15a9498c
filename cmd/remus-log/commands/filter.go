package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/remus-protocol/remus-go/pkg/log"
	"github.com/remus-protocol/remus-go/pkg/wire"
)

// FilterOptions holds filter criteria as given on the command line.
// Empty fields do not filter.
type FilterOptions struct {
	ConnID    string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
	Kind      string
	RequestID string
}

// Filter converts the options into a capture filter.
func (o FilterOptions) Filter() (log.Filter, error) {
	filter := log.Filter{ConnectionID: o.ConnID}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	if o.Layer != "" {
		l, err := ParseLayerFlag(o.Layer)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Layer = &l
	}
	if o.Direction != "" {
		d, err := ParseDirectionFlag(o.Direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}
	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	if o.Kind != "" {
		k, err := ParseKindFlag(o.Kind)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Kind = &k
	}
	if o.RequestID != "" {
		id, err := strconv.ParseUint(o.RequestID, 0, 32)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid request id %q: %w", o.RequestID, err)
		}
		rid := uint32(id)
		filter.RequestID = &rid
	}
	return filter, nil
}

// RunFilter copies the events of path matching opts into a new capture file
// and reports the count on w.
func RunFilter(path, output string, opts FilterOptions, w io.Writer) error {
	filter, err := opts.Filter()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Close()
			return fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
		count++
	}
	if err := logger.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if n := logger.Dropped(); n > 0 {
		return fmt.Errorf("failed to write %d events to %s", n, output)
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, output)
	return nil
}

// ParseLayerFlag parses a layer name (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "pipeline":
		return log.LayerPipeline, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport or pipeline)", s)
	}
}

// ParseDirectionFlag parses a direction name (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category name (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "control":
		return log.CategoryControl, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be message, control, state or error)", s)
	}
}

// ParseKindFlag parses a message kind name (case-insensitive).
func ParseKindFlag(s string) (wire.Kind, error) {
	for k := wire.KindData; k.IsValid(); k++ {
		if strings.EqualFold(k.String(), s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("invalid kind: %s (must be data, control, heartbeat, error, request or response)", s)
}
