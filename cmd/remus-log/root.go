package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/remus-protocol/remus-go/cmd/remus-log/commands"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "remus-log",
		Short:        "Remus protocol capture analyzer",
		SilenceUsage: true,
	}
	root.AddCommand(newViewCmd(), newExportCmd(), newFilterCmd(), newStatsCmd())
	return root
}

// addFilterFlags binds the event filter flags shared by view and filter.
func addFilterFlags(cmd *cobra.Command, opts *commands.FilterOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.ConnID, "conn-id", "", "Filter by connection ID")
	flags.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339, inclusive)")
	flags.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339, exclusive)")
	flags.StringVar(&opts.Layer, "layer", "", "Filter by layer (transport, pipeline)")
	flags.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	flags.StringVar(&opts.Category, "category", "", "Filter by category (message, control, state, error)")
	flags.StringVar(&opts.Kind, "kind", "", "Filter by message kind (data, control, heartbeat, error, request, response)")
	flags.StringVar(&opts.RequestID, "request-id", "", "Filter by request ID")
}

func newViewCmd() *cobra.Command {
	var opts commands.FilterOptions
	cmd := &cobra.Command{
		Use:   "view [flags] <file.rcap>",
		Short: "View a capture file in human-readable format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunView(args[0], opts, cmd.OutOrStdout())
		},
	}
	addFilterFlags(cmd, &opts)
	return cmd
}

func newExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export [flags] <file.rcap>",
		Short: "Export a capture file to JSON lines or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunExport(args[0], format, output)
		},
	}
	cmd.Flags().StringVar(&format, "format", "jsonl", "Output format (jsonl, csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newFilterCmd() *cobra.Command {
	var (
		opts   commands.FilterOptions
		output string
	)
	cmd := &cobra.Command{
		Use:   "filter [flags] <file.rcap>",
		Short: "Write matching events to a new capture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("output file (-o) required")
			}
			return commands.RunFilter(args[0], output, opts, cmd.OutOrStdout())
		},
	}
	addFilterFlags(cmd, &opts)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (required)")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file.rcap>",
		Short: "Show statistics about a capture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunStats(args[0], cmd.OutOrStdout())
		},
	}
}
