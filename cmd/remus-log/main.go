// Command remus-log views and analyzes remus protocol capture files.
//
// Capture files are written by log.FileLogger when a transport is created
// with a capture logger.
//
// Usage:
//
//	remus-log <command> [flags] <file.rcap>
//
// Examples:
//
//	# View all events
//	remus-log view session.rcap
//
//	# View only outgoing pipeline events
//	remus-log view --layer pipeline --direction out session.rcap
//
//	# Export to CSV
//	remus-log export --format csv -o session.csv session.rcap
//
//	# Keep one connection's events
//	remus-log filter --conn-id 3f2a9c1e-... -o conn.rcap session.rcap
//
//	# Show statistics
//	remus-log stats session.rcap
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
