// Package cli implements the fleetwatch command-line interface.
//
// Each cobra command loads the config, applies the global flags and hands
// off to the packages that do the work:
//
//	fleetwatch monitor [id]        - Interactive dashboard (internal/monitor)
//	fleetwatch hosts               - Print the host roster once
//	fleetwatch show [id] [--watch] - Print one host's merged state
//	fleetwatch serve-demo          - Serve this machine's metrics (internal/demo)
//	fleetwatch config init|show|set
//	fleetwatch doctor              - Check config, service and hosts (internal/doctor)
//	fleetwatch version
//	fleetwatch completion
//
// # Output
//
// Data commands take --format text|json|yaml, defaulting to output.format.
// JSON output is wrapped in a JSONEnvelope. In JSON mode errors are written
// to stdout as an envelope too, so scripts only ever parse one stream.
//
// # Exit Status
//
// 0 on success, 2 for bad arguments or unknown commands, 1 for everything
// else, including 'show' reaching a host that is missing or unreachable.
package cli
