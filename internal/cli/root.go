package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile     string
	serverFlag  string
	timeoutFlag string
	debugFlag   bool
)

// Exit codes
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

var rootCmd = &cobra.Command{
	Use:   "fleetwatch",
	Short: "Live and historical host metrics in your terminal",
	Long: `fleetwatch watches the hosts registered with a metrics service and shows
their CPU, memory, disk, network and process metrics as they change.

It only reads from the service. Point it at one with --server or the
server key in .fleetwatch.yaml, or run 'fleetwatch serve-demo' to expose
this machine locally.

Examples:
  fleetwatch monitor
  fleetwatch hosts --format json
  fleetwatch show 3 --watch`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .fleetwatch.yaml, then ~/.config/fleetwatch/config.yaml)")
	pf.StringVar(&serverFlag, "server", "", "metrics service base URL")
	pf.StringVar(&timeoutFlag, "timeout", "", "per-request timeout (e.g. 5s)")
	pf.BoolVar(&debugFlag, "debug", false, "log debug output")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stdout, os.Stderr, err)
		os.Exit(ExitCode(err))
	}
}

// reportError prints err as a JSON envelope in machine mode, otherwise in the
// human-readable multi-line form.
func reportError(stdout, stderr io.Writer, err error) {
	if isSilent(err) {
		return
	}
	if MachineMode() {
		_ = WriteJSONFromError(stdout, err)
		return
	}
	fmt.Fprintln(stderr, err)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case fwerrors.IsCode(err, fwerrors.ErrUsage), isUnknownCommandError(err):
		return ExitUsage
	default:
		return ExitError
	}
}

// isUnknownCommandError reports whether cobra rejected the command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.HasPrefix(msg, "invalid argument") ||
		strings.Contains(msg, "accepts at most") ||
		strings.Contains(msg, "requires at least")
}
