package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/fleetwatch/internal/config"
	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/rileyhilliard/fleetwatch/internal/monitor"
	"github.com/spf13/cobra"
)

var monitorIntervalFlag string

var monitorCmd = &cobra.Command{
	Use:   "monitor [host-id]",
	Short: "Interactive dashboard for the whole fleet",
	Long: `Start an interactive TUI listing every registered host. Open a host to
see its identity, live CPU and memory with history charts, disks, network
counters and top processes, refreshed every poll_interval.

When a refresh partly fails the last good values stay on screen, marked ≈.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  r           Refresh now
  s           Cycle sort order (id/name/last seen)
  up/k        Select previous host
  down/j      Select next host
  Enter       Open selected host
  [ / ]       Previous / next host in the detail view
  Esc         Back to the host list
  ?           Show help

Examples:
  fleetwatch monitor
  fleetwatch monitor 3
  fleetwatch monitor --interval 10s`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		initial := 0
		if len(args) == 1 {
			id, err := ParseHostID(args[0])
			if err != nil {
				return err
			}
			initial = id
		}
		return monitorCommand(initial, monitorIntervalFlag)
	},
}

func init() {
	monitorCmd.Flags().StringVar(&monitorIntervalFlag, "interval", "", "detail refresh interval (default: poll_interval, e.g. 10s)")
	rootCmd.AddCommand(monitorCmd)
}

// monitorCommand starts the TUI monitoring dashboard.
func monitorCommand(initialHost int, interval string) error {
	if !isInteractive() {
		return fwerrors.New(fwerrors.ErrUsage,
			"monitor needs an interactive terminal",
			"Use 'fleetwatch hosts' or 'fleetwatch show <id> --watch' for plain output")
	}

	s, err := newSession()
	if err != nil {
		return err
	}

	if interval != "" {
		d, err := ParseDuration("--interval", interval)
		if err != nil {
			return err
		}
		s.cfg.PollInterval = d
		if err := config.Validate(s.cfg, config.SkipDemo()); err != nil {
			return err
		}
	}

	// The TUI owns the terminal, so logs go to a file or nowhere.
	closeLog, err := redirectLogs(s.cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	model := monitor.NewModel(monitor.Options{
		Fetcher:        s.client,
		PollInterval:   s.cfg.PollInterval,
		RosterInterval: s.cfg.RosterInterval,
		HistoryLimit:   s.cfg.HistoryLimit,
		Thresholds: monitor.Thresholds{
			Warning:  float64(s.cfg.Output.Warning),
			Critical: float64(s.cfg.Output.Critical),
		},
		InitialHost: initialHost,
		ServerLabel: s.client.BaseURL(),
		Logger:      logger.NewEnvLogger("monitor"),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()

	// Graceful shutdown: stop both controllers and wait for in-flight cycles.
	model.Close()
	model.Wait()

	return err
}

// redirectLogs points the shared logger at log.file, or silences it.
func redirectLogs(cfg config.LogConfig) (func(), error) {
	if cfg.File == "" {
		logger.Discard()
		return func() {}, nil
	}
	closer, err := logger.Configure(logger.Options{Level: cfg.Level, File: cfg.File})
	if err != nil {
		return nil, fwerrors.WrapWithCode(err, fwerrors.ErrConfig,
			"Couldn't open the log file "+cfg.File,
			"Check log.file points somewhere writable, or remove it")
	}
	return func() { _ = closer.Close() }, nil
}
