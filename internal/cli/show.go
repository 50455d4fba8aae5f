package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/rileyhilliard/fleetwatch/internal/poll"
	"github.com/rileyhilliard/fleetwatch/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	showFormat FormatFlag
	showWatch  bool
)

var showCmd = &cobra.Command{
	Use:   "show [host-id]",
	Short: "Show one host's latest metrics and recent history",
	Long: `Fetch one host's details, latest snapshot and history window together and
print the merged result. With --watch the fetch repeats every poll_interval
and each result is printed as it arrives, until Ctrl+C.

Without a host id on a terminal, you pick one from the roster.

Examples:
  fleetwatch show 3
  fleetwatch show 3 --watch
  fleetwatch show 3 --format yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showCommand(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

func init() {
	AddFormatFlag(showCmd, &showFormat)
	showCmd.Flags().BoolVarP(&showWatch, "watch", "w", false, "keep polling and print every refresh")
	rootCmd.AddCommand(showCmd)
}

func showCommand(ctx context.Context, out io.Writer, args []string) error {
	machineMode = strings.EqualFold(showFormat.Format, "json")

	s, err := newSession()
	if err != nil {
		return err
	}
	format, err := showFormat.Resolve(s.cfg)
	if err != nil {
		return err
	}
	machineMode = format == "json"

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	hostID, err := resolveHostID(ctx, s, args, format)
	if err != nil {
		return err
	}

	var spin *ui.Spinner
	if format == "text" && term.IsTerminal(int(os.Stderr.Fd())) {
		spin = ui.NewSpinner(os.Stderr, fmt.Sprintf("Fetching host #%d", hostID))
		spin.Start()
	}

	q := poll.NewQueue[poll.ViewState]()
	ctrl := poll.NewController(poll.Options{
		Fetcher:      s.client,
		Sink:         q.Push,
		Interval:     s.cfg.PollInterval,
		HistoryLimit: s.cfg.HistoryLimit,
		Logger:       logger.NewEnvLogger("poll"),
	})
	if err := ctrl.Start(hostID); err != nil {
		return err
	}
	defer func() {
		ctrl.Stop()
		q.Close()
		ctrl.Wait()
	}()

	p := statePrinter{
		out:    out,
		format: format,
		watch:  showWatch,
		th:     thresholds{warning: s.cfg.Output.Warning, critical: s.cfg.Output.Critical},
		now:    time.Now,
	}
	if spin != nil {
		p.before = spin.Clear
	}
	return p.run(ctx, q)
}

// resolveHostID takes the positional id, or asks the user to pick one when
// both ends are a terminal and the output is for humans.
func resolveHostID(ctx context.Context, s *session, args []string, format string) (int, error) {
	if len(args) == 1 {
		return ParseHostID(args[0])
	}

	if format != "text" || !isInteractive() {
		return 0, fwerrors.New(fwerrors.ErrUsage,
			"Which host?",
			"Pass a host id, e.g. 'fleetwatch show 3'. Run 'fleetwatch hosts' to list them.")
	}

	hosts, err := s.client.ListHosts(ctx)
	if err != nil {
		return 0, err
	}
	return ui.PickHost(hosts, os.Stdin, os.Stderr)
}

// statePrinter writes ViewStates as the controller emits them.
type statePrinter struct {
	out    io.Writer
	format string
	watch  bool
	th     thresholds
	now    func() time.Time
	// before runs once, ahead of the first write.
	before func()
}

// run prints the first emission, or every emission when watching, until ctx
// is done. Without --watch a host that is missing or could not be fetched at
// all is reported through the exit status.
func (p *statePrinter) run(ctx context.Context, q *poll.Queue[poll.ViewState]) error {
	printed := 0
	for {
		v, ok := q.Next(ctx)
		if !ok {
			return nil
		}
		// The controller never emits Loading; other producers on the queue may.
		if v.Status == poll.Loading {
			continue
		}

		if printed == 0 && p.before != nil {
			p.before()
		}
		if printed > 0 && p.format == "text" {
			fmt.Fprintf(p.out, "\n%s\n\n", strings.Repeat("─", 40))
		}
		if err := p.write(v); err != nil {
			return err
		}
		printed++

		if !p.watch {
			return stateError(v)
		}
	}
}

func (p *statePrinter) write(v poll.ViewState) error {
	return writeFormatted(p.out, p.format, newHostReport(v), func(w io.Writer) error {
		return renderHostReport(w, v, p.now(), p.th)
	})
}

// stateError turns a terminal ViewState into the command's error, if any.
// The state has already been printed, so the error itself is silent.
func stateError(v poll.ViewState) error {
	switch {
	case v.HostNotFound():
		return silentError{fwerrors.WrapWithCode(v.Host.Err, fwerrors.ErrNotFound,
			fmt.Sprintf("Host #%d not found", v.HostID), "")}
	case v.Status == poll.Error:
		return silentError{v.Host.Err}
	default:
		return nil
	}
}

// silentError carries an exit status for a failure the output already shows.
type silentError struct {
	err error
}

func (e silentError) Error() string { return e.err.Error() }
func (e silentError) Unwrap() error { return e.err }

func isSilent(err error) bool {
	var s silentError
	return errors.As(err, &s)
}
