package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/model"
	"github.com/spf13/cobra"
)

var hostsFormat FormatFlag

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "List hosts registered with the metrics service",
	Long: `Fetch the host roster once and print it.

Hosts that haven't reported for five minutes are marked with ≈.

Examples:
  fleetwatch hosts
  fleetwatch hosts --format json
  fleetwatch hosts --server http://metrics.lan:8000/api/v1/system-info`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return hostsCommand(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	AddFormatFlag(hostsCmd, &hostsFormat)
	rootCmd.AddCommand(hostsCmd)
}

func hostsCommand(ctx context.Context, out io.Writer) error {
	machineMode = strings.EqualFold(hostsFormat.Format, "json")

	s, err := newSession()
	if err != nil {
		return err
	}
	format, err := hostsFormat.Resolve(s.cfg)
	if err != nil {
		return err
	}
	machineMode = format == "json"

	if ctx == nil {
		ctx = context.Background()
	}
	hosts, err := s.client.ListHosts(ctx)
	if err != nil {
		return err
	}
	s.log.Debug("fetched %d hosts from %s", len(hosts), s.client.BaseURL())

	return writeHosts(out, format, hosts, time.Now())
}

func writeHosts(out io.Writer, format string, hosts []model.Host, now time.Time) error {
	if hosts == nil {
		hosts = []model.Host{}
	}
	return writeFormatted(out, format, hosts, func(w io.Writer) error {
		_, err := io.WriteString(w, renderHostTable(hosts, now))
		return err
	})
}
