package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/fleetwatch/internal/api"
	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/rileyhilliard/fleetwatch/internal/doctor"
	"github.com/rileyhilliard/fleetwatch/internal/logger"
	"github.com/rileyhilliard/fleetwatch/internal/monitor"
	"github.com/rileyhilliard/fleetwatch/internal/ui"
	"github.com/spf13/cobra"
)

var doctorFormat FormatFlag

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the config, the metrics service and every host",
	Long: `Run diagnostics and print what's wrong and how to fix it:

  CONFIG   which config file is used and whether it validates
  SERVICE  whether the server answers and has hosts registered
  HOSTS    whether each host has a snapshot and reported recently

Exits non-zero when any check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	AddFormatFlag(doctorCmd, &doctorFormat)
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput is the json/yaml form of a doctor run.
type DoctorOutput struct {
	Categories []doctor.Group `json:"categories" yaml:"categories"`
	Summary    SummaryOutput  `json:"summary" yaml:"summary"`
}

// SummaryOutput counts results by status.
type SummaryOutput struct {
	Pass     int  `json:"pass" yaml:"pass"`
	Warn     int  `json:"warn" yaml:"warn"`
	Fail     int  `json:"fail" yaml:"fail"`
	AllClear bool `json:"all_clear" yaml:"all_clear"`
}

func doctorCommand(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	machineMode = strings.EqualFold(doctorFormat.Format, "json")

	// Doctor must report a broken config, not stop on it.
	valid, checks := doctor.NewConfigChecks(cfgFile, func() (*config.Config, error) {
		cfg, _, err := loadConfig()
		return cfg, err
	})
	results := doctor.RunAll(ctx, checks)

	format := "text"
	if valid.Cfg != nil {
		f, err := doctorFormat.Resolve(valid.Cfg)
		if err != nil {
			return err
		}
		format = f
		ui.ApplyColorMode(valid.Cfg.Output.Color)

		svcChecks, svcResults := runServiceChecks(ctx, valid.Cfg)
		checks = append(checks, svcChecks...)
		results = append(results, svcResults...)
	} else if doctorFormat.Format != "" {
		format = strings.ToLower(doctorFormat.Format)
	}
	machineMode = format == "json"

	report := newDoctorOutput(checks, results)
	err := writeFormatted(out, format, report, func(w io.Writer) error {
		return renderDoctorText(w, report)
	})
	if err != nil {
		return err
	}
	if doctor.HasFailures(results) {
		return silentError{fmt.Errorf("%s", doctor.Summary(results))}
	}
	return nil
}

// runServiceChecks probes the roster, then every listed host in parallel.
func runServiceChecks(ctx context.Context, cfg *config.Config) ([]doctor.Check, []doctor.CheckResult) {
	client, err := api.New(api.Options{
		BaseURL:   cfg.Server,
		Timeout:   cfg.RequestTimeout,
		UserAgent: "fleetwatch/" + version,
		Logger:    logger.NewEnvLogger("api"),
	})
	if err != nil {
		// The config check has already vetted the URL.
		return nil, nil
	}

	svc := &doctor.ServiceCheck{Service: client, BaseURL: client.BaseURL()}
	checks := []doctor.Check{svc}
	results := []doctor.CheckResult{svc.Run(ctx)}

	if len(svc.Hosts) > 0 {
		hostChecks := doctor.NewHostChecks(client, svc.Hosts, monitor.QuietAfter, time.Now)
		checks = append(checks, hostChecks...)
		results = append(results, doctor.RunAllParallel(ctx, hostChecks)...)
	}
	return checks, results
}

func newDoctorOutput(checks []doctor.Check, results []doctor.CheckResult) DoctorOutput {
	counts := doctor.CountByStatus(results)
	return DoctorOutput{
		Categories: doctor.Groups(checks, results),
		Summary: SummaryOutput{
			Pass:     counts[doctor.StatusPass],
			Warn:     counts[doctor.StatusWarn],
			Fail:     counts[doctor.StatusFail],
			AllClear: !doctor.HasIssues(results),
		},
	}
}

func renderDoctorText(w io.Writer, report DoctorOutput) error {
	successStyle := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	errorStyle := lipgloss.NewStyle().Foreground(ui.ColorError)
	warnStyle := lipgloss.NewStyle().Foreground(ui.ColorWarning)
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)

	var b strings.Builder
	b.WriteString(ui.Heading("fleetwatch diagnostics"))
	b.WriteString("\n\n")

	var all []doctor.CheckResult
	for _, g := range report.Categories {
		b.WriteString(ui.Heading(g.Name))
		b.WriteString("\n")
		for _, r := range g.Results {
			all = append(all, r)

			symbol, style := ui.SymbolSuccess, successStyle
			switch r.Status {
			case doctor.StatusWarn:
				symbol, style = ui.SymbolPartial, warnStyle
			case doctor.StatusFail:
				symbol, style = ui.SymbolFail, errorStyle
			}
			fmt.Fprintf(&b, "  %s %s\n", style.Render(symbol), r.Message)

			if r.Suggestion != "" && r.Status != doctor.StatusPass {
				for _, line := range strings.Split(r.Suggestion, "\n") {
					fmt.Fprintf(&b, "    %s\n", mutedStyle.Render(line))
				}
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("━", 40))
	b.WriteString("\n")
	if report.Summary.AllClear {
		fmt.Fprintf(&b, "%s %s\n", successStyle.Render(ui.SymbolSuccess), doctor.Summary(all))
	} else {
		fmt.Fprintf(&b, "%s %s\n", errorStyle.Render(ui.SymbolFail), doctor.Summary(all))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
