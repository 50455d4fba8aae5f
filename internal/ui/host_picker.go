package ui

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/model"
)

// HostLabel is the one-line description of a host in the picker.
func HostLabel(h model.Host) string {
	name := strings.TrimSpace(h.Hostname)
	if name == "" {
		name = fmt.Sprintf("host %d", h.ID)
	}

	var parts []string
	if h.IPAddress != "" {
		parts = append(parts, h.IPAddress)
	}
	if h.OSInfo != "" {
		parts = append(parts, h.OSInfo)
	}

	label := fmt.Sprintf("#%d  %s", h.ID, name)
	if len(parts) > 0 {
		label += "  (" + strings.Join(parts, ", ") + ")"
	}
	return label
}

// HostOptions builds picker options ordered by hostname, then id.
func HostOptions(hosts []model.Host) []huh.Option[int] {
	sorted := make([]model.Host, len(hosts))
	copy(sorted, hosts)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := strings.ToLower(sorted[i].Hostname), strings.ToLower(sorted[j].Hostname)
		if a != b {
			return a < b
		}
		return sorted[i].ID < sorted[j].ID
	})

	options := make([]huh.Option[int], len(sorted))
	for i, h := range sorted {
		options[i] = huh.NewOption(HostLabel(h), h.ID)
	}
	return options
}

// PickHost asks the user to choose one of hosts and returns its id.
// A single host is returned without prompting.
func PickHost(hosts []model.Host, input io.Reader, output io.Writer) (int, error) {
	if len(hosts) == 0 {
		return 0, fwerrors.New(fwerrors.ErrNotFound,
			"No hosts to pick from",
			"The metrics service has no registered hosts yet. Start an agent, or try 'fleetwatch serve-demo'.")
	}
	if len(hosts) == 1 {
		return hosts[0].ID, nil
	}

	options := HostOptions(hosts)
	selected := options[0].Value
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Which host?").
				Options(options...).
				Value(&selected),
		),
	).WithInput(input).WithOutput(output)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return 0, fwerrors.New(fwerrors.ErrUsage,
				"No host selected",
				"Pass a host id, e.g. 'fleetwatch show 3'")
		}
		return 0, fwerrors.WrapWithCode(err, fwerrors.ErrUsage,
			"Host picker failed",
			"Pass a host id directly instead")
	}
	return selected, nil
}
