package cli

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/fleetwatch/internal/model"
	"github.com/rileyhilliard/fleetwatch/internal/monitor"
	"github.com/rileyhilliard/fleetwatch/internal/poll"
	"github.com/rileyhilliard/fleetwatch/internal/series"
	"github.com/rileyhilliard/fleetwatch/internal/ui"
)

// reportProcesses is how many processes the plain host report lists.
const reportProcesses = 5

// sparkWidth is how many of the most recent points the trend lines show.
const sparkWidth = 40

// thresholds are the warning and critical percentages for coloring.
type thresholds struct {
	warning, critical int
}

// hostReport is the json/yaml form of one ViewState.
type hostReport struct {
	HostID    int         `json:"host_id" yaml:"host_id"`
	Cycle     uint64      `json:"cycle" yaml:"cycle"`
	Status    poll.Status `json:"status" yaml:"status"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`

	Host    resourceReport[model.Host]     `json:"host" yaml:"host"`
	Latest  resourceReport[model.Snapshot] `json:"latest" yaml:"latest"`
	History resourceReport[model.History]  `json:"history" yaml:"history"`

	CPU    statReport `json:"cpu" yaml:"cpu"`
	Memory statReport `json:"memory" yaml:"memory"`
}

// resourceReport is one Result with its error flattened for output.
type resourceReport[T any] struct {
	State     poll.ResultKind `json:"state" yaml:"state"`
	FetchedAt *time.Time      `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`
	Value     *T              `json:"value,omitempty" yaml:"value,omitempty"`
	Error     *JSONError      `json:"error,omitempty" yaml:"error,omitempty"`
}

// statReport summarizes a history sequence. Missing numbers are omitted
// because JSON has no NaN.
type statReport struct {
	Min   *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max   *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Avg   *float64 `json:"avg,omitempty" yaml:"avg,omitempty"`
	Last  *float64 `json:"last,omitempty" yaml:"last,omitempty"`
	Count int      `json:"count" yaml:"count"`
}

func newHostReport(v poll.ViewState) hostReport {
	cpu, mem := series.Derive(v.Points()).Stats()
	r := hostReport{
		HostID:  v.HostID,
		Cycle:   v.Cycle,
		Status:  v.Status,
		Host:    newResourceReport(v.Host),
		Latest:  newResourceReport(v.Current),
		History: newResourceReport(v.History),
		CPU:     newStatReport(cpu),
		Memory:  newStatReport(mem),
	}
	if !v.UpdatedAt.IsZero() {
		at := v.UpdatedAt
		r.UpdatedAt = &at
	}
	return r
}

func newResourceReport[T any](res poll.Result[T]) resourceReport[T] {
	out := resourceReport[T]{State: res.Kind, Error: ErrorToJSON(res.Err)}
	if v, ok := res.Get(); ok {
		out.Value = &v
		if !res.At.IsZero() {
			at := res.At
			out.FetchedAt = &at
		}
	}
	return out
}

func newStatReport(st series.Stat) statReport {
	return statReport{
		Min:   finitePtr(st.Min),
		Max:   finitePtr(st.Max),
		Avg:   finitePtr(st.Avg),
		Last:  finitePtr(st.Last),
		Count: st.Count,
	}
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// renderHostTable renders the roster for 'fleetwatch hosts'.
func renderHostTable(hosts []model.Host, now time.Time) string {
	if len(hosts) == 0 {
		return "No hosts registered yet\n"
	}

	sorted := append([]model.Host{}, hosts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	rows := make([][]string, len(sorted))
	for i, h := range sorted {
		rows[i] = []string{
			seenSymbol(h, now),
			strconv.Itoa(h.ID),
			orDash(h.Hostname),
			orDash(h.IPAddress),
			orDash(h.OSInfo),
			seenText(h.LastSeen, now),
		}
	}
	titles := []string{"", "ID", "HOSTNAME", "IP", "OS", "LAST SEEN"}
	return ui.RenderSimpleTable(ui.FitColumns(titles, rows, 32), rows) + "\n"
}

// seenSymbol marks hosts that have gone quiet.
func seenSymbol(h model.Host, now time.Time) string {
	if h.LastSeen.IsZero() || now.Sub(h.LastSeen.Time) > monitor.QuietAfter {
		return ui.SymbolStale
	}
	return ui.SymbolSuccess
}

func seenText(ts model.Timestamp, now time.Time) string {
	if ts.IsZero() {
		return "never"
	}
	return monitor.FormatAgo(now.Sub(ts.Time))
}

// renderHostReport writes the plain-text form of one ViewState.
func renderHostReport(w io.Writer, v poll.ViewState, now time.Time, th thresholds) error {
	var b strings.Builder

	b.WriteString(reportTitle(v, now))
	b.WriteString("\n")

	if v.HostNotFound() {
		fmt.Fprintf(&b, "\n  %s No host with id %d\n", ui.SymbolFail, v.HostID)
		_, err := io.WriteString(w, b.String())
		return err
	}

	if h, ok := v.Host.Get(); ok {
		b.WriteString("\n")
		b.WriteString(ui.RenderFields([]ui.Field{
			{Label: "Hostname", Value: orDash(h.Hostname) + staleMark(v.Host.Kind)},
			{Label: "IP", Value: orDash(h.IPAddress)},
			{Label: "MAC", Value: orDash(h.MACAddress)},
			{Label: "OS", Value: orDash(h.OSInfo)},
			{Label: "Last seen", Value: seenText(h.LastSeen, now)},
		}))
	}

	s := series.Derive(v.Points())
	cpuStat, memStat := s.Stats()
	snap, hasSnap := v.Current.Get()

	b.WriteString("\n")
	metrics := []ui.Field{
		{Label: "CPU", Value: metricLine(snapValue(hasSnap, snap.CPUUsage), v.Current.Kind, s.CPU, cpuStat, th)},
	}
	memValue := math.NaN()
	memDetail := ""
	if hasSnap {
		memValue = snap.MemoryPercent()
		memDetail = fmt.Sprintf("%s / %s  ", monitor.FormatGB(snap.MemoryUsed), monitor.FormatGB(snap.MemoryTotal))
	}
	metrics = append(metrics, ui.Field{
		Label: "Memory",
		Value: memDetail + metricLine(memValue, v.Current.Kind, s.MemPercent, memStat, th),
	})
	b.WriteString(ui.RenderFields(metrics))

	if hasSnap {
		writeSnapshotSections(&b, snap, th)
	}

	if errs := v.Errors(); len(errs) > 0 {
		b.WriteString("\n")
		b.WriteString(ui.Heading("Problems"))
		b.WriteString("\n")
		keys := make([]string, 0, len(errs))
		for k := range errs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]ui.Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, ui.Field{Label: k, Value: ErrorToJSON(errs[k]).Message})
		}
		b.WriteString(ui.RenderFields(fields))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func reportTitle(v poll.ViewState, now time.Time) string {
	name := fmt.Sprintf("host #%d", v.HostID)
	if h, ok := v.Host.Get(); ok && strings.TrimSpace(h.Hostname) != "" {
		name = fmt.Sprintf("%s (#%d)", h.Hostname, v.HostID)
	}

	symbol, color := statusSymbol(v.Status)
	status := lipgloss.NewStyle().Foreground(color).Render(symbol + " " + v.Status.String())

	parts := []string{ui.Heading(name), status}
	if v.Cycle > 0 {
		parts = append(parts, fmt.Sprintf("cycle %d", v.Cycle))
	}
	if !v.UpdatedAt.IsZero() {
		parts = append(parts, "updated "+monitor.FormatAgo(now.Sub(v.UpdatedAt)))
	}
	return strings.Join(parts, "  ")
}

func statusSymbol(s poll.Status) (string, lipgloss.Color) {
	switch s {
	case poll.Ready:
		return ui.SymbolSuccess, ui.ColorSuccess
	case poll.PartialError:
		return ui.SymbolPartial, ui.ColorWarning
	case poll.Error:
		return ui.SymbolFail, ui.ColorError
	default:
		return ui.SymbolPending, ui.ColorMuted
	}
}

// metricLine renders "42.0%  ▁▂▃  min 10.0%  avg 20.0%  max 42.0%".
func metricLine(current float64, kind poll.ResultKind, values []float64, st series.Stat, th thresholds) string {
	var parts []string

	value := percentText(current)
	if !math.IsNaN(current) {
		value = lipgloss.NewStyle().Foreground(ui.Threshold(current, th.warning, th.critical)).Render(value)
	}
	parts = append(parts, value+staleMark(kind))

	if spark := ui.RenderSparkline(values, sparkWidth, th.warning, th.critical); spark != "" {
		parts = append(parts, spark)
	}
	if st.Count > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(ui.ColorMuted).Render(
			fmt.Sprintf("min %s  avg %s  max %s  %d points",
				percentText(st.Min), percentText(st.Avg), percentText(st.Max), st.Count)))
	}
	return strings.Join(parts, "  ")
}

func writeSnapshotSections(b *strings.Builder, snap model.Snapshot, th thresholds) {
	if len(snap.DiskUsage) > 0 {
		mounts := make([]string, 0, len(snap.DiskUsage))
		for m := range snap.DiskUsage {
			mounts = append(mounts, m)
		}
		sort.Strings(mounts)

		b.WriteString("\n")
		b.WriteString(ui.Heading("Disk"))
		b.WriteString("\n")
		fields := make([]ui.Field, 0, len(mounts))
		for _, m := range mounts {
			d := snap.DiskUsage[m]
			pct := lipgloss.NewStyle().Foreground(ui.Threshold(d.Percent, th.warning, th.critical)).Render(percentText(d.Percent))
			fields = append(fields, ui.Field{
				Label: m,
				Value: fmt.Sprintf("%s  %s / %s", pct, monitor.FormatGB(d.Used), monitor.FormatGB(d.Total)),
			})
		}
		b.WriteString(ui.RenderFields(fields))
	}

	n := snap.NetworkStats
	b.WriteString("\n")
	b.WriteString(ui.Heading("Network") + " (since boot)")
	b.WriteString("\n")
	b.WriteString(ui.RenderFields([]ui.Field{
		{Label: "Sent", Value: fmt.Sprintf("%s  %d packets", monitor.FormatBytes(n.BytesSent), n.PacketsSent)},
		{Label: "Received", Value: fmt.Sprintf("%s  %d packets", monitor.FormatBytes(n.BytesRecv), n.PacketsRecv)},
	}))

	if len(snap.RunningProcesses) > 0 {
		top := model.TopProcesses(snap.RunningProcesses, reportProcesses)
		rows := make([][]string, len(top))
		for i, p := range top {
			rows[i] = []string{strconv.Itoa(p.PID), p.Name, percentText(p.CPUPercent), percentText(p.MemoryPercent)}
		}
		b.WriteString("\n")
		fmt.Fprintf(b, "%s (top %d of %d)\n", ui.Heading("Processes"), len(top), len(snap.RunningProcesses))
		b.WriteString(ui.RenderSimpleTable(ui.FitColumns([]string{"PID", "NAME", "CPU", "MEM"}, rows, 32), rows))
		b.WriteString("\n")
	}
}

func snapValue(ok bool, v float64) float64 {
	if !ok {
		return math.NaN()
	}
	return v
}

func staleMark(kind poll.ResultKind) string {
	if kind == poll.Stale {
		return " " + ui.SymbolStale
	}
	return ""
}

func percentText(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", v)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
