package monitor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/model"
	"github.com/rileyhilliard/fleetwatch/internal/poll"
	"github.com/rileyhilliard/fleetwatch/internal/series"
	"github.com/rileyhilliard/fleetwatch/internal/ui"
)

// Detail view layout
const (
	detailGraphHeight        = 4
	detailGraphHeightCompact = 2
	detailMaxProcesses       = 10
	detailDiskBarWidth       = 20
)

// renderDetailView renders the single-host view: a fixed header, the
// scrollable sections and a fixed footer.
func (m Model) renderDetailView() string {
	var b strings.Builder
	b.WriteString(m.renderDetailHeader())
	b.WriteString("\n\n")

	if m.viewportReady {
		b.WriteString(m.detailViewport.View())
	} else {
		b.WriteString(m.renderDetailContent())
	}

	if m.ShowFooter() {
		b.WriteString("\n")
		b.WriteString(m.renderDetailFooter())
	}
	return b.String()
}

// updateDetailViewportContent re-renders the sections into the viewport.
func (m *Model) updateDetailViewportContent() {
	if !m.viewportReady {
		return
	}
	m.detailViewport.SetContent(m.renderDetailContent())
}

// renderDetailHeader renders the host name, status and freshness.
func (m Model) renderDetailHeader() string {
	v := m.view
	name := fmt.Sprintf("host #%d", m.viewing)
	if h, ok := v.Host.Get(); ok && h.Hostname != "" {
		name = h.Hostname
	}

	hostTitle := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render(name)

	glyph, style := StatusGlyph(v.Status)
	if v.Status == poll.Loading {
		glyph = m.LoadingSpinner()
	}
	status := style.Render(glyph + " " + StatusLabel(v.Status))

	parts := []string{hostTitle, status}
	if !v.UpdatedAt.IsZero() {
		parts = append(parts, MutedStyle.Render("updated "+m.Since(v.UpdatedAt)))
	}
	if snap, ok := v.Current.Get(); ok && !snap.Timestamp.IsZero() {
		parts = append(parts, MutedStyle.Render("sample "+m.Since(snap.Timestamp.Time)))
	}
	return HeaderStyle.Render(strings.Join(parts, "  "))
}

// renderDetailContent renders every section for the current ViewState.
func (m Model) renderDetailContent() string {
	v := m.view
	width := m.detailWidth()

	if m.err != nil {
		return StatusErrorStyle.Render(GlyphError + " " + fwerrors.Summary(m.err))
	}

	switch {
	case v.Status == poll.Loading:
		return StatusLoadingStyle.Render(fmt.Sprintf("%s Loading host #%d...", m.LoadingSpinner(), m.viewing))
	case v.HostNotFound():
		return m.renderNotFound(width)
	case v.Status == poll.Error:
		return m.renderProblems(width, "Nothing could be fetched for this host")
	}

	s := series.Derive(v.Points())
	sections := []string{
		m.renderIdentitySection(width),
		m.renderCPUSection(s, width),
		m.renderMemorySection(s, width),
	}
	if snap, ok := v.Current.Get(); ok {
		if len(snap.DiskUsage) > 0 {
			sections = append(sections, m.renderDiskSection(snap.DiskUsage, width))
		}
		sections = append(sections, m.renderNetworkSection(snap.NetworkStats, width))
		if len(snap.RunningProcesses) > 0 {
			sections = append(sections, m.renderProcessSection(snap.RunningProcesses, width))
		}
	}
	if v.Status == poll.PartialError {
		sections = append(sections, m.renderProblems(width, "Some data is missing or out of date"))
	}
	return strings.Join(sections, "\n")
}

func (m Model) detailWidth() int {
	if m.width == 0 {
		return 80
	}
	w := m.width - 2
	if w < 40 {
		w = 40
	}
	return w
}

func (m Model) graphHeight() int {
	if m.LayoutMode() <= LayoutCompact && m.width != 0 {
		return detailGraphHeightCompact
	}
	return detailGraphHeight
}

// renderIdentitySection renders hostname, addresses and OS.
func (m Model) renderIdentitySection(width int) string {
	h, ok := m.view.Host.Get()
	value := ""
	if m.view.Host.Kind == poll.Stale {
		value = GlyphStale + " stale"
	}

	lines := []string{SectionHeader("Host", value, width)}
	if !ok {
		lines = append(lines, SectionContentLine(MutedStyle.Render("Host details unavailable"), width))
		lines = append(lines, SectionFooter(width))
		return strings.Join(lines, "\n")
	}

	field := func(label, val string) string {
		return SectionContentLine(LabelStyle.Render(fmt.Sprintf("%-10s", label))+ValueStyle.Render(orDash(val)), width)
	}
	lines = append(lines,
		field("Hostname", h.Hostname),
		field("IP", h.IPAddress),
		field("MAC", h.MACAddress),
		field("OS", h.OSInfo),
	)
	if !h.CreatedAt.IsZero() {
		lines = append(lines, field("Added", h.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	if !h.LastSeen.IsZero() {
		lines = append(lines, field("Last seen", m.Since(h.LastSeen.Time)))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

// renderCPUSection renders current CPU usage and its history chart.
func (m Model) renderCPUSection(s series.Series, width int) string {
	cpu := nan()
	if snap, ok := m.view.Current.Get(); ok {
		cpu = snap.CPUUsage
	}
	cpuStat, _ := s.Stats()

	lines := []string{SectionHeader("CPU", strings.TrimSpace(FormatPercent(cpu))+m.currentMarker(), width)}
	lines = append(lines, SectionContentLine(m.usageLine(cpu, width), width))
	lines = append(lines, m.chartLines(s.CPU, s.Labels, ColorGraph, cpuStat, width)...)
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

// renderMemorySection renders used/total memory and its history chart.
func (m Model) renderMemorySection(s series.Series, width int) string {
	pct := nan()
	value := "-"
	if snap, ok := m.view.Current.Get(); ok {
		pct = snap.MemoryPercent()
		value = fmt.Sprintf("%s / %s", FormatGB(snap.MemoryUsed), FormatGB(snap.MemoryTotal))
	}
	_, memStat := s.Stats()

	lines := []string{SectionHeader("Memory", value+m.currentMarker(), width)}
	lines = append(lines, SectionContentLine(m.usageLine(pct, width), width))
	lines = append(lines, m.chartLines(s.MemPercent, s.Labels, ColorGraphMem, memStat, width)...)
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

// currentMarker flags a latest snapshot carried over from an earlier cycle.
func (m Model) currentMarker() string {
	if m.view.Current.Kind == poll.Stale {
		return " " + GlyphStale
	}
	return ""
}

func (m Model) usageLine(pct float64, width int) string {
	barWidth := width - 20
	if barWidth < 10 {
		barWidth = 10
	}
	return LabelStyle.Render("Usage ") + ProgressBar(barWidth, pct, m.thresholds) + " " +
		MetricStyle(pct, m.thresholds).Render(FormatPercent(pct))
}

// chartLines renders a braille chart with its time axis and a stats caption.
func (m Model) chartLines(data []float64, labels []string, color lipgloss.Color, st series.Stat, width int) []string {
	graphWidth := width - 4
	if m.view.History.Kind == poll.Failed || len(data) == 0 {
		msg := "No history yet"
		if m.view.History.Kind == poll.Failed {
			msg = "History unavailable"
		}
		return []string{SectionContentLine(MutedStyle.Render(msg), width)}
	}

	var lines []string
	for _, row := range strings.Split(RenderBrailleSparkline(data, graphWidth, m.graphHeight(), color, m.thresholds), "\n") {
		lines = append(lines, SectionContentLine(row, width))
	}
	lines = append(lines, SectionContentLine(RenderTimeAxis(labels, len(data), graphWidth), width))

	caption := fmt.Sprintf("min %s  avg %s  max %s  %d points",
		strings.TrimSpace(FormatPercent(st.Min)),
		strings.TrimSpace(FormatPercent(st.Avg)),
		strings.TrimSpace(FormatPercent(st.Max)),
		len(data))
	if m.view.History.Kind == poll.Stale {
		caption += "  " + GlyphStale + " stale"
	}
	lines = append(lines, SectionContentLine(MutedStyle.Render(caption), width))
	return lines
}

// renderDiskSection renders one bar per mount point, sorted by path.
func (m Model) renderDiskSection(disks map[string]model.DiskUsage, width int) string {
	mounts := make([]string, 0, len(disks))
	nameWidth := 0
	for mount := range disks {
		mounts = append(mounts, mount)
		if len(mount) > nameWidth {
			nameWidth = len(mount)
		}
	}
	sort.Strings(mounts)
	if nameWidth > 16 {
		nameWidth = 16
	}

	lines := []string{SectionHeader("Disk", fmt.Sprintf("%d mounts", len(mounts)), width)}
	for _, mount := range mounts {
		d := disks[mount]
		line := LabelStyle.Render(fmt.Sprintf("%-*s ", nameWidth, truncateWithEllipsis(mount, nameWidth))) +
			ProgressBar(detailDiskBarWidth, d.Percent, m.thresholds) + " " +
			MetricStyle(d.Percent, m.thresholds).Render(FormatPercent(d.Percent)) + "  " +
			MutedStyle.Render(fmt.Sprintf("%s / %s", FormatGB(d.Used), FormatGB(d.Total)))
		lines = append(lines, SectionContentLine(line, width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

// renderNetworkSection renders the cumulative interface counters.
func (m Model) renderNetworkSection(n model.NetworkStats, width int) string {
	lines := []string{
		SectionHeader("Network", "since boot", width),
		SectionContentLine(LabelStyle.Render("Sent      ")+ValueStyle.Render(FormatBytes(n.BytesSent))+
			MutedStyle.Render(fmt.Sprintf("  %d packets", n.PacketsSent)), width),
		SectionContentLine(LabelStyle.Render("Received  ")+ValueStyle.Render(FormatBytes(n.BytesRecv))+
			MutedStyle.Render(fmt.Sprintf("  %d packets", n.PacketsRecv)), width),
		SectionFooter(width),
	}
	return strings.Join(lines, "\n")
}

// renderProcessSection renders the busiest processes of the latest snapshot.
func (m Model) renderProcessSection(procs []model.ProcessEntry, width int) string {
	sorted := model.TopProcesses(procs, detailMaxProcesses)

	nameWidth := width - 4 - 8 - 8 - 8 - 6
	if nameWidth < 10 {
		nameWidth = 10
	}
	rows := make([]table.Row, 0, len(sorted))
	for _, p := range sorted {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", p.PID),
			truncateWithEllipsis(p.Name, nameWidth),
			strings.TrimSpace(FormatPercent(p.CPUPercent)),
			strings.TrimSpace(FormatPercent(p.MemoryPercent)),
		})
	}
	t := ui.NewTable([]ui.TableColumn{
		{Title: "PID", Width: 8},
		{Title: "Name", Width: nameWidth},
		{Title: "CPU", Width: 8},
		{Title: "MEM", Width: 8},
	}, rows)

	lines := []string{SectionHeader("Processes", fmt.Sprintf("top %d of %d", len(sorted), len(procs)), width)}
	for _, row := range strings.Split(t.View(), "\n") {
		lines = append(lines, SectionContentLine(row, width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

// renderNotFound tells the user the selected host no longer exists.
func (m Model) renderNotFound(width int) string {
	lines := []string{
		SectionHeader("Host not found", fmt.Sprintf("#%d", m.viewing), width),
		SectionContentLine(StatusErrorStyle.Render(GlyphError+" The metrics service has no host with this id"), width),
		SectionContentLine(MutedStyle.Render("It may have been removed. Press esc to pick another host."), width),
		SectionFooter(width),
	}
	return strings.Join(lines, "\n")
}

// renderProblems lists the failure reason for each resource that failed in
// the latest cycle.
func (m Model) renderProblems(width int, title string) string {
	errs := m.view.Errors()
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{SectionHeader("Problems", title, width)}
	for _, k := range keys {
		core, suggestion := parseErrorParts(errs[k])
		lines = append(lines, SectionContentLine(
			StatusPartialStyle.Render(fmt.Sprintf("%-8s", k))+LabelStyle.Render(truncateWithEllipsis(core, width-14)), width))
		if suggestion != "" {
			lines = append(lines, SectionContentLine(MutedStyle.Render("        "+truncateWithEllipsis(suggestion, width-14)), width))
		}
	}
	lines = append(lines, SectionContentLine(MutedStyle.Render("Retrying on the next poll, or press r"), width))
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

// renderDetailFooter renders navigation hints for the detail view.
func (m Model) renderDetailFooter() string {
	hints := []string{
		"esc back",
		"[ ] prev/next host",
		"r refresh",
		"↑↓ scroll",
		"q quit",
	}
	return FooterStyle.Render(strings.Join(hints, " | "))
}
