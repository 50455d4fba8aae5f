package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/poll"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.viewMode == ViewDetail {
		return m.renderDetailView()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderRoster())
	if m.ShowFooter() {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}
	return b.String()
}

// renderHeader renders the roster header with summary stats.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("fleetwatch")

	parts := []string{fmt.Sprintf("%d hosts", len(m.hosts))}
	if m.serverLabel != "" {
		parts = append(parts, m.serverLabel)
	}
	if !m.list.UpdatedAt.IsZero() {
		parts = append(parts, "updated "+m.Since(m.list.UpdatedAt))
	}
	parts = append(parts, "sort: "+m.sortOrder.String())

	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(" | " + strings.Join(parts, " | "))

	return HeaderStyle.Render(title + stats)
}

// renderRoster renders the card grid, or a placeholder when there is nothing
// to show yet.
func (m Model) renderRoster() string {
	var b strings.Builder

	if m.err != nil {
		b.WriteString(StatusErrorStyle.Render(GlyphError + " " + fwerrors.Summary(m.err)))
		b.WriteString("\n\n")
	}

	if len(m.hosts) == 0 {
		switch m.list.Status {
		case poll.Loading:
			b.WriteString(StatusLoadingStyle.Render(m.LoadingSpinner() + " Loading hosts..."))
		case poll.Error:
			b.WriteString(m.renderRosterError())
		default:
			b.WriteString(LabelStyle.Render("No hosts registered yet"))
		}
		return b.String()
	}

	// A failed refresh keeps the previous roster on screen.
	if m.list.Status == poll.Error {
		b.WriteString(StatusPartialStyle.Render(GlyphStale + " Showing the last roster: " + fwerrors.Summary(m.list.Err)))
		b.WriteString("\n\n")
	}

	cardWidth := m.calculateCardWidth()
	cards := make([]string, 0, len(m.hosts))
	for i, h := range m.hosts {
		cards = append(cards, m.renderCard(h, cardWidth, i == m.selected))
	}
	b.WriteString(m.layoutCards(cards, cardWidth))
	return b.String()
}

func (m Model) renderRosterError() string {
	core, suggestion := parseErrorParts(m.list.Err)
	lines := []string{StatusErrorStyle.Render(GlyphError + " Couldn't load hosts")}
	if core != "" {
		lines = append(lines, LabelStyle.Render("  "+core))
	}
	if suggestion != "" {
		lines = append(lines, MutedStyle.Render("  "+suggestion))
	}
	lines = append(lines, MutedStyle.Render("  press r to retry"))
	return strings.Join(lines, "\n")
}

// calculateCardWidth determines the optimal card width based on terminal width.
func (m Model) calculateCardWidth() int {
	if m.width == 0 {
		return 40
	}
	if m.width >= BreakpointCompact {
		return 38
	}
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

// layoutCards arranges cards in rows based on terminal width.
func (m Model) layoutCards(cards []string, cardWidth int) string {
	if len(cards) == 0 {
		return ""
	}

	cardsPerRow := 1
	if m.width > 0 {
		// Account for card margins and borders
		effectiveCardWidth := cardWidth + 3
		cardsPerRow = m.width / effectiveCardWidth
		if cardsPerRow < 1 {
			cardsPerRow = 1
		}
	}

	var rows []string
	for i := 0; i < len(cards); i += cardsPerRow {
		end := i + cardsPerRow
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderFooter renders the keyboard help footer.
func (m Model) renderFooter() string {
	hints := []string{
		"q quit",
		"r refresh",
		"↑↓ select",
		"enter open",
		"s sort",
		"? help",
	}
	return FooterStyle.Render(strings.Join(hints, " | "))
}

// FormatAgo renders a duration as a compact "x ago" string.
func FormatAgo(d time.Duration) string {
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// FormatBytes formats a byte count as a human-readable string.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// FormatGB renders a gigabyte figure, or a dash when unknown.
func FormatGB(gb float64) string {
	if !finite(gb) {
		return "-"
	}
	return fmt.Sprintf("%.2f GB", gb)
}
