package monitor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/model"
)

// cardDividerStyle creates a subtle divider line with matching background
var cardDividerStyle = lipgloss.NewStyle().
	Foreground(ColorBorder).
	Background(ColorSurfaceBg)

// renderCardDivider creates a subtle thin divider line
func renderCardDivider(width int) string {
	return cardDividerStyle.Render(strings.Repeat("─", width))
}

// parseErrorParts splits an error into a one-line description and the
// suggestion attached to it, if any.
func parseErrorParts(err error) (core string, suggestion string) {
	if err == nil {
		return "", ""
	}
	var fwErr *fwerrors.Error
	if errors.As(err, &fwErr) {
		return fwErr.Short(), fwErr.Suggestion
	}
	return strings.TrimSpace(err.Error()), ""
}

// truncateWithEllipsis truncates a string to maxLen runes, adding ellipsis if needed.
func truncateWithEllipsis(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 3 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// renderCardLine renders a text line with proper background fill.
func renderCardLine(content string, width int) string {
	contentWidth := lipgloss.Width(content)
	padding := ""
	if width > contentWidth {
		padding = strings.Repeat(" ", width-contentWidth)
	}
	lineStyle := lipgloss.NewStyle().Background(ColorSurfaceBg)
	return lineStyle.Render(content + padding)
}

// renderCard renders one roster entry: identity plus how recently the host
// reported.
func (m Model) renderCard(h model.Host, width int, selected bool) string {
	style := CardStyle.Width(width)
	if selected {
		style = CardSelectedStyle.Width(width)
	}

	innerWidth := width - 4

	lines := []string{
		renderCardLine(m.renderHostLine(h, innerWidth), innerWidth),
		renderCardDivider(innerWidth),
		renderCardLine(cardField("IP", orDash(h.IPAddress), innerWidth), innerWidth),
		renderCardLine(cardField("OS", orDash(h.OSInfo), innerWidth), innerWidth),
	}
	if m.LayoutMode() != LayoutMinimal {
		lines = append(lines, renderCardLine(cardField("MAC", orDash(h.MACAddress), innerWidth), innerWidth))
	}
	lines = append(lines, renderCardLine(m.renderSeenLine(h), innerWidth))

	return style.Render(strings.Join(lines, "\n"))
}

// renderHostLine renders the glyph, hostname and id.
func (m Model) renderHostLine(h model.Host, width int) string {
	glyph, glyphStyle := GlyphReady, StatusReadyStyle
	if m.quiet(h) {
		glyph, glyphStyle = GlyphStale, StatusPartialStyle
	}

	id := MutedStyle.Render(fmt.Sprintf("#%d", h.ID))
	name := h.Hostname
	if name == "" {
		name = fmt.Sprintf("host %d", h.ID)
	}
	nameWidth := width - lipgloss.Width(id) - 3
	name = HostNameStyle.Render(truncateWithEllipsis(name, nameWidth))

	left := glyphStyle.Render(glyph) + " " + name
	gap := width - lipgloss.Width(left) - lipgloss.Width(id)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + id
}

func (m Model) renderSeenLine(h model.Host) string {
	if h.LastSeen.IsZero() {
		return LabelStyle.Render("  seen  ") + MutedStyle.Render("never")
	}
	ago := m.Since(h.LastSeen.Time)
	style := ValueStyle
	if m.quiet(h) {
		style = StatusPartialStyle
	}
	return LabelStyle.Render("  seen  ") + style.Render(ago)
}

// quiet reports whether a host has not reported for QuietAfter.
func (m Model) quiet(h model.Host) bool {
	if h.LastSeen.IsZero() {
		return true
	}
	return m.clock.Now().Sub(h.LastSeen.Time) > QuietAfter
}

func cardField(label, value string, width int) string {
	l := fmt.Sprintf("  %-4s  ", label)
	return LabelStyle.Render(l) + ValueStyle.Render(truncateWithEllipsis(value, width-len(l)))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
