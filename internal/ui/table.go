package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableStyle provides consistent styling for tables across the CLI.
type TableStyle struct {
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Selected lipgloss.Style
	Border   lipgloss.Style
}

// DefaultTableStyle returns the default table styling.
func DefaultTableStyle() TableStyle {
	return TableStyle{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		Cell: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Selected: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Background(ColorMuted),
		Border: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a new Bubbles table with default styling.
// The table is unfocused and tall enough to show every row.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	ts := DefaultTableStyle()
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ts.Header.GetForeground())
	s.Cell = s.Cell.Foreground(ts.Cell.GetForeground())
	// Unfocused tables still highlight the cursor row; keep it plain.
	s.Selected = s.Selected.
		Foreground(ts.Cell.GetForeground()).
		Bold(false)

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string.
// This is for CLI output (not TUI), producing a simple formatted table.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	t := NewTable(columns, tableRows)
	return t.View()
}

// FitColumns sizes one column per title to the widest cell in it, capped at
// maxWidth when maxWidth is positive.
func FitColumns(titles []string, rows [][]string, maxWidth int) []TableColumn {
	cols := make([]TableColumn, len(titles))
	for i, title := range titles {
		w := lipgloss.Width(title)
		for _, row := range rows {
			if i < len(row) {
				if cw := lipgloss.Width(row[i]); cw > w {
					w = cw
				}
			}
		}
		if maxWidth > 0 && w > maxWidth {
			w = maxWidth
		}
		// One column of breathing room; bubbles pads cells by one on the right.
		cols[i] = TableColumn{Title: title, Width: w + 1}
	}
	return cols
}

// Field is one labeled value in a RenderFields block.
type Field struct {
	Label string
	Value string
}

// RenderFields renders aligned "label  value" lines with muted labels.
func RenderFields(fields []Field) string {
	if len(fields) == 0 {
		return ""
	}

	width := 0
	for _, f := range fields {
		if w := lipgloss.Width(f.Label); w > width {
			width = w
		}
	}

	labelStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	var sb strings.Builder
	for _, f := range fields {
		sb.WriteString("  ")
		sb.WriteString(labelStyle.Render(padRight(f.Label, width)))
		sb.WriteString("  ")
		sb.WriteString(f.Value)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Heading renders a bold section title.
func Heading(title string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Render(title)
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	// Account for ANSI codes when calculating visible length
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
