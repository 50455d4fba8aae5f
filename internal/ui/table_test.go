package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableStyle(t *testing.T) {
	style := DefaultTableStyle()
	assert.NotPanics(t, func() {
		_ = style.Header.Render("test")
		_ = style.Cell.Render("test")
		_ = style.Selected.Render("test")
		_ = style.Border.Render("test")
	})
}

func TestNewTable(t *testing.T) {
	columns := []TableColumn{
		{Title: "ID", Width: 6},
		{Title: "Hostname", Width: 20},
	}
	rows := []table.Row{
		{"1", "web-01"},
		{"2", "db-01"},
		{"3", "cache-01"},
	}

	view := NewTable(columns, rows).View()
	for _, want := range []string{"ID", "Hostname", "web-01", "db-01", "cache-01"} {
		assert.Contains(t, view, want)
	}
}

func TestNewTable_EmptyRows(t *testing.T) {
	view := NewTable([]TableColumn{{Title: "Name", Width: 20}}, []table.Row{}).View()
	assert.Contains(t, view, "Name")
}

func TestRenderSimpleTable(t *testing.T) {
	columns := []TableColumn{
		{Title: "Host", Width: 15},
		{Title: "Seen", Width: 10},
	}
	output := RenderSimpleTable(columns, [][]string{
		{"web-01", "just now"},
		{"db-01", "3m ago"},
	})

	for _, want := range []string{"Host", "Seen", "web-01", "db-01", "just now", "3m ago"} {
		assert.Contains(t, output, want)
	}
}

func TestRenderSimpleTable_EmptyRows(t *testing.T) {
	assert.Empty(t, RenderSimpleTable([]TableColumn{{Title: "Name", Width: 20}}, nil))
}

func TestFitColumns(t *testing.T) {
	rows := [][]string{
		{"1", "a-very-long-hostname"},
		{"22", "db"},
	}

	cols := FitColumns([]string{"ID", "Hostname"}, rows, 0)
	require.Len(t, cols, 2)
	assert.Equal(t, TableColumn{Title: "ID", Width: 3}, cols[0])
	assert.Equal(t, TableColumn{Title: "Hostname", Width: 21}, cols[1])

	capped := FitColumns([]string{"ID", "Hostname"}, rows, 10)
	assert.Equal(t, 11, capped[1].Width)
}

func TestRenderFields(t *testing.T) {
	assert.Empty(t, RenderFields(nil))

	out := stripANSI(RenderFields([]Field{
		{Label: "IP", Value: "10.0.0.1"},
		{Label: "Hostname", Value: "web-01"},
	}))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	// Values line up after the widest label.
	assert.Equal(t, strings.Index(lines[0], "10.0.0.1"), strings.Index(lines[1], "web-01"))
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{"shorter than width", "foo", 5, "foo  "},
		{"equal to width", "foobar", 6, "foobar"},
		{"longer than width", "foobar", 3, "foobar"},
		{"empty string", "", 3, "   "},
		{"zero width", "foo", 0, "foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, padRight(tt.input, tt.width))
		})
	}
}
