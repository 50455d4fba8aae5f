package monitor

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/model"
	polltest "github.com/rileyhilliard/fleetwatch/internal/poll/testing"
	"github.com/stretchr/testify/assert"
)

func cardModel() Model {
	return Model{clock: polltest.NewFakeClock(epoch), width: 120}
}

func TestRenderCard(t *testing.T) {
	m := cardModel()
	h := model.Host{
		ID:         7,
		Hostname:   "build-01",
		IPAddress:  "192.168.1.20",
		MACAddress: "00:11:22:33:44:55",
		OSInfo:     "linux ubuntu 24.04",
		LastSeen:   at(-90),
	}

	card := m.renderCard(h, 38, false)
	assert.Contains(t, card, "build-01")
	assert.Contains(t, card, "#7")
	assert.Contains(t, card, "192.168.1.20")
	assert.Contains(t, card, "00:11:22:33:44:55")
	assert.Contains(t, card, "linux ubuntu 24.04")
	assert.Contains(t, card, "1m ago")
	assert.Contains(t, card, GlyphReady)
}

func TestRenderCard_Selected(t *testing.T) {
	m := cardModel()
	h := model.Host{ID: 1, Hostname: "a", LastSeen: at(0)}
	assert.NotEqual(t, m.renderCard(h, 38, false), m.renderCard(h, 38, true))
}

func TestRenderCard_QuietHost(t *testing.T) {
	m := cardModel()

	quiet := model.Host{ID: 1, Hostname: "old", LastSeen: model.NewTimestamp(epoch.Add(-2 * QuietAfter))}
	assert.True(t, m.quiet(quiet))
	assert.Contains(t, m.renderCard(quiet, 38, false), GlyphStale)

	never := model.Host{ID: 2, Hostname: "new"}
	assert.True(t, m.quiet(never))
	assert.Contains(t, m.renderCard(never, 38, false), "never")

	fresh := model.Host{ID: 3, Hostname: "live", LastSeen: model.NewTimestamp(epoch.Add(-time.Minute))}
	assert.False(t, m.quiet(fresh))
}

func TestRenderCard_MissingFields(t *testing.T) {
	m := cardModel()
	card := m.renderCard(model.Host{ID: 9}, 38, false)
	assert.Contains(t, card, "host 9")
	assert.Contains(t, card, "-")
}

func TestRenderCard_MinimalLayoutDropsMAC(t *testing.T) {
	m := cardModel()
	m.width = 60
	card := m.renderCard(model.Host{ID: 1, Hostname: "a", MACAddress: "de:ad:be:ef:00:01"}, 38, false)
	assert.NotContains(t, card, "de:ad:be:ef:00:01")
}

func TestRenderHostLine_Width(t *testing.T) {
	m := cardModel()
	line := m.renderHostLine(model.Host{ID: 12, Hostname: strings.Repeat("x", 80), LastSeen: at(0)}, 34)
	assert.Equal(t, 34, lipgloss.Width(line))
	assert.Contains(t, line, "...")
	assert.Contains(t, line, "#12")
}

func TestParseErrorParts(t *testing.T) {
	core, suggestion := parseErrorParts(nil)
	assert.Empty(t, core)
	assert.Empty(t, suggestion)

	err := fwerrors.WrapWithCode(errors.New("connection refused"), fwerrors.ErrNetwork,
		"Can't reach the metrics service", "Check that the server is running")
	core, suggestion = parseErrorParts(err)
	assert.Equal(t, "Can't reach the metrics service: connection refused", core)
	assert.Equal(t, "Check that the server is running", suggestion)

	core, suggestion = parseErrorParts(errors.New("  plain failure \n"))
	assert.Equal(t, "plain failure", core)
	assert.Empty(t, suggestion)
}

func TestTruncateWithEllipsis(t *testing.T) {
	assert.Equal(t, "short", truncateWithEllipsis("short", 10))
	assert.Equal(t, "abcdefg...", truncateWithEllipsis("abcdefghijklmnop", 10))
	assert.Equal(t, "héllo w...", truncateWithEllipsis("héllo wörld!", 10))
	assert.Equal(t, "abcdef", truncateWithEllipsis("abcdef", 3), "too narrow to truncate")
}

func TestRenderCardLine_PadsToWidth(t *testing.T) {
	assert.Equal(t, 20, lipgloss.Width(renderCardLine("abc", 20)))
	assert.Equal(t, 10, lipgloss.Width(renderCardDivider(10)))
}

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", orDash(""))
	assert.Equal(t, "-", orDash("   "))
	assert.Equal(t, "x", orDash("x"))
}
