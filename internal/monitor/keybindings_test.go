package monitor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestSortOrder_String(t *testing.T) {
	tests := []struct {
		order  SortOrder
		expect string
	}{
		{SortByID, "id"},
		{SortByName, "name"},
		{SortByLastSeen, "last seen"},
		{SortOrder(99), "id"},
	}

	for _, tt := range tests {
		t.Run(tt.expect, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.order.String())
		})
	}
}

func TestSortOrder_Next(t *testing.T) {
	assert.Equal(t, SortByName, SortByID.Next())
	assert.Equal(t, SortByLastSeen, SortByName.Next())
	assert.Equal(t, SortByID, SortByLastSeen.Next())
}

func TestHandleKeyMsg_Unhandled(t *testing.T) {
	m := NewModel(Options{Fetcher: newFleet()})
	defer m.Close()

	handled, cmd := m.HandleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.False(t, handled)
	assert.Nil(t, cmd)
}

func TestHandleKeyMsg_EnterWithoutHosts(t *testing.T) {
	m := NewModel(Options{Fetcher: newFleet()})
	defer m.Close()

	handled, _ := m.HandleKeyMsg(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, handled)
	assert.Equal(t, ViewList, m.Mode())
	assert.False(t, m.detail.Running())
}

func TestHandleKeyMsg_DetailLeavesScrollKeysToViewport(t *testing.T) {
	m := NewModel(Options{Fetcher: newFleet(), InitialHost: 1})
	defer m.Close()

	for _, key := range []string{KeySelectNextJ, KeySelectPrevK, KeyCycleSort} {
		handled, _ := m.HandleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		assert.False(t, handled, key)
	}
}

func TestHelpBindingsCoverKeys(t *testing.T) {
	var keys []string
	for _, b := range helpBindings {
		keys = append(keys, b.Key)
	}
	assert.Contains(t, keys, "Enter")
	assert.Contains(t, keys, "[ / ]")
	assert.Contains(t, keys, "?")
}
