package monitor

import tea "github.com/charmbracelet/bubbletea"

// SortOrder defines how hosts are sorted on the roster.
type SortOrder int

const (
	SortByID SortOrder = iota
	SortByName
	SortByLastSeen
)

// String returns a human-readable label for the sort order.
func (s SortOrder) String() string {
	switch s {
	case SortByName:
		return "name"
	case SortByLastSeen:
		return "last seen"
	default:
		return "id"
	}
}

// Next cycles to the next sort order.
func (s SortOrder) Next() SortOrder {
	return SortOrder((int(s) + 1) % 3)
}

// ViewMode defines the current display mode of the dashboard.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
)

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeyCycleSort   = "s"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeySelectFirst = "home"
	KeySelectLast  = "end"
	KeyPrevHost    = "["
	KeyNextHost    = "]"
	KeyExpand      = "enter"
	KeyCollapse    = "esc"
	KeyToggleHelp  = "?"
)

// HandleKeyMsg processes keyboard input and returns updated model state and command.
// Returns true if the key was handled, false otherwise. Unhandled keys in the
// detail view scroll its viewport.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	// Help toggle takes priority
	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}

	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		m.Close()
		return true, tea.Quit

	case KeyRefresh:
		if m.viewMode == ViewDetail {
			m.detail.Refresh()
		} else {
			m.roster.Refresh()
		}
		return true, nil
	}

	if m.viewMode == ViewDetail {
		switch key {
		case KeyCollapse:
			m.closeDetail()
			return true, nil
		case KeyPrevHost:
			return true, m.step(-1)
		case KeyNextHost:
			return true, m.step(1)
		}
		return false, nil
	}

	switch key {
	case KeyCycleSort:
		selectedID := m.selectedID()
		m.sortOrder = m.sortOrder.Next()
		m.sortHosts(selectedID)
		return true, nil

	case KeySelectPrev, KeySelectPrevK:
		if m.selected > 0 {
			m.selected--
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		if m.selected < len(m.hosts)-1 {
			m.selected++
		}
		return true, nil

	case KeySelectFirst:
		m.selected = 0
		return true, nil

	case KeySelectLast:
		if len(m.hosts) > 0 {
			m.selected = len(m.hosts) - 1
		}
		return true, nil

	case KeyExpand:
		return true, m.open()
	}

	return false, nil
}
