// Package monitor implements the fleet dashboard TUI.
//
// The dashboard has two screens. The roster shows every registered host as a
// card with its addresses, OS and how recently it reported. The detail view
// follows one host: identity, current CPU and memory with braille history
// charts, disks, network counters and the busiest processes.
//
// # Architecture
//
// The package uses the Bubble Tea framework (Model-Update-View). The model
// never fetches anything itself. A poll.ListController keeps the roster
// fresh and a poll.Controller polls the selected host; both emit immutable
// states into a poll.Queue, and a pending command per queue turns the next
// item into a message:
//
//  1. Init starts the roster controller (and the detail controller when a
//     host was given up front)
//  2. rosterMsg / viewMsg arrive as the controllers complete cycles
//  3. Update stores the state and re-arms the queue reader
//  4. View renders from the stored state only
//
// A viewMsg whose host is not the current selection was queued before a
// Reselect or Stop and is dropped.
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	r           - Refresh now
//	s           - Cycle roster sort order (id/name/last seen)
//	j/k, ↑/↓    - Navigate the roster, or scroll the detail view
//	Enter       - Open host detail
//	[ / ]       - Previous / next host while in detail
//	Esc         - Back to the roster
//	?           - Toggle help overlay
package monitor
