// Package ui provides the plain terminal output used by fleetwatch's one-shot
// commands (hosts, show) and a few pieces shared with the monitor dashboard.
//
// # Components
//
//	Table      - Bubbles table with the CLI styling; also used by the dashboard
//	Fields     - Aligned label/value blocks for a single host
//	Sparkline  - One-line CPU or memory trend on a 0-100 scale
//	Spinner    - Animated wait indicator for stderr
//	HostPicker - Huh select over the roster, for 'show' without an id
//
// # Color
//
// Colors are ANSI codes so piped output stays readable. ApplyColorMode maps
// the output.color setting (auto, always, never) onto a termenv profile for
// the whole process:
//
//	ColorSuccess (green)  - fresh data, below the warning threshold
//	ColorWarning (yellow) - partial data, at or above the warning threshold
//	ColorError   (red)    - failures, at or above the critical threshold
//	ColorMuted   (gray)   - labels, timings, unknown values
package ui
