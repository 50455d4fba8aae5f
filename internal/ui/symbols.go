package ui

// Unicode symbols for status indicators in plain output.
const (
	SymbolSuccess = "✓" // Fetched fresh
	SymbolFail    = "✗" // Nothing could be fetched
	SymbolPending = "○" // Still loading
	SymbolPartial = "◐" // Some resources failed
	SymbolStale   = "≈" // Previous value shown
)
